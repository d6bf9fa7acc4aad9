// Package batch runs a function over a list of items in fixed-size groups with bounded
// concurrency inside each group and a pause between groups. A failing item never stops the run.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	Size        int
	Concurrency int
	Delay       time.Duration
}

func (o Options) normalized(total int) Options {
	if o.Size <= 0 {
		o.Size = total
	}
	if o.Size <= 0 {
		o.Size = 1
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	return o
}

// ItemError ties a failure to the item that produced it.
type ItemError struct {
	Index int
	Key   string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

type Result struct {
	Processed int
	Failed    int
	Errors    []ItemError
}

// Run calls fn for every item and returns the collected failures ordered by item index. key names
// an item in error messages. Cancelling ctx stops Run before the next group starts; items that
// were never started are not counted as processed.
func Run[T any](ctx context.Context, items []T, opts Options, key func(T) string, fn func(context.Context, T) error) (Result, error) {
	opts = opts.normalized(len(items))

	var (
		mu     sync.Mutex
		result Result
	)

	for start := 0; start < len(items); start += opts.Size {
		if start > 0 && opts.Delay > 0 {
			timer := time.NewTimer(opts.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return finish(result), ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return finish(result), err
		}

		end := min(start+opts.Size, len(items))

		var group errgroup.Group
		group.SetLimit(opts.Concurrency)
		for idx := start; idx < end; idx++ {
			item := items[idx]
			group.Go(func() error {
				err := fn(ctx, item)

				mu.Lock()
				defer mu.Unlock()
				result.Processed++
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, ItemError{Index: idx, Key: key(item), Err: err})
				}
				return nil
			})
		}
		_ = group.Wait()
	}

	return finish(result), nil
}

func finish(result Result) Result {
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Index < result.Errors[j].Index })
	return result
}
