package batch

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(v int) string {
	return strconv.Itoa(v)
}

func TestRunCollectsFailuresWithoutStopping(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	var seen sync.Map

	result, err := Run(context.Background(), items, Options{Size: 3, Concurrency: 2}, itoa, func(ctx context.Context, item int) error {
		seen.Store(item, true)
		if item%3 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Processed)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "3", result.Errors[0].Key)
	assert.Equal(t, "6", result.Errors[1].Key)
	assert.Equal(t, "3: boom", result.Errors[0].Error())
	for _, item := range items {
		_, ok := seen.Load(item)
		assert.True(t, ok, "item %d was not processed", item)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	items := make([]int, 20)
	var current, peak int32

	_, err := Run(context.Background(), items, Options{Size: 10, Concurrency: 3}, itoa, func(ctx context.Context, _ int) error {
		now := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestRunWaitsBetweenGroups(t *testing.T) {
	items := []int{1, 2, 3, 4}
	started := time.Now()

	result, err := Run(context.Background(), items, Options{Size: 2, Concurrency: 2, Delay: 30 * time.Millisecond}, itoa, func(context.Context, int) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Processed)
	assert.GreaterOrEqual(t, time.Since(started), 30*time.Millisecond)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := []int{1, 2, 3, 4}

	result, err := Run(ctx, items, Options{Size: 2, Concurrency: 1, Delay: time.Hour}, itoa, func(context.Context, int) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, result.Processed)
}

func TestRunEmpty(t *testing.T) {
	result, err := Run(context.Background(), []string{}, Options{}, func(s string) string { return s }, func(context.Context, string) error {
		t.Fatal("fn must not be called")
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
}
