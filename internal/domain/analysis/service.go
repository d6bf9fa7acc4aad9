package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"finance-app-go/internal/domain/errs"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 52
)

// RateLimiter bounds caller-initiated regeneration per owner.
type RateLimiter interface {
	Allow(key string) error
}

type Metrics interface {
	AnalysisGenerated(withSuggestions bool)
}

type Options struct {
	TopExpenses        int
	RecentDefaultLimit int
	RecentMaxLimit     int
	Suggester          Suggester
	Limiter            RateLimiter
	Metrics            Metrics
}

type Service struct {
	repo     Repository
	expenses ExpenseReader
	opts     Options
	now      func() time.Time
}

func NewService(repo Repository, expenses ExpenseReader, opts Options) *Service {
	if opts.TopExpenses <= 0 {
		opts.TopExpenses = DefaultTopExpenses
	}
	if opts.RecentDefaultLimit <= 0 {
		opts.RecentDefaultLimit = DefaultRecentLimit
	}
	if opts.RecentMaxLimit <= 0 {
		opts.RecentMaxLimit = MaxRecentLimit
	}
	if opts.Suggester == nil {
		opts.Suggester = NewRuleSuggester()
	}
	return &Service{repo: repo, expenses: expenses, opts: opts, now: time.Now}
}

// ParseWeekStart accepts YYYY-MM-DD or RFC 3339 and truncates to the start of the day.
func ParseWeekStart(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errs.Validation("startDate is required")
	}
	if parsed, err := time.Parse(dateLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errs.Validation("startDate must be a date in YYYY-MM-DD format")
	}
	return StartOfDay(parsed), nil
}

// ComputeWeeklyAnalysis recomputes the week from the expense store and upserts it. Previously
// attached suggestions are kept.
func (s *Service) ComputeWeeklyAnalysis(ctx context.Context, ownerID string, weekStart time.Time) (*WeeklyAnalysis, error) {
	return s.Generate(ctx, ownerID, weekStart, false)
}

func (s *Service) GetOrGenerate(ctx context.Context, ownerID string, weekStart time.Time) (*WeeklyAnalysis, error) {
	if err := validate(ownerID, weekStart); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByWeek(ctx, ownerID, StartOfDay(weekStart))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrAnalysisNotFound) {
		return nil, errs.Unavailable("analysis store", err)
	}
	return s.ComputeWeeklyAnalysis(ctx, ownerID, weekStart)
}

// RequestGenerate is the caller-initiated regeneration path. It is rate limited per owner;
// scheduled runs call Generate directly.
func (s *Service) RequestGenerate(ctx context.Context, ownerID string, weekStart time.Time, includeSuggestions bool) (*WeeklyAnalysis, error) {
	if err := validate(ownerID, weekStart); err != nil {
		return nil, err
	}
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Allow(ownerID); err != nil {
			return nil, err
		}
	}
	return s.Generate(ctx, ownerID, weekStart, includeSuggestions)
}

func (s *Service) Generate(ctx context.Context, ownerID string, weekStart time.Time, includeSuggestions bool) (*WeeklyAnalysis, error) {
	if err := validate(ownerID, weekStart); err != nil {
		return nil, err
	}

	weekStart = StartOfDay(weekStart)
	items, err := s.expenses.RangeQuery(ctx, ownerID, weekStart, WeekEnd(weekStart))
	if err != nil {
		return nil, errs.Unavailable("expense store", err)
	}

	computed := Compute(ownerID, weekStart, items, s.opts.TopExpenses, s.now())
	if includeSuggestions {
		suggestions, err := s.opts.Suggester.Suggest(ctx, computed)
		if err != nil {
			return nil, errs.Unavailable("suggester", err)
		}
		computed.Suggestions = suggestions
	}

	stored, err := s.repo.Upsert(ctx, &computed)
	if err != nil {
		return nil, errs.Unavailable("analysis store", err)
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.AnalysisGenerated(includeSuggestions)
	}
	return stored, nil
}

func (s *Service) Recent(ctx context.Context, ownerID string, limit int) ([]WeeklyAnalysis, error) {
	if ownerID == "" {
		return nil, errs.NotAuthorized("owner is required")
	}
	if limit <= 0 {
		limit = s.opts.RecentDefaultLimit
	}
	if limit > s.opts.RecentMaxLimit {
		limit = s.opts.RecentMaxLimit
	}

	items, err := s.repo.ListRecent(ctx, ownerID, limit)
	if err != nil {
		return nil, errs.Unavailable("analysis store", err)
	}
	if items == nil {
		return []WeeklyAnalysis{}, nil
	}
	return items, nil
}

func validate(ownerID string, weekStart time.Time) error {
	if ownerID == "" {
		return errs.NotAuthorized("owner is required")
	}
	if weekStart.IsZero() {
		return errs.Validation("startDate is required")
	}
	return nil
}
