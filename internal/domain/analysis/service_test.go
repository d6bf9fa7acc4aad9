package analysis

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"finance-app-go/internal/domain/errs"
	expensesdomain "finance-app-go/internal/domain/expenses"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpenseReader struct {
	items []expensesdomain.Expense
	err   error
}

func (r *fakeExpenseReader) RangeQuery(ctx context.Context, ownerID string, from, to time.Time) ([]expensesdomain.Expense, error) {
	if r.err != nil {
		return nil, r.err
	}
	var result []expensesdomain.Expense
	for _, item := range r.items {
		if item.OwnerID == ownerID && !item.Date.Before(from) && !item.Date.After(to) {
			result = append(result, item)
		}
	}
	return result, nil
}

type fakeAnalysisRepo struct {
	rows    map[string]WeeklyAnalysis
	upserts int
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{rows: make(map[string]WeeklyAnalysis)}
}

func analysisKey(ownerID string, weekStart time.Time) string {
	return ownerID + "|" + weekStart.Format(dateLayout)
}

func (r *fakeAnalysisRepo) GetByWeek(ctx context.Context, ownerID string, weekStart time.Time) (*WeeklyAnalysis, error) {
	row, ok := r.rows[analysisKey(ownerID, weekStart)]
	if !ok {
		return nil, ErrAnalysisNotFound
	}
	return &row, nil
}

func (r *fakeAnalysisRepo) Upsert(ctx context.Context, analysis *WeeklyAnalysis) (*WeeklyAnalysis, error) {
	r.upserts++
	key := analysisKey(analysis.OwnerID, analysis.WeekStart)
	row := *analysis
	if existing, ok := r.rows[key]; ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		if row.Suggestions == nil {
			row.Suggestions = existing.Suggestions
		}
	} else {
		row.ID = uuid.NewString()
	}
	r.rows[key] = row
	return &row, nil
}

func (r *fakeAnalysisRepo) ListRecent(ctx context.Context, ownerID string, limit int) ([]WeeklyAnalysis, error) {
	var items []WeeklyAnalysis
	for _, row := range r.rows {
		if row.OwnerID == ownerID {
			items = append(items, row)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].WeekStart.After(items[j].WeekStart) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *fakeAnalysisRepo) DeleteEndingBefore(ctx context.Context, ownerID string, cutoff time.Time) (int64, error) {
	var deleted int64
	for key, row := range r.rows {
		if row.OwnerID == ownerID && row.WeekEnd.Before(cutoff) {
			delete(r.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

type denyAfter struct {
	remaining int
}

func (l *denyAfter) Allow(key string) error {
	if l.remaining <= 0 {
		return errs.RateLimited("too many analysis requests")
	}
	l.remaining--
	return nil
}

type countingMetrics struct {
	generated int
}

func (m *countingMetrics) AnalysisGenerated(bool) {
	m.generated++
}

func newTestService(reader *fakeExpenseReader, repo *fakeAnalysisRepo, opts Options) *Service {
	svc := NewService(repo, reader, opts)
	svc.now = func() time.Time { return time.Date(2025, 1, 27, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestGenerateUpsertsOneRowPerWeek(t *testing.T) {
	reader := &fakeExpenseReader{items: sampleWeek()}
	repo := newFakeAnalysisRepo()
	metrics := &countingMetrics{}
	svc := newTestService(reader, repo, Options{Metrics: metrics})

	first, err := svc.Generate(context.Background(), "owner-1", week.Add(13*time.Hour), false)
	require.NoError(t, err)
	assert.Equal(t, week, first.WeekStart)

	reader.items = append(reader.items, expense("late", "Travel", "79.50", 6))
	second, err := svc.Generate(context.Background(), "owner-1", week, false)
	require.NoError(t, err)

	assert.Len(t, repo.rows, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.TotalAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 4, second.TotalExpenses)
	assert.Equal(t, 2, metrics.generated)
}

func TestGenerateIsIdempotent(t *testing.T) {
	reader := &fakeExpenseReader{items: sampleWeek()}
	repo := newFakeAnalysisRepo()
	svc := newTestService(reader, repo, Options{})

	first, err := svc.Generate(context.Background(), "owner-1", week, false)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), "owner-1", week, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGeneratePreservesSuggestions(t *testing.T) {
	reader := &fakeExpenseReader{items: sampleWeek()}
	repo := newFakeAnalysisRepo()
	svc := newTestService(reader, repo, Options{})

	withSuggestions, err := svc.Generate(context.Background(), "owner-1", week, true)
	require.NoError(t, err)
	require.NotNil(t, withSuggestions.Suggestions)
	assert.Equal(t, SuggestionSourceRules, withSuggestions.Suggestions.Source)
	assert.NotEmpty(t, withSuggestions.Suggestions.Items)

	recomputed, err := svc.ComputeWeeklyAnalysis(context.Background(), "owner-1", week)
	require.NoError(t, err)
	require.NotNil(t, recomputed.Suggestions)
	assert.Equal(t, withSuggestions.Suggestions.Items, recomputed.Suggestions.Items)
}

func TestGetOrGenerateReturnsCachedRow(t *testing.T) {
	reader := &fakeExpenseReader{items: sampleWeek()}
	repo := newFakeAnalysisRepo()
	svc := newTestService(reader, repo, Options{})

	created, err := svc.GetOrGenerate(context.Background(), "owner-1", week)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.upserts)

	reader.items = nil
	cached, err := svc.GetOrGenerate(context.Background(), "owner-1", week)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.upserts)
	assert.True(t, cached.TotalAmount.Equal(created.TotalAmount))
}

func TestGenerateEmptyWeekIsValid(t *testing.T) {
	svc := newTestService(&fakeExpenseReader{}, newFakeAnalysisRepo(), Options{})

	result, err := svc.Generate(context.Background(), "owner-1", week, false)
	require.NoError(t, err)
	assert.Zero(t, result.TotalExpenses)
	assert.Len(t, result.DailyTotals, WindowDays)
}

func TestGenerateValidation(t *testing.T) {
	svc := newTestService(&fakeExpenseReader{}, newFakeAnalysisRepo(), Options{})

	_, err := svc.Generate(context.Background(), "", week, false)
	assert.ErrorIs(t, err, errs.ErrNotAuthorized)

	_, err = svc.Generate(context.Background(), "owner-1", time.Time{}, false)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestGenerateStoreFailureIsUnavailable(t *testing.T) {
	svc := newTestService(&fakeExpenseReader{err: errors.New("connection refused")}, newFakeAnalysisRepo(), Options{})

	_, err := svc.Generate(context.Background(), "owner-1", week, false)
	assert.ErrorIs(t, err, errs.ErrDependencyUnavailable)
}

func TestRequestGenerateIsRateLimited(t *testing.T) {
	repo := newFakeAnalysisRepo()
	svc := newTestService(&fakeExpenseReader{items: sampleWeek()}, repo, Options{Limiter: &denyAfter{remaining: 1}})

	_, err := svc.RequestGenerate(context.Background(), "owner-1", week, false)
	require.NoError(t, err)

	_, err = svc.RequestGenerate(context.Background(), "owner-1", week, false)
	assert.ErrorIs(t, err, errs.ErrRateLimited)
	assert.Equal(t, 1, repo.upserts)
}

func TestRecentClampsLimit(t *testing.T) {
	repo := newFakeAnalysisRepo()
	svc := newTestService(&fakeExpenseReader{}, repo, Options{RecentDefaultLimit: 2, RecentMaxLimit: 3})
	for i := 0; i < 5; i++ {
		_, err := svc.Generate(context.Background(), "owner-1", week.AddDate(0, 0, -7*i), false)
		require.NoError(t, err)
	}

	items, err := svc.Recent(context.Background(), "owner-1", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, week, items[0].WeekStart)

	items, err = svc.Recent(context.Background(), "owner-1", 100)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = svc.Recent(context.Background(), "owner-2", 5)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestParseWeekStart(t *testing.T) {
	parsed, err := ParseWeekStart("2025-01-20")
	require.NoError(t, err)
	assert.Equal(t, week, parsed)

	parsed, err = ParseWeekStart("2025-01-20T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, week, parsed)

	_, err = ParseWeekStart("")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = ParseWeekStart("20/01/2025")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestRuleSuggesterFlagsDominantCategory(t *testing.T) {
	suggester := NewRuleSuggester()
	result, err := suggester.Suggest(context.Background(), Compute("owner-1", week, sampleWeek(), 5, week))
	require.NoError(t, err)

	require.NotEmpty(t, result.Items)
	assert.Contains(t, result.Items[0], "Food took 81.86%")
}

func TestRuleSuggesterEmptyWeek(t *testing.T) {
	result, err := NewRuleSuggester().Suggest(context.Background(), Compute("owner-1", week, nil, 5, week))
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}
