package analysis

import (
	"context"
	"time"

	expensesdomain "finance-app-go/internal/domain/expenses"
)

type Repository interface {
	GetByWeek(ctx context.Context, ownerID string, weekStart time.Time) (*WeeklyAnalysis, error)
	// Upsert writes analysis keyed by (OwnerID, WeekStart). Computed fields are replaced; a nil
	// Suggestions keeps whatever payload is already stored. Returns the stored row.
	Upsert(ctx context.Context, analysis *WeeklyAnalysis) (*WeeklyAnalysis, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]WeeklyAnalysis, error)
	// DeleteEndingBefore removes the owner's analyses whose whole week lies before cutoff.
	DeleteEndingBefore(ctx context.Context, ownerID string, cutoff time.Time) (int64, error)
}

type ExpenseReader interface {
	RangeQuery(ctx context.Context, ownerID string, from, to time.Time) ([]expensesdomain.Expense, error)
}
