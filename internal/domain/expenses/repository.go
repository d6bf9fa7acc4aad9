package expenses

import (
	"context"
	"time"
)

type Repository interface {
	ListExpenses(ctx context.Context, ownerID string, filter ListFilter) ([]Expense, int64, error)
	GetExpenseByID(ctx context.Context, ownerID, expenseID string) (*Expense, error)
	CreateExpense(ctx context.Context, expense *Expense) error
	UpdateExpense(ctx context.Context, expense *Expense) error
	// RangeQuery returns the owner's expenses with from <= date <= to, ordered by date then creation.
	RangeQuery(ctx context.Context, ownerID string, from, to time.Time) ([]Expense, error)
	// ListBefore returns the owner's expenses dated strictly before cutoff.
	ListBefore(ctx context.Context, ownerID string, cutoff time.Time) ([]Expense, error)
	HasExpensesBefore(ctx context.Context, ownerID string, cutoff time.Time) (bool, error)
	DeleteByID(ctx context.Context, ownerID, expenseID string) (bool, error)
}
