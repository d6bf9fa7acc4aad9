package expenses

import (
	"context"

	expensesdomain "finance-app-go/internal/domain/expenses"
	"finance-app-go/pkg/logger"
)

type Service interface {
	ListExpenses(ctx context.Context, ownerID string, filter expensesdomain.ListFilter) ([]expensesdomain.Expense, int64, error)
	GetExpense(ctx context.Context, ownerID, expenseID string) (*expensesdomain.Expense, error)
	CreateExpense(ctx context.Context, input expensesdomain.CreateExpenseInput) (*expensesdomain.Expense, error)
	UpdateExpense(ctx context.Context, input expensesdomain.UpdateExpenseInput) (*expensesdomain.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, expenseID string) error
}

type Handlers struct {
	Expenses Service
	log      logger.Logger
}

func New(expenses Service, log logger.Logger) *Handlers {
	return &Handlers{
		Expenses: expenses,
		log:      log,
	}
}
