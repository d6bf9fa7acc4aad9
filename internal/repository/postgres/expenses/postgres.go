package expenses

import (
	"context"
	"errors"
	"time"

	expensesdomain "finance-app-go/internal/domain/expenses"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListExpenses(ctx context.Context, ownerID string, filter expensesdomain.ListFilter) ([]expensesdomain.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&expensesdomain.Expense{}).Where("owner_id = ?", ownerID)
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("date desc, created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []expensesdomain.Expense
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) GetExpenseByID(ctx context.Context, ownerID, expenseID string) (*expensesdomain.Expense, error) {
	var expense expensesdomain.Expense
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, expenseID).
		First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expensesdomain.ErrExpenseNotFound
		}
		return nil, err
	}
	return &expense, nil
}

func (r *PostgresRepository) CreateExpense(ctx context.Context, expense *expensesdomain.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *PostgresRepository) UpdateExpense(ctx context.Context, expense *expensesdomain.Expense) error {
	result := r.db.WithContext(ctx).
		Model(&expensesdomain.Expense{}).
		Where("id = ? AND owner_id = ?", expense.ID, expense.OwnerID).
		Updates(map[string]interface{}{
			"amount":         expense.Amount,
			"description":    expense.Description,
			"category":       expense.Category,
			"date":           expense.Date,
			"tags":           gorm.Expr("?::jsonb", jsonOrNull(expense.Tags)),
			"notes":          expense.Notes,
			"payment_method": expense.PaymentMethod,
			"recurrence":     gorm.Expr("?::jsonb", jsonOrNull(expense.Recurrence)),
			"updated_at":     expense.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return expensesdomain.ErrExpenseNotFound
	}
	return nil
}

// RangeQuery orders by date then creation so aggregates see a stable input order.
func (r *PostgresRepository) RangeQuery(ctx context.Context, ownerID string, from, to time.Time) ([]expensesdomain.Expense, error) {
	var items []expensesdomain.Expense
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND date >= ? AND date <= ?", ownerID, from, to).
		Order("date asc, created_at asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) ListBefore(ctx context.Context, ownerID string, cutoff time.Time) ([]expensesdomain.Expense, error) {
	var items []expensesdomain.Expense
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND date < ?", ownerID, cutoff).
		Order("date asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) HasExpensesBefore(ctx context.Context, ownerID string, cutoff time.Time) (bool, error) {
	var found int
	err := r.db.WithContext(ctx).
		Model(&expensesdomain.Expense{}).
		Select("1").
		Where("owner_id = ? AND date < ?", ownerID, cutoff).
		Limit(1).
		Scan(&found).Error
	if err != nil {
		return false, err
	}
	return found == 1, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, ownerID, expenseID string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&expensesdomain.Expense{}, "owner_id = ? AND id = ?", ownerID, expenseID)
	return result.RowsAffected > 0, result.Error
}
