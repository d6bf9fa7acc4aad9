package accounts

import (
	"context"
	"errors"
	"time"

	accountsdomain "finance-app-go/internal/domain/accounts"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureAccount inserts the account or refreshes its contact fields. Status, role and retention
// settings of an existing row are left alone.
func (r *PostgresRepository) EnsureAccount(ctx context.Context, account *accountsdomain.Account) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if account.Email != nil {
		updates["email"] = account.Email
	}
	if account.AvatarURL != nil {
		updates["avatar_url"] = account.AvatarURL
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(updates),
		}).
		Create(account).Error
}

func (r *PostgresRepository) GetAccount(ctx context.Context, accountID string) (*accountsdomain.Account, error) {
	var account accountsdomain.Account
	if err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountsdomain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]accountsdomain.Account, error) {
	var items []accountsdomain.Account
	if err := r.db.WithContext(ctx).
		Where("status = ?", accountsdomain.StatusActive).
		Order("created_at asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) UpdateRetention(ctx context.Context, accountID string, months int, autoCleanup bool) error {
	return r.update(ctx, accountID, map[string]interface{}{
		"retention_months": months,
		"auto_cleanup":     autoCleanup,
		"updated_at":       time.Now().UTC(),
	})
}

func (r *PostgresRepository) TouchLastCleanup(ctx context.Context, accountID string, at time.Time) error {
	return r.update(ctx, accountID, map[string]interface{}{
		"last_cleanup_at": at,
		"updated_at":      time.Now().UTC(),
	})
}

func (r *PostgresRepository) update(ctx context.Context, accountID string, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&accountsdomain.Account{}).
		Where("id = ?", accountID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return accountsdomain.ErrAccountNotFound
	}
	return nil
}
