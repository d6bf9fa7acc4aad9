package analysis

import (
	"context"
	"errors"
	"time"

	analysisdomain "finance-app-go/internal/domain/analysis"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var computedColumns = []string{
	"week_end",
	"total_amount",
	"total_expenses",
	"average_daily_spend",
	"category_breakdown",
	"daily_totals",
	"top_expenses",
	"insights",
	"generated_at",
	"updated_at",
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByWeek(ctx context.Context, ownerID string, weekStart time.Time) (*analysisdomain.WeeklyAnalysis, error) {
	var item analysisdomain.WeeklyAnalysis
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND week_start = ?", ownerID, weekStart).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, analysisdomain.ErrAnalysisNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Upsert inserts or replaces the computed columns of the (owner_id, week_start) row. The
// suggestions column is only overwritten when the new value carries suggestions.
func (r *PostgresRepository) Upsert(ctx context.Context, item *analysisdomain.WeeklyAnalysis) (*analysisdomain.WeeklyAnalysis, error) {
	row := *item
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	columns := computedColumns
	if row.Suggestions != nil {
		columns = append(append([]string{}, computedColumns...), "suggestions")
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "week_start"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(&row).Error; err != nil {
		return nil, err
	}

	return r.GetByWeek(ctx, item.OwnerID, item.WeekStart)
}

func (r *PostgresRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]analysisdomain.WeeklyAnalysis, error) {
	var items []analysisdomain.WeeklyAnalysis
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("week_start desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) DeleteEndingBefore(ctx context.Context, ownerID string, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&analysisdomain.WeeklyAnalysis{}, "owner_id = ? AND week_end < ?", ownerID, cutoff)
	return result.RowsAffected, result.Error
}
