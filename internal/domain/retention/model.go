package retention

import (
	"fmt"
	"time"

	"finance-app-go/internal/domain/errs"
	"github.com/shopspring/decimal"
)

type Settings struct {
	RetentionMonths int        `json:"retention_months"`
	AutoCleanup     bool       `json:"auto_cleanup"`
	LastCleanupAt   *time.Time `json:"last_cleanup_at,omitempty"`
	Cutoff          time.Time  `json:"cutoff"`
}

type MonthBucket struct {
	Month  string          `json:"month"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type CleanupPreview struct {
	OwnerID         string          `json:"owner_id"`
	RetentionMonths int             `json:"retention_months"`
	Cutoff          time.Time       `json:"cutoff"`
	ExpenseCount    int             `json:"expense_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	OldestDate      *time.Time      `json:"oldest_date,omitempty"`
	NewestDate      *time.Time      `json:"newest_date,omitempty"`
	Months          []MonthBucket   `json:"months"`
}

type ItemFailure struct {
	ExpenseID string `json:"expense_id"`
	Error     string `json:"error"`
}

type CleanupResult struct {
	OwnerID         string          `json:"owner_id"`
	RetentionMonths int             `json:"retention_months"`
	Cutoff          time.Time       `json:"cutoff"`
	Matched         int             `json:"matched"`
	DeletedExpenses int             `json:"deleted_expenses"`
	DeletedAmount   decimal.Decimal `json:"deleted_amount"`
	FailedExpenses  int             `json:"failed_expenses"`
	Failures        []ItemFailure   `json:"failures,omitempty"`
	DeletedAnalyses int64           `json:"deleted_analyses"`
	AnalysesSkipped bool            `json:"analyses_skipped"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
}

type OwnerError struct {
	OwnerID string `json:"owner_id"`
	Error   string `json:"error"`
}

type GlobalCleanupResult struct {
	ProcessedUsers       int             `json:"processed_users"`
	CleanedUsers         int             `json:"cleaned_users"`
	TotalExpensesDeleted int             `json:"total_expenses_deleted"`
	TotalAmountDeleted   decimal.Decimal `json:"total_amount_deleted"`
	TotalAnalysesDeleted int64           `json:"total_analyses_deleted"`
	Errors               []OwnerError    `json:"errors"`
	StartedAt            time.Time       `json:"started_at"`
	FinishedAt           time.Time       `json:"finished_at"`
}

// Err summarizes per-owner failures as a single errs.ErrPartialBatchFailure, or nil.
func (r GlobalCleanupResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d owners failed, first: %s: %s",
		errs.ErrPartialBatchFailure, len(r.Errors), r.ProcessedUsers, r.Errors[0].OwnerID, r.Errors[0].Error)
}
