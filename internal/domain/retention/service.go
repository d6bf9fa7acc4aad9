package retention

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"finance-app-go/internal/batch"
	"finance-app-go/internal/domain/accounts"
	"finance-app-go/internal/domain/errs"
	expensesdomain "finance-app-go/internal/domain/expenses"
	"finance-app-go/internal/domain/gate"
	"finance-app-go/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	DefaultBatchSize  = 50
	DefaultBatchPause = 100 * time.Millisecond

	ScopeOwner  = "owner"
	ScopeGlobal = "global"
	ScopeAuto   = "auto"
)

type ExpenseStore interface {
	ListBefore(ctx context.Context, ownerID string, cutoff time.Time) ([]expensesdomain.Expense, error)
	HasExpensesBefore(ctx context.Context, ownerID string, cutoff time.Time) (bool, error)
	DeleteByID(ctx context.Context, ownerID, expenseID string) (bool, error)
}

type AnalysisStore interface {
	DeleteEndingBefore(ctx context.Context, ownerID string, cutoff time.Time) (int64, error)
}

type AccountStore interface {
	GetAccount(ctx context.Context, accountID string) (*accounts.Account, error)
	ListActive(ctx context.Context) ([]accounts.Account, error)
	UpdateRetention(ctx context.Context, accountID string, months int, autoCleanup bool) error
	TouchLastCleanup(ctx context.Context, accountID string, at time.Time) error
}

type Guard interface {
	Confirm(action gate.Action, ownerID, confirmation string) error
	Authorize(req gate.Request) error
	Throttle(action gate.Action, key string) error
	Completed(action gate.Action, ownerID string, err error, args ...any)
}

type Metrics interface {
	CleanupFinished(scope string, deleted, failed int, amount float64)
}

type Options struct {
	DefaultMonths int
	BatchSize     int
	BatchPause    time.Duration
	Owners        batch.Options
}

type Service struct {
	expenses ExpenseStore
	analyses AnalysisStore
	accounts AccountStore
	guard    Guard
	metrics  Metrics
	log      logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService wires the engine. analyses may be nil; analysis cleanup is then skipped and flagged.
func NewService(expenses ExpenseStore, analyses AnalysisStore, accountStore AccountStore, guard Guard, metrics Metrics, log logger.Logger, opts Options) *Service {
	if opts.DefaultMonths <= 0 {
		opts.DefaultMonths = accounts.DefaultRetentionMonths
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchPause < 0 {
		opts.BatchPause = 0
	}
	return &Service{
		expenses: expenses,
		analyses: analyses,
		accounts: accountStore,
		guard:    guard,
		metrics:  metrics,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *Service) CutoffDate(months int) time.Time {
	return CutoffDate(months, s.now())
}

func (s *Service) Preview(ctx context.Context, ownerID string, months int) (CleanupPreview, error) {
	if ownerID == "" {
		return CleanupPreview{}, errs.NotAuthorized("owner is required")
	}
	if err := gate.ValidateMonths(months); err != nil {
		return CleanupPreview{}, err
	}

	cutoff := s.CutoffDate(months)
	items, err := s.expenses.ListBefore(ctx, ownerID, cutoff)
	if err != nil {
		return CleanupPreview{}, errs.Unavailable("expense store", err)
	}

	preview := CleanupPreview{
		OwnerID:         ownerID,
		RetentionMonths: months,
		Cutoff:          cutoff,
		ExpenseCount:    len(items),
		TotalAmount:     decimal.Zero,
		Months:          []MonthBucket{},
	}

	buckets := make(map[string]*MonthBucket)
	for _, item := range items {
		preview.TotalAmount = preview.TotalAmount.Add(item.Amount)

		date := item.Date.UTC()
		if preview.OldestDate == nil || date.Before(*preview.OldestDate) {
			oldest := date
			preview.OldestDate = &oldest
		}
		if preview.NewestDate == nil || date.After(*preview.NewestDate) {
			newest := date
			preview.NewestDate = &newest
		}

		month := date.Format("2006-01")
		bucket, ok := buckets[month]
		if !ok {
			bucket = &MonthBucket{Month: month, Amount: decimal.Zero}
			buckets[month] = bucket
		}
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(item.Amount)
	}

	for _, bucket := range buckets {
		preview.Months = append(preview.Months, *bucket)
	}
	sort.Slice(preview.Months, func(i, j int) bool { return preview.Months[i].Month < preview.Months[j].Month })

	return preview, nil
}

// Cleanup deletes the owner's expenses dated before the cutoff for months, one by one in batches.
// A failed delete is recorded and skipped. Analyses whose week ends before the cutoff are removed
// too when the analysis store is reachable.
func (s *Service) Cleanup(ctx context.Context, ownerID string, months int) (CleanupResult, error) {
	if ownerID == "" {
		return CleanupResult{}, errs.NotAuthorized("owner is required")
	}
	if err := gate.ValidateMonths(months); err != nil {
		return CleanupResult{}, err
	}

	started := s.now()
	cutoff := CutoffDate(months, started)
	result := CleanupResult{
		OwnerID:         ownerID,
		RetentionMonths: months,
		Cutoff:          cutoff,
		DeletedAmount:   decimal.Zero,
		StartedAt:       started.UTC(),
	}

	items, err := s.expenses.ListBefore(ctx, ownerID, cutoff)
	if err != nil {
		return CleanupResult{}, errs.Unavailable("expense store", err)
	}
	result.Matched = len(items)

	var mu sync.Mutex
	run, err := batch.Run(ctx, items, batch.Options{Size: s.opts.BatchSize, Concurrency: 1, Delay: s.opts.BatchPause},
		func(item expensesdomain.Expense) string { return item.ID },
		func(ctx context.Context, item expensesdomain.Expense) error {
			deleted, err := s.expenses.DeleteByID(ctx, ownerID, item.ID)
			if err != nil {
				return err
			}
			if deleted {
				mu.Lock()
				result.DeletedExpenses++
				result.DeletedAmount = result.DeletedAmount.Add(item.Amount)
				mu.Unlock()
			}
			return nil
		})
	for _, failure := range run.Errors {
		s.log.Warn("retention.cleanup: delete expense failed", "owner_id", ownerID, "expense_id", failure.Key, "err", failure.Err)
		result.Failures = append(result.Failures, ItemFailure{ExpenseID: failure.Key, Error: failure.Err.Error()})
	}
	result.FailedExpenses = run.Failed
	if err != nil {
		return result, err
	}

	s.cleanupAnalyses(ctx, ownerID, cutoff, &result)

	result.FinishedAt = s.now().UTC()
	if err := s.accounts.TouchLastCleanup(ctx, ownerID, result.FinishedAt); err != nil && !errors.Is(err, accounts.ErrAccountNotFound) {
		s.log.Warn("retention.cleanup: touch last cleanup failed", "owner_id", ownerID, "err", err)
	}

	s.log.Info("retention.cleanup: completed",
		"owner_id", ownerID,
		"cutoff", cutoff.Format("2006-01-02"),
		"matched", result.Matched,
		"deleted", result.DeletedExpenses,
		"failed", result.FailedExpenses,
		"analyses_deleted", result.DeletedAnalyses,
		"analyses_skipped", result.AnalysesSkipped,
	)
	return result, nil
}

func (s *Service) cleanupAnalyses(ctx context.Context, ownerID string, cutoff time.Time, result *CleanupResult) {
	if s.analyses == nil {
		result.AnalysesSkipped = true
		return
	}
	deleted, err := s.analyses.DeleteEndingBefore(ctx, ownerID, cutoff)
	if err != nil {
		s.log.Warn("retention.cleanup: analysis cleanup skipped", "owner_id", ownerID, "err", err)
		result.AnalysesSkipped = true
		return
	}
	result.DeletedAnalyses = deleted
}

// CleanupAll cleans every active owner that has at least one expense older than its own cutoff.
func (s *Service) CleanupAll(ctx context.Context) (GlobalCleanupResult, error) {
	result, err := s.cleanupOwners(ctx, func(accounts.Account) bool { return true })
	s.record(ScopeGlobal, result.TotalExpensesDeleted, len(result.Errors), result.TotalAmountDeleted)
	return result, err
}

// CleanupAutoEnabled is CleanupAll restricted to owners who opted into automatic cleanup.
func (s *Service) CleanupAutoEnabled(ctx context.Context) (GlobalCleanupResult, error) {
	result, err := s.cleanupOwners(ctx, func(account accounts.Account) bool { return account.AutoCleanup })
	s.record(ScopeAuto, result.TotalExpensesDeleted, len(result.Errors), result.TotalAmountDeleted)
	return result, err
}

func (s *Service) cleanupOwners(ctx context.Context, include func(accounts.Account) bool) (GlobalCleanupResult, error) {
	result := GlobalCleanupResult{
		TotalAmountDeleted: decimal.Zero,
		Errors:             []OwnerError{},
		StartedAt:          s.now().UTC(),
	}

	active, err := s.accounts.ListActive(ctx)
	if err != nil {
		return result, errs.Unavailable("account store", err)
	}

	owners := make([]accounts.Account, 0, len(active))
	for _, account := range active {
		if include(account) {
			owners = append(owners, account)
		}
	}

	var mu sync.Mutex
	run, runErr := batch.Run(ctx, owners, s.opts.Owners,
		func(account accounts.Account) string { return account.ID },
		func(ctx context.Context, account accounts.Account) error {
			months := account.EffectiveRetentionMonths()
			stale, err := s.expenses.HasExpensesBefore(ctx, account.ID, CutoffDate(months, s.now()))
			if err != nil {
				return errs.Unavailable("expense store", err)
			}
			if !stale {
				return nil
			}

			cleaned, err := s.Cleanup(ctx, account.ID, months)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			result.CleanedUsers++
			result.TotalExpensesDeleted += cleaned.DeletedExpenses
			result.TotalAmountDeleted = result.TotalAmountDeleted.Add(cleaned.DeletedAmount)
			result.TotalAnalysesDeleted += cleaned.DeletedAnalyses
			return nil
		})

	result.ProcessedUsers = run.Processed
	for _, failure := range run.Errors {
		s.log.Warn("retention.cleanup_all: owner failed", "owner_id", failure.Key, "err", failure.Err)
		result.Errors = append(result.Errors, OwnerError{OwnerID: failure.Key, Error: failure.Err.Error()})
	}
	result.FinishedAt = s.now().UTC()

	s.log.Info("retention.cleanup_all: completed",
		"processed", result.ProcessedUsers,
		"cleaned", result.CleanedUsers,
		"deleted", result.TotalExpensesDeleted,
		"errors", len(result.Errors),
	)
	return result, runErr
}

func (s *Service) GetSettings(ctx context.Context, ownerID string) (Settings, error) {
	account, err := s.account(ctx, ownerID)
	if err != nil {
		return Settings{}, err
	}
	months := account.EffectiveRetentionMonths()
	return Settings{
		RetentionMonths: months,
		AutoCleanup:     account.AutoCleanup,
		LastCleanupAt:   account.LastCleanupAt,
		Cutoff:          s.CutoffDate(months),
	}, nil
}

func (s *Service) UpdateSettings(ctx context.Context, ownerID string, months int, autoCleanup bool) (Settings, error) {
	if err := gate.ValidateMonths(months); err != nil {
		return Settings{}, err
	}
	if _, err := s.account(ctx, ownerID); err != nil {
		return Settings{}, err
	}
	if s.guard != nil {
		if err := s.guard.Throttle(gate.ActionSettingsUpdate, ownerID); err != nil {
			return Settings{}, err
		}
	}

	if err := s.accounts.UpdateRetention(ctx, ownerID, months, autoCleanup); err != nil {
		return Settings{}, errs.Unavailable("account store", err)
	}
	s.log.Info("retention.settings: updated", "owner_id", ownerID, "months", months, "auto_cleanup", autoCleanup)
	return s.GetSettings(ctx, ownerID)
}

// ConfirmedCleanup is the caller-initiated cleanup path: the token is checked before anything is
// read and the gate must accept the request before anything is deleted.
func (s *Service) ConfirmedCleanup(ctx context.Context, ownerID, confirmation string) (CleanupResult, error) {
	if err := s.confirm(gate.ActionOwnerCleanup, ownerID, confirmation); err != nil {
		return CleanupResult{}, err
	}
	account, err := s.account(ctx, ownerID)
	if err != nil {
		return CleanupResult{}, err
	}
	months := account.EffectiveRetentionMonths()
	if err := s.authorize(gate.Request{Action: gate.ActionOwnerCleanup, Account: account, Confirmation: confirmation, Months: months}); err != nil {
		return CleanupResult{}, err
	}

	result, err := s.Cleanup(ctx, ownerID, months)
	if s.guard != nil {
		s.guard.Completed(gate.ActionOwnerCleanup, ownerID, err, "deleted", result.DeletedExpenses, "failed", result.FailedExpenses)
	}
	s.record(ScopeOwner, result.DeletedExpenses, result.FailedExpenses, result.DeletedAmount)
	return result, err
}

func (s *Service) ConfirmedCleanupAll(ctx context.Context, adminID, confirmation string) (GlobalCleanupResult, error) {
	if err := s.AuthorizeGlobalCleanup(ctx, adminID, confirmation); err != nil {
		return GlobalCleanupResult{}, err
	}

	result, err := s.CleanupAll(ctx)
	s.GlobalCleanupFinished(adminID, result, err)
	return result, err
}

// AuthorizeGlobalCleanup runs every global cleanup check and takes one slot of the daily limit
// without deleting anything. Manual runs of the cleanup jobs go through it.
func (s *Service) AuthorizeGlobalCleanup(ctx context.Context, adminID, confirmation string) error {
	if err := s.confirm(gate.ActionGlobalCleanup, adminID, confirmation); err != nil {
		return err
	}
	account, err := s.account(ctx, adminID)
	if err != nil {
		return err
	}
	return s.authorize(gate.Request{Action: gate.ActionGlobalCleanup, Account: account, Confirmation: confirmation})
}

// GlobalCleanupFinished writes the audit outcome of an authorized global cleanup.
func (s *Service) GlobalCleanupFinished(adminID string, result GlobalCleanupResult, err error) {
	if s.guard == nil {
		return
	}
	s.guard.Completed(gate.ActionGlobalCleanup, adminID, err, "processed", result.ProcessedUsers, "cleaned", result.CleanedUsers, "errors", len(result.Errors))
}

func (s *Service) confirm(action gate.Action, ownerID, confirmation string) error {
	if s.guard == nil {
		return errs.NotAuthorized("destructive operations are disabled")
	}
	return s.guard.Confirm(action, ownerID, confirmation)
}

func (s *Service) authorize(req gate.Request) error {
	if s.guard == nil {
		return errs.NotAuthorized("destructive operations are disabled")
	}
	return s.guard.Authorize(req)
}

func (s *Service) account(ctx context.Context, ownerID string) (*accounts.Account, error) {
	if ownerID == "" {
		return nil, errs.NotAuthorized("owner is required")
	}
	account, err := s.accounts.GetAccount(ctx, ownerID)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return nil, errs.NotAuthorized("account not found")
		}
		return nil, errs.Unavailable("account store", err)
	}
	return account, nil
}

func (s *Service) record(scope string, deleted, failed int, amount decimal.Decimal) {
	if s.metrics == nil {
		return
	}
	value, _ := amount.Float64()
	s.metrics.CleanupFinished(scope, deleted, failed, value)
}
