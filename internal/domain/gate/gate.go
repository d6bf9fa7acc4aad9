// Package gate guards destructive and expensive operations. Every guarded attempt is checked for
// an explicit confirmation token, an eligible caller account and a per-action rate limit, and
// every attempt is written to the audit log whatever its outcome.
package gate

import (
	"errors"
	"time"

	"finance-app-go/internal/domain/accounts"
	"finance-app-go/internal/domain/errs"
	"finance-app-go/pkg/logger"
)

type Action string

const (
	ActionOwnerCleanup     Action = "retention.cleanup"
	ActionGlobalCleanup    Action = "retention.cleanup_all"
	ActionSettingsUpdate   Action = "retention.settings_update"
	ActionAnalysisGenerate Action = "analysis.generate"
)

const globalKey = "global"

type Config struct {
	MinAccountAge           time.Duration
	OwnerConfirmation       string
	GlobalConfirmation      string
	OwnerCleanupsPerHour    int
	GlobalCleanupsPerDay    int
	SettingsUpdatesPerHour  int
	AnalysisGeneratePerHour int
}

type Metrics interface {
	GateRejected(action, reason string)
}

// Request describes one guarded attempt. Months is validated when non-zero.
type Request struct {
	Action       Action
	Account      *accounts.Account
	Confirmation string
	Months       int
}

type Gate struct {
	cfg      Config
	log      logger.Logger
	metrics  Metrics
	limiters map[Action]*Limiter
	now      func() time.Time
}

func New(cfg Config, log logger.Logger, metrics Metrics) *Gate {
	return &Gate{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		limiters: map[Action]*Limiter{
			ActionOwnerCleanup:     NewLimiter("cleanup", cfg.OwnerCleanupsPerHour, time.Hour),
			ActionGlobalCleanup:    NewLimiter("global cleanup", cfg.GlobalCleanupsPerDay, 24*time.Hour),
			ActionSettingsUpdate:   NewLimiter("settings update", cfg.SettingsUpdatesPerHour, time.Hour),
			ActionAnalysisGenerate: NewLimiter("analysis generation", cfg.AnalysisGeneratePerHour, time.Hour),
		},
		now: time.Now,
	}
}

// Throttler binds Throttle to one action so services can take it as a plain rate limiter.
type Throttler struct {
	gate   *Gate
	action Action
}

func (t Throttler) Allow(key string) error {
	return t.gate.Throttle(t.action, key)
}

func (g *Gate) Throttler(action Action) Throttler {
	return Throttler{gate: g, action: action}
}

// ValidateMonths checks a retention window before it is persisted or used.
func ValidateMonths(months int) error {
	if months < accounts.MinRetentionMonths || months > accounts.MaxRetentionMonths {
		return errs.Validation("retention months must be between %d and %d", accounts.MinRetentionMonths, accounts.MaxRetentionMonths)
	}
	return nil
}

// Authorize runs every check for a destructive request. Nothing is counted against the rate
// limit unless all other checks pass.
func (g *Gate) Authorize(req Request) error {
	ownerID := ""
	if req.Account != nil {
		ownerID = req.Account.ID
	}

	if err := g.check(req); err != nil {
		g.reject(req.Action, ownerID, err)
		return err
	}

	key := ownerID
	if req.Action == ActionGlobalCleanup {
		key = globalKey
	}
	if err := g.limiters[req.Action].Allow(key); err != nil {
		g.reject(req.Action, ownerID, err)
		return err
	}

	g.log.Audit(string(req.Action), "owner_id", ownerID, "outcome", "allowed", "months", req.Months)
	return nil
}

// Confirm checks only the confirmation token of action. Services call it before any store read so
// an unconfirmed request never reaches the database.
func (g *Gate) Confirm(action Action, ownerID, confirmation string) error {
	if err := g.checkConfirmation(action, confirmation); err != nil {
		g.reject(action, ownerID, err)
		return err
	}
	return nil
}

// Throttle applies only the rate limit for action. Used for non-destructive but costly calls.
func (g *Gate) Throttle(action Action, key string) error {
	if err := g.limiters[action].Allow(key); err != nil {
		g.reject(action, key, err)
		return err
	}
	return nil
}

// Completed records the outcome of an authorized operation.
func (g *Gate) Completed(action Action, ownerID string, err error, args ...any) {
	fields := append([]any{"owner_id", ownerID}, args...)
	if err != nil {
		fields = append(fields, "outcome", "failed", "error", err.Error())
	} else {
		fields = append(fields, "outcome", "completed")
	}
	g.log.Audit(string(action)+".result", fields...)
}

func (g *Gate) check(req Request) error {
	if err := g.checkConfirmation(req.Action, req.Confirmation); err != nil {
		return err
	}

	account := req.Account
	if account == nil || account.ID == "" {
		return errs.NotAuthorized("account is required")
	}
	if req.Action == ActionGlobalCleanup && !account.IsAdmin() {
		return errs.NotAuthorized("admin role is required")
	}
	if account.IsBlocked() {
		return errs.NotAuthorized("account is %s", account.Status)
	}
	if g.cfg.MinAccountAge > 0 && g.now().Sub(account.CreatedAt) < g.cfg.MinAccountAge {
		return errs.NotAuthorized("account must be at least %s old", g.cfg.MinAccountAge)
	}

	if req.Months != 0 {
		if err := ValidateMonths(req.Months); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) checkConfirmation(action Action, confirmation string) error {
	var want string
	switch action {
	case ActionOwnerCleanup:
		want = g.cfg.OwnerConfirmation
	case ActionGlobalCleanup:
		want = g.cfg.GlobalConfirmation
	default:
		return nil
	}
	if want == "" || confirmation != want {
		return errs.ConfirmationRequired("confirmation must be %q", want)
	}
	return nil
}

func (g *Gate) reject(action Action, ownerID string, err error) {
	reason := reasonOf(err)
	g.log.Audit(string(action), "owner_id", ownerID, "outcome", "rejected", "reason", reason, "message", errs.Message(err))
	if g.metrics != nil {
		g.metrics.GateRejected(string(action), reason)
	}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, errs.ErrConfirmationRequired):
		return "confirmation"
	case errors.Is(err, errs.ErrNotAuthorized):
		return "eligibility"
	case errors.Is(err, errs.ErrValidation):
		return "validation"
	case errors.Is(err, errs.ErrRateLimited):
		return "rate_limit"
	default:
		return "other"
	}
}
