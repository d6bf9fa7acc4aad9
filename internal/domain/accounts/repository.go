package accounts

import (
	"context"
	"time"
)

type Repository interface {
	EnsureAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	ListActive(ctx context.Context) ([]Account, error)
	UpdateRetention(ctx context.Context, accountID string, months int, autoCleanup bool) error
	TouchLastCleanup(ctx context.Context, accountID string, at time.Time) error
}
