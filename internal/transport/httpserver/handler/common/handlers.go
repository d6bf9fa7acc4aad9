package common

import (
	"context"

	"finance-app-go/internal/domain/accounts"
	"finance-app-go/pkg/logger"
)

type AccountReader interface {
	GetAccount(ctx context.Context, accountID string) (*accounts.Account, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Accounts AccountReader
	DB       Pinger
	log      logger.Logger
}

func New(accounts AccountReader, db Pinger, log logger.Logger) *Handlers {
	return &Handlers{
		Accounts: accounts,
		DB:       db,
		log:      log,
	}
}
