package accounts

import "time"

// Cache remembers accounts that were recently synced from the auth provider.
type Cache interface {
	GetByID(accountID string) (*Account, bool)
	SetByID(accountID string, account *Account, ttl time.Duration)
	DeleteByID(accountID string)
	Clear()
}

type noopCache struct{}

func (noopCache) GetByID(string) (*Account, bool) {
	return nil, false
}

func (noopCache) SetByID(string, *Account, time.Duration) {}

func (noopCache) DeleteByID(string) {}

func (noopCache) Clear() {}
