package accounts

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	repo    Repository
	synced  Cache
	syncTTL time.Duration
}

// NewService builds the account service. synced may be nil, in which case every EnsureAccount
// call reaches the repository.
func NewService(repo Repository, synced Cache, syncTTL time.Duration) *Service {
	if synced == nil || syncTTL <= 0 {
		synced = noopCache{}
	}
	return &Service{repo: repo, synced: synced, syncTTL: syncTTL}
}

// EnsureAccount creates the account on first sight and refreshes contact fields afterwards.
// Status, role and retention settings are never touched here. A call with the same contact
// fields inside the sync TTL is a no-op.
func (s *Service) EnsureAccount(ctx context.Context, accountID, email, avatarURL string) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	account := Account{
		ID:              accountID,
		Status:          StatusActive,
		Role:            RoleUser,
		RetentionMonths: DefaultRetentionMonths,
	}
	if email != "" {
		account.Email = &email
	}
	if avatarURL != "" {
		account.AvatarURL = &avatarURL
	}

	if cached, ok := s.synced.GetByID(accountID); ok && sameContact(cached, &account) {
		return nil
	}

	if err := s.repo.EnsureAccount(ctx, &account); err != nil {
		s.synced.DeleteByID(accountID)
		return err
	}
	s.synced.SetByID(accountID, &account, s.syncTTL)
	return nil
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	return s.repo.GetAccount(ctx, accountID)
}

func (s *Service) ListActive(ctx context.Context) ([]Account, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) UpdateRetention(ctx context.Context, accountID string, months int, autoCleanup bool) error {
	return s.repo.UpdateRetention(ctx, accountID, months, autoCleanup)
}

func (s *Service) TouchLastCleanup(ctx context.Context, accountID string, at time.Time) error {
	return s.repo.TouchLastCleanup(ctx, accountID, at)
}

func sameContact(a, b *Account) bool {
	return a.EmailAddress() == b.EmailAddress() && stringValue(a.AvatarURL) == stringValue(b.AvatarURL)
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
