package middleware

import (
	"context"
	"errors"
	"net/http"

	"finance-app-go/internal/domain/accounts"
	"finance-app-go/pkg/logger"
)

type AccountGetter interface {
	GetAccount(ctx context.Context, accountID string) (*accounts.Account, error)
}

// RequireAdmin lets the request through only when the authenticated user's account has the
// admin role. It must run after the auth middleware.
func RequireAdmin(store AccountGetter, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}

			account, err := store.GetAccount(r.Context(), userID)
			if err != nil {
				if errors.Is(err, accounts.ErrAccountNotFound) {
					writeError(w, http.StatusForbidden, "forbidden", "admin role required")
					return
				}
				log.InternalError("admin: get account failed", err, "user_id", userID)
				writeError(w, http.StatusServiceUnavailable, "service_unavailable", "account store unavailable")
				return
			}
			if !account.IsAdmin() || account.IsBlocked() {
				log.Audit("admin.denied", "owner_id", userID, "path", r.URL.Path)
				writeError(w, http.StatusForbidden, "forbidden", "admin role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
