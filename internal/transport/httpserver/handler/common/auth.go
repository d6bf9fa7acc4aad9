package common

import (
	"net/http"
	"time"

	"finance-app-go/internal/transport/httpserver/middleware"
)

type authMeResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	AvatarURL       string     `json:"avatar_url"`
	Role            string     `json:"role,omitempty"`
	Status          string     `json:"status,omitempty"`
	RetentionMonths int        `json:"retention_months,omitempty"`
	AutoCleanup     bool       `json:"auto_cleanup"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		Unauthorized(w)
		return
	}

	response := authMeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}

	if h.Accounts != nil {
		account, err := h.Accounts.GetAccount(r.Context(), user.ID)
		if err != nil {
			WriteServiceError(w, h.log, "auth.me: get account failed", err, "user_id", user.ID)
			return
		}
		response.Role = account.Role
		response.Status = account.Status
		response.RetentionMonths = account.EffectiveRetentionMonths()
		response.AutoCleanup = account.AutoCleanup
		response.CreatedAt = &account.CreatedAt
	}

	WriteData(w, http.StatusOK, response)
}
