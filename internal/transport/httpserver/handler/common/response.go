package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"finance-app-go/internal/domain/errs"
	"finance-app-go/pkg/logger"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

func WriteData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Unauthorized is written when a protected handler runs without an authenticated user.
func Unauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func InvalidJSON(w http.ResponseWriter) {
	WriteError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
}

// Status maps a domain error to its HTTP status and error code.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errs.ErrConfirmationRequired):
		return http.StatusBadRequest, "confirmation_required"
	case errors.Is(err, errs.ErrNotAuthorized):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, errs.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteServiceError logs err and writes it. Expected outcomes are logged as business errors and
// carry the service's message; everything else is an internal error with a generic message.
func WriteServiceError(w http.ResponseWriter, log logger.Logger, op string, err error, args ...any) {
	status, code := Status(err)
	switch status {
	case http.StatusInternalServerError:
		log.InternalError(op, err, args...)
		WriteError(w, status, code, "internal error")
	case http.StatusServiceUnavailable:
		log.InternalError(op, err, args...)
		WriteError(w, status, code, "service temporarily unavailable")
	default:
		log.BusinessError(op, err, args...)
		WriteError(w, status, code, errs.Message(err))
	}
}
