package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-app-go/internal/domain/errs"
	"finance-app-go/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type responseBody struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) responseBody {
	t.Helper()
	var body responseBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errs.Validation("bad"), http.StatusBadRequest, "invalid_request"},
		{errs.ConfirmationRequired("confirm"), http.StatusBadRequest, "confirmation_required"},
		{errs.NotAuthorized("no"), http.StatusForbidden, "forbidden"},
		{errs.NotFound("missing"), http.StatusNotFound, "not_found"},
		{errs.Conflict("busy"), http.StatusConflict, "conflict"},
		{errs.RateLimited("slow down"), http.StatusTooManyRequests, "rate_limited"},
		{errs.Unavailable("expense store", errors.New("dial tcp")), http.StatusServiceUnavailable, "service_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, code := Status(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestWriteServiceErrorUsesDomainMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, logger.Nop(), "test", errs.Validation("months must be between %d and %d", 1, 12))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_request", body.Error.Code)
	assert.Equal(t, "months must be between 1 and 12", body.Error.Message)
}

func TestWriteServiceErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, logger.Nop(), "test", errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "internal error", body.Error.Message)
}

func TestWriteDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusOK, []string{})

	body := decodeBody(t, rec)
	assert.True(t, body.Success)
	assert.JSONEq(t, `[]`, string(body.Data))
	assert.Nil(t, body.Error)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error {
	return p.err
}

func TestHealth(t *testing.T) {
	h := New(nil, fakePinger{}, logger.Nop())
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(decodeBody(t, rec).Data))

	h = New(nil, fakePinger{err: errors.New("connection refused")}, logger.Nop())
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","database":"unreachable"}`, string(decodeBody(t, rec).Data))
}

func TestParseIntParam(t *testing.T) {
	value, err := ParseIntParam("limit", "", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, value)

	value, err = ParseIntParam("limit", " 7 ", 10)
	require.NoError(t, err)
	assert.Equal(t, 7, value)

	_, err = ParseIntParam("limit", "-1", 10)
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = ParseIntParam("limit", "ten", 10)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestParseDateRequired(t *testing.T) {
	_, err := ParseDateRequired("date", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = ParseDateRequired("date", "20/01/2025")
	assert.ErrorIs(t, err, errs.ErrValidation)

	value, err := ParseDateRequired("date", "2025-01-20")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-20", value.Format(DateLayout))
}
