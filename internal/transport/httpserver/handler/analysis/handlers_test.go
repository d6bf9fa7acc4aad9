package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	analysisdomain "finance-app-go/internal/domain/analysis"
	"finance-app-go/internal/domain/errs"
	"finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	generateErr  error
	lastWeek     time.Time
	lastSuggest  bool
	lastLimit    int
	generateCall int
}

func (s *fakeService) GetOrGenerate(ctx context.Context, ownerID string, weekStart time.Time) (*analysisdomain.WeeklyAnalysis, error) {
	s.lastWeek = weekStart
	return &analysisdomain.WeeklyAnalysis{OwnerID: ownerID, WeekStart: weekStart, TotalAmount: decimal.RequireFromString("220.50")}, nil
}

func (s *fakeService) RequestGenerate(ctx context.Context, ownerID string, weekStart time.Time, includeSuggestions bool) (*analysisdomain.WeeklyAnalysis, error) {
	s.generateCall++
	s.lastWeek = weekStart
	s.lastSuggest = includeSuggestions
	if s.generateErr != nil {
		return nil, s.generateErr
	}
	return &analysisdomain.WeeklyAnalysis{OwnerID: ownerID, WeekStart: weekStart}, nil
}

func (s *fakeService) Recent(ctx context.Context, ownerID string, limit int) ([]analysisdomain.WeeklyAnalysis, error) {
	s.lastLimit = limit
	return []analysisdomain.WeeklyAnalysis{}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func serve(t *testing.T, handler http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req = req.WithContext(middleware.WithUser(req.Context(), middleware.User{ID: "owner-1"}))
	rec := httptest.NewRecorder()
	handler(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestWeeklyRequiresStartDate(t *testing.T) {
	h := New(&fakeService{}, logger.Nop())

	rec, body := serve(t, h.Weekly, httptest.NewRequest(http.MethodGet, "/api/analysis/weekly", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_request", body.Error.Code)
	assert.Equal(t, "startDate is required", body.Error.Message)
}

func TestWeeklyReturnsAnalysis(t *testing.T) {
	svc := &fakeService{}
	h := New(svc, logger.Nop())

	rec, body := serve(t, h.Weekly, httptest.NewRequest(http.MethodGet, "/api/analysis/weekly?startDate=2025-01-20", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), svc.lastWeek)
	assert.Contains(t, string(body.Data), `"owner_id":"owner-1"`)
}

func TestWeeklyWithoutUser(t *testing.T) {
	h := New(&fakeService{}, logger.Nop())
	rec := httptest.NewRecorder()
	h.Weekly(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/weekly?startDate=2025-01-20", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGeneratePassesSuggestionFlag(t *testing.T) {
	svc := &fakeService{}
	h := New(svc, logger.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/weekly/generate", strings.NewReader(`{"startDate":"2025-01-20","includeSuggestions":true}`))
	rec, body := serve(t, h.Generate, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.True(t, svc.lastSuggest)
	assert.Equal(t, 1, svc.generateCall)
}

func TestGenerateRateLimited(t *testing.T) {
	svc := &fakeService{generateErr: errs.RateLimited("too many analysis.generate requests")}
	h := New(svc, logger.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/weekly/generate", strings.NewReader(`{"startDate":"2025-01-20"}`))
	rec, body := serve(t, h.Generate, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "rate_limited", body.Error.Code)
}

func TestGenerateRejectsUnknownFields(t *testing.T) {
	svc := &fakeService{}
	h := New(svc, logger.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/weekly/generate", strings.NewReader(`{"start":"2025-01-20"}`))
	rec, body := serve(t, h.Generate, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_json", body.Error.Code)
	assert.Zero(t, svc.generateCall)
}

func TestRecentParsesLimit(t *testing.T) {
	svc := &fakeService{}
	h := New(svc, logger.Nop())

	rec, body := serve(t, h.Recent, httptest.NewRequest(http.MethodGet, "/api/analysis/recent?limit=4", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, svc.lastLimit)
	assert.JSONEq(t, `[]`, string(body.Data))

	rec, _ = serve(t, h.Recent, httptest.NewRequest(http.MethodGet, "/api/analysis/recent?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
