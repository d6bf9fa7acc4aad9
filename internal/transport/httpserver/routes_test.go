package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-app-go/internal/config"
	"finance-app-go/internal/domain/accounts"
	analysisdomain "finance-app-go/internal/domain/analysis"
	expensesdomain "finance-app-go/internal/domain/expenses"
	retentiondomain "finance-app-go/internal/domain/retention"
	"finance-app-go/internal/scheduler"
	"finance-app-go/internal/transport/httpserver/handler"
	"finance-app-go/internal/transport/httpserver/handler/analysis"
	"finance-app-go/internal/transport/httpserver/handler/common"
	"finance-app-go/internal/transport/httpserver/handler/expenses"
	"finance-app-go/internal/transport/httpserver/handler/retention"
	"finance-app-go/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type stubAccounts struct {
	role string
}

func (s stubAccounts) EnsureAccount(context.Context, string, string, string) error {
	return nil
}

func (s stubAccounts) GetAccount(_ context.Context, id string) (*accounts.Account, error) {
	return &accounts.Account{ID: id, Role: s.role, Status: accounts.StatusActive, CreatedAt: time.Now().Add(-48 * time.Hour)}, nil
}

type stubAnalysis struct{}

func (stubAnalysis) GetOrGenerate(_ context.Context, ownerID string, weekStart time.Time) (*analysisdomain.WeeklyAnalysis, error) {
	return &analysisdomain.WeeklyAnalysis{OwnerID: ownerID, WeekStart: weekStart}, nil
}

func (stubAnalysis) RequestGenerate(_ context.Context, ownerID string, weekStart time.Time, _ bool) (*analysisdomain.WeeklyAnalysis, error) {
	return &analysisdomain.WeeklyAnalysis{OwnerID: ownerID, WeekStart: weekStart}, nil
}

func (stubAnalysis) Recent(context.Context, string, int) ([]analysisdomain.WeeklyAnalysis, error) {
	return []analysisdomain.WeeklyAnalysis{}, nil
}

type stubRetention struct{}

func (stubRetention) GetSettings(context.Context, string) (retentiondomain.Settings, error) {
	return retentiondomain.Settings{RetentionMonths: 3}, nil
}

func (stubRetention) UpdateSettings(_ context.Context, _ string, months int, autoCleanup bool) (retentiondomain.Settings, error) {
	return retentiondomain.Settings{RetentionMonths: months, AutoCleanup: autoCleanup}, nil
}

func (stubRetention) Preview(_ context.Context, ownerID string, months int) (retentiondomain.CleanupPreview, error) {
	return retentiondomain.CleanupPreview{OwnerID: ownerID, RetentionMonths: months}, nil
}

func (stubRetention) ConfirmedCleanup(_ context.Context, ownerID, _ string) (retentiondomain.CleanupResult, error) {
	return retentiondomain.CleanupResult{OwnerID: ownerID}, nil
}

func (stubRetention) ConfirmedCleanupAll(context.Context, string, string) (retentiondomain.GlobalCleanupResult, error) {
	return retentiondomain.GlobalCleanupResult{Errors: []retentiondomain.OwnerError{}}, nil
}

type stubExpenses struct{}

func (stubExpenses) ListExpenses(context.Context, string, expensesdomain.ListFilter) ([]expensesdomain.Expense, int64, error) {
	return []expensesdomain.Expense{}, 0, nil
}

func (stubExpenses) GetExpense(context.Context, string, string) (*expensesdomain.Expense, error) {
	return nil, expensesdomain.ErrExpenseNotFound
}

func (stubExpenses) CreateExpense(context.Context, expensesdomain.CreateExpenseInput) (*expensesdomain.Expense, error) {
	return &expensesdomain.Expense{}, nil
}

func (stubExpenses) UpdateExpense(context.Context, expensesdomain.UpdateExpenseInput) (*expensesdomain.Expense, error) {
	return &expensesdomain.Expense{}, nil
}

func (stubExpenses) DeleteExpense(context.Context, string, string) error {
	return nil
}

func newTestRouter(role string) http.Handler {
	log := logger.Nop()
	cfg := config.Config{
		AllowedOrigins: []string{"http://localhost:5173"},
		Supabase:       config.SupabaseConfig{SkipAuth: true, MockUserID: "owner-1"},
		Metrics:        config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	store := stubAccounts{role: role}
	jobs := scheduler.New(log, nil, time.UTC)

	handlers := handler.New(
		common.New(store, nil, log),
		analysis.New(stubAnalysis{}, log),
		retention.New(stubRetention{}, jobs, log),
		expenses.New(stubExpenses{}, log),
	)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	return NewRouter(cfg, handlers, Deps{Accounts: store, Metrics: metrics}, log)
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(accounts.RoleUser)

	for _, path := range []string{"/api/health", "/api/data-retention/scheduler/status", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterAdminRoutesRequireRole(t *testing.T) {
	body := `{"confirmation":"GLOBAL_CLEANUP_CONFIRMED"}`

	rec := httptest.NewRecorder()
	newTestRouter(accounts.RoleUser).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/data-retention/admin/cleanup", strings.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	newTestRouter(accounts.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/data-retention/admin/cleanup", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newTestRouter(accounts.RoleAdmin).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/data-retention/admin/jobs/unknown/run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterAuthenticatedRoutes(t *testing.T) {
	router := newTestRouter(accounts.RoleUser)

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/analysis/weekly?startDate=2025-01-20", "", http.StatusOK},
		{http.MethodGet, "/api/analysis/recent", "", http.StatusOK},
		{http.MethodPost, "/api/analysis/weekly/generate", `{"startDate":"2025-01-20"}`, http.StatusOK},
		{http.MethodGet, "/api/data-retention/settings", "", http.StatusOK},
		{http.MethodPut, "/api/data-retention/settings", `{"months":6,"autoCleanup":false}`, http.StatusOK},
		{http.MethodGet, "/api/data-retention/preview", "", http.StatusOK},
		{http.MethodPost, "/api/data-retention/cleanup", `{"confirmation":"DELETE_MY_DATA"}`, http.StatusOK},
		{http.MethodGet, "/api/expenses", "", http.StatusOK},
		{http.MethodGet, "/api/expenses/missing", "", http.StatusNotFound},
		{http.MethodDelete, "/api/expenses/some-id", "", http.StatusNoContent},
		{http.MethodGet, "/api/auth/me", "", http.StatusOK},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
		assert.Equal(t, tc.status, rec.Code, tc.method+" "+tc.path)
	}
}
