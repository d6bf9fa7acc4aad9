package httpserver

import (
	"net/http"
	"time"

	"finance-app-go/internal/config"
	"finance-app-go/internal/transport/httpserver/handler"
	authmw "finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the router needs besides the handlers. Metrics may be nil.
type Deps struct {
	Accounts interface {
		authmw.AccountSyncer
		authmw.AccountGetter
	}
	Metrics http.Handler
}

func NewRouter(cfg config.Config, handlers *handler.Handlers, deps Deps, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.AllowedOrigins))

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)
		r.Get("/data-retention/scheduler/status", handlers.Retention.SchedulerStatus)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, deps.Accounts, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/analysis/weekly", handlers.Analysis.Weekly)
			r.Post("/analysis/weekly/generate", handlers.Analysis.Generate)
			r.Get("/analysis/recent", handlers.Analysis.Recent)

			r.Get("/data-retention/settings", handlers.Retention.GetSettings)
			r.Put("/data-retention/settings", handlers.Retention.UpdateSettings)
			r.Get("/data-retention/preview", handlers.Retention.Preview)
			r.Post("/data-retention/cleanup", handlers.Retention.Cleanup)

			r.Route("/data-retention/admin", func(r chi.Router) {
				r.Use(authmw.RequireAdmin(deps.Accounts, log))
				r.Post("/cleanup", handlers.Retention.AdminCleanup)
				r.Post("/jobs/{name}/run", handlers.Retention.RunJob)
			})

			r.Get("/expenses", handlers.Expenses.ListExpenses)
			r.Post("/expenses", handlers.Expenses.CreateExpense)
			r.Get("/expenses/{id}", handlers.Expenses.GetExpense)
			r.Put("/expenses/{id}", handlers.Expenses.UpdateExpense)
			r.Delete("/expenses/{id}", handlers.Expenses.DeleteExpense)
		})
	})

	return r
}
