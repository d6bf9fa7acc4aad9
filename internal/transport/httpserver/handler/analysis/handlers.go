package analysis

import (
	"context"
	"net/http"
	"time"

	analysisdomain "finance-app-go/internal/domain/analysis"
	"finance-app-go/internal/transport/httpserver/handler/common"
	"finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
)

type Service interface {
	GetOrGenerate(ctx context.Context, ownerID string, weekStart time.Time) (*analysisdomain.WeeklyAnalysis, error)
	RequestGenerate(ctx context.Context, ownerID string, weekStart time.Time, includeSuggestions bool) (*analysisdomain.WeeklyAnalysis, error)
	Recent(ctx context.Context, ownerID string, limit int) ([]analysisdomain.WeeklyAnalysis, error)
}

type Handlers struct {
	Analysis Service
	log      logger.Logger
}

func New(analysis Service, log logger.Logger) *Handlers {
	return &Handlers{Analysis: analysis, log: log}
}

type generateRequest struct {
	StartDate          string `json:"startDate"`
	IncludeSuggestions bool   `json:"includeSuggestions"`
}

func (h *Handlers) Weekly(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	weekStart, err := analysisdomain.ParseWeekStart(r.URL.Query().Get("startDate"))
	if err != nil {
		common.WriteServiceError(w, h.log, "analysis.weekly: invalid start date", err, "user_id", user.ID)
		return
	}

	item, err := h.Analysis.GetOrGenerate(r.Context(), user.ID, weekStart)
	if err != nil {
		common.WriteServiceError(w, h.log, "analysis.weekly: get or generate failed", err, "user_id", user.ID, "week_start", weekStart)
		return
	}

	common.WriteData(w, http.StatusOK, item)
}

func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	weekStart, err := analysisdomain.ParseWeekStart(req.StartDate)
	if err != nil {
		common.WriteServiceError(w, h.log, "analysis.generate: invalid start date", err, "user_id", user.ID)
		return
	}

	item, err := h.Analysis.RequestGenerate(r.Context(), user.ID, weekStart, req.IncludeSuggestions)
	if err != nil {
		common.WriteServiceError(w, h.log, "analysis.generate: generate failed", err, "user_id", user.ID, "week_start", weekStart)
		return
	}

	common.WriteData(w, http.StatusOK, item)
}

func (h *Handlers) Recent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	limit, err := common.ParseIntParam("limit", r.URL.Query().Get("limit"), 0)
	if err != nil {
		common.WriteServiceError(w, h.log, "analysis.recent: invalid limit", err, "user_id", user.ID)
		return
	}

	items, err := h.Analysis.Recent(r.Context(), user.ID, limit)
	if err != nil {
		common.WriteServiceError(w, h.log, "analysis.recent: list failed", err, "user_id", user.ID)
		return
	}

	common.WriteData(w, http.StatusOK, items)
}
