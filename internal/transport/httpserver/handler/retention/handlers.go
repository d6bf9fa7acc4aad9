package retention

import (
	"context"
	"errors"
	"io"
	"net/http"

	retentiondomain "finance-app-go/internal/domain/retention"
	"finance-app-go/internal/scheduler"
	"finance-app-go/internal/transport/httpserver/handler/common"
	"finance-app-go/internal/transport/httpserver/middleware"
	"finance-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Service interface {
	GetSettings(ctx context.Context, ownerID string) (retentiondomain.Settings, error)
	UpdateSettings(ctx context.Context, ownerID string, months int, autoCleanup bool) (retentiondomain.Settings, error)
	Preview(ctx context.Context, ownerID string, months int) (retentiondomain.CleanupPreview, error)
	ConfirmedCleanup(ctx context.Context, ownerID, confirmation string) (retentiondomain.CleanupResult, error)
	ConfirmedCleanupAll(ctx context.Context, adminID, confirmation string) (retentiondomain.GlobalCleanupResult, error)
}

type Jobs interface {
	IsRunning() bool
	Status() []scheduler.JobStatus
	Trigger(ctx context.Context, name string, caller scheduler.Caller) (scheduler.Report, error)
}

type Handlers struct {
	Retention Service
	Jobs      Jobs
	log       logger.Logger
}

func New(retention Service, jobs Jobs, log logger.Logger) *Handlers {
	return &Handlers{Retention: retention, Jobs: jobs, log: log}
}

type updateSettingsRequest struct {
	Months      int  `json:"months"`
	AutoCleanup bool `json:"autoCleanup"`
}

type cleanupRequest struct {
	Confirmation string `json:"confirmation"`
}

// decodeCleanup accepts an empty body so a missing token is reported as an unconfirmed request.
func decodeCleanup(r *http.Request) (cleanupRequest, error) {
	var req cleanupRequest
	if err := common.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return cleanupRequest{}, err
	}
	return req, nil
}

type schedulerStatusResponse struct {
	Running bool                  `json:"running"`
	Jobs    []scheduler.JobStatus `json:"jobs"`
}

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	settings, err := h.Retention.GetSettings(r.Context(), user.ID)
	if err != nil {
		common.WriteServiceError(w, h.log, "retention.settings: get failed", err, "user_id", user.ID)
		return
	}

	common.WriteData(w, http.StatusOK, settings)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.InvalidJSON(w)
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	settings, err := h.Retention.UpdateSettings(r.Context(), user.ID, req.Months, req.AutoCleanup)
	if err != nil {
		common.WriteServiceError(w, h.log, "retention.settings: update failed", err, "user_id", user.ID, "months", req.Months)
		return
	}

	common.WriteData(w, http.StatusOK, settings)
}

// Preview uses the months query parameter when given, otherwise the owner's saved setting.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	months, err := common.ParseIntParam("months", r.URL.Query().Get("months"), 0)
	if err != nil {
		common.WriteServiceError(w, h.log, "retention.preview: invalid months", err, "user_id", user.ID)
		return
	}
	if months == 0 {
		settings, err := h.Retention.GetSettings(r.Context(), user.ID)
		if err != nil {
			common.WriteServiceError(w, h.log, "retention.preview: get settings failed", err, "user_id", user.ID)
			return
		}
		months = settings.RetentionMonths
	}

	preview, err := h.Retention.Preview(r.Context(), user.ID, months)
	if err != nil {
		common.WriteServiceError(w, h.log, "retention.preview: preview failed", err, "user_id", user.ID, "months", months)
		return
	}

	common.WriteData(w, http.StatusOK, preview)
}

func (h *Handlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCleanup(r)
	if err != nil {
		common.InvalidJSON(w)
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	result, err := h.Retention.ConfirmedCleanup(context.WithoutCancel(r.Context()), user.ID, req.Confirmation)
	if err != nil {
		common.WriteServiceError(w, h.log, "retention.cleanup: cleanup failed", err, "user_id", user.ID)
		return
	}

	common.WriteData(w, http.StatusOK, result)
}

// AdminCleanup runs the global cleanup. Per-owner failures are part of the result, not an error.
func (h *Handlers) AdminCleanup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCleanup(r)
	if err != nil {
		common.InvalidJSON(w)
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	result, err := h.Retention.ConfirmedCleanupAll(context.WithoutCancel(r.Context()), user.ID, req.Confirmation)
	if err != nil {
		common.WriteServiceError(w, h.log, "retention.admin_cleanup: cleanup failed", err, "user_id", user.ID)
		return
	}
	if len(result.Errors) > 0 {
		h.log.Warn("retention.admin_cleanup: some owners failed", "user_id", user.ID, "errors", len(result.Errors))
	}

	common.WriteData(w, http.StatusOK, result)
}

func (h *Handlers) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.Jobs == nil {
		common.WriteData(w, http.StatusOK, schedulerStatusResponse{Jobs: []scheduler.JobStatus{}})
		return
	}
	common.WriteData(w, http.StatusOK, schedulerStatusResponse{
		Running: h.Jobs.IsRunning(),
		Jobs:    h.Jobs.Status(),
	})
}

func (h *Handlers) RunJob(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}
	if h.Jobs == nil {
		common.WriteError(w, http.StatusServiceUnavailable, "service_unavailable", "scheduler is disabled")
		return
	}

	req, err := decodeCleanup(r)
	if err != nil {
		common.InvalidJSON(w)
		return
	}

	name := chi.URLParam(r, "name")
	h.log.Audit("scheduler.manual_trigger", "owner_id", user.ID, "job", name)

	// Manual runs finish even if the client goes away.
	caller := scheduler.Caller{ID: user.ID, Confirmation: req.Confirmation}
	report, err := h.Jobs.Trigger(context.WithoutCancel(r.Context()), name, caller)
	if err != nil && report.Job == "" {
		common.WriteServiceError(w, h.log, "scheduler.run: trigger failed", err, "user_id", user.ID, "job", name)
		return
	}
	if err != nil {
		h.log.Warn("scheduler.run: job finished with errors", "job", name, "err", err)
	}

	common.WriteData(w, http.StatusOK, report)
}
