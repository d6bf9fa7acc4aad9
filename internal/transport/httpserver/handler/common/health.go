package common

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{Status: "ok", Database: "unknown"}
	if h.DB == nil {
		WriteData(w, http.StatusOK, response)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		h.log.Warn("health: database ping failed", "err", err)
		response.Status = "degraded"
		response.Database = "unreachable"
		WriteData(w, http.StatusServiceUnavailable, response)
		return
	}

	response.Database = "ok"
	WriteData(w, http.StatusOK, response)
}
