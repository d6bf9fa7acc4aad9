package httpserver

import (
	"net/http"
	"time"

	"finance-app-go/internal/config"
)

func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Admin cleanups and manual job runs can outlast the router timeout.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  time.Minute,
	}
}
