package httpserver

import (
	"net/http"
	"time"

	"zkid/internal/platform/config"
)

// New builds an HTTP server with sane defaults for this project. The write
// timeout has to cover a synchronous OCR round trip.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
}
