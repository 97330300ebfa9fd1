// Package httpserver builds the process HTTP server from configuration so
// timeouts live in one place instead of being repeated at every call site.
package httpserver

import (
	"net/http"

	"projecthub/internal/platform/config"
)

// New builds an HTTP server from the configured listen address and timeouts.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
