// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package httpapi serves the optional observability surface while a run is
// in progress: /healthz, Prometheus /metrics, and a read-only /config dump
// of the parsed configuration. It is never required for output correctness;
// a failing server is logged and the run continues.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	json "github.com/goccy/go-json"

	"github.com/coreaudit/seclogsim/internal/logging"
)

// Server is the supervised HTTP observability endpoint.
type Server struct {
	addr       string
	configDump map[string]any
}

// New builds a server listening on addr. configDump is the redacted parsed
// config returned verbatim by GET /config.
func New(addr string, configDump map[string]any) *Server {
	return &Server{addr: addr, configDump: configDump}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/config", s.handleConfig)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.configDump); err != nil {
		logging.Warn().Err(err).Msg("httpapi: encode config dump")
	}
}

// Serve implements suture.Service: it runs the HTTP listener until ctx is
// canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logging.Info().Str("addr", s.addr).Msg("httpapi: listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
