// Package api serves the attribute data model and the record archive over
// HTTP.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the router with all routes configured
func (s *Server) Routes() http.Handler {
	metrics := s.metrics

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Get("/groups", metrics.InstrumentHandler("GET", "/api/v1/groups", s.handleListGroups))
		r.Route("/groups/{group}", func(r chi.Router) {
			r.Post("/check", metrics.InstrumentHandler("POST", "/api/v1/groups/{group}/check", s.handleCheck))
			r.Post("/records", metrics.InstrumentHandler("POST", "/api/v1/groups/{group}/records", s.handlePutRecord))
			r.Get("/records", metrics.InstrumentHandler("GET", "/api/v1/groups/{group}/records", s.handleListRecords))
			r.Get("/records/{id}", metrics.InstrumentHandler("GET", "/api/v1/groups/{group}/records/{id}", s.handleGetRecord))
			r.Delete("/records/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/groups/{group}/records/{id}", s.handleDeleteRecord))
		})
	})

	return r
}

// Addr is the listen address of the server.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting attrdata API server", "addr", srv.Addr, "model", s.model.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
