// Package httpapi exposes the sync command surface of a running daemon over
// HTTP, so that separate CLI invocations can start, cancel and watch syncs.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/notesync/internal/core/domain"
	"github.com/custodia-labs/notesync/internal/core/ports/driving"
	"github.com/custodia-labs/notesync/internal/core/services"
	"github.com/custodia-labs/notesync/internal/logger"
)

// eventBuffer is the per-client backlog of progress states.
const eventBuffer = 16

// Status is the response of GET /v1/sync/status.
type Status struct {
	domain.ProgressState
	LastRun *domain.SyncRun `json:"last_run,omitempty"`
}

// StartResponse is the response of POST /v1/sync/start.
type StartResponse struct {
	Started bool `json:"started"`
}

// CancelResponse is the response of POST /v1/sync/cancel.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// ServerOption configures the API router.
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
	metrics     http.Handler
}

// WithMiddlewares adds middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metrics = h
	}
}

// NewServer builds the router.
func NewServer(coordinator driving.SyncCoordinator, progress driving.ProgressChannel, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	routes := &routes{coordinator: coordinator, progress: progress}
	r.Route("/v1/sync", func(r chi.Router) {
		r.Post("/start", routes.start)
		r.Post("/cancel", routes.cancel)
		r.Get("/status", routes.status)
		r.Get("/events", routes.events)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	if cfg.metrics != nil {
		r.Handle("/metrics", cfg.metrics)
	}

	return r
}

// LoggingMiddleware logs each request at debug level.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("HTTP %s %s %d %s %s",
			r.Method,
			r.URL.Path,
			ww.Status(),
			time.Since(start),
			middleware.GetReqID(r.Context()),
		)
	})
}

type routes struct {
	coordinator driving.SyncCoordinator
	progress    driving.ProgressChannel
}

func (rt *routes) start(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, StartResponse{Started: rt.coordinator.Start()}, http.StatusOK)
}

func (rt *routes) cancel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, CancelResponse{Cancelled: rt.coordinator.Cancel()}, http.StatusOK)
}

func (rt *routes) status(w http.ResponseWriter, _ *http.Request) {
	resp := Status{ProgressState: rt.progress.Current()}
	if run, ok := rt.coordinator.LastRun(); ok {
		resp.LastRun = &run
	}
	writeJSON(w, resp, http.StatusOK)
}

// events streams progress states as newline-delimited JSON, starting with
// the current one, until the client goes away. Slow clients skip states.
func (rt *routes) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	obs := services.NewChannelObserver(eventBuffer)
	unsubscribe := rt.progress.Subscribe(obs)
	defer unsubscribe()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	if err := enc.Encode(rt.progress.Current()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-obs.C():
			if err := enc.Encode(state); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, map[string]string{"error": message}, statusCode)
}

// ListenAndServe serves handler on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("control API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve %s: %w", addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown control API: %w", err)
	}
	return nil
}
