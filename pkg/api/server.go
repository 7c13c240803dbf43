// Package api exposes the Azrael services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/app"
)

const maxBodyBytes = 1 << 20

// Server is the Azrael HTTP API.
type Server struct {
	app    *app.App
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server over the services in a.
func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger.With("component", "api"),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/checkRateLimit", s.handleCheckRateLimit)
	s.mux.HandleFunc("POST /v1/adminBlockIP", s.handleAdminBlockIP)
	s.mux.HandleFunc("POST /v1/adminUnblockIP", s.handleAdminUnblockIP)
	s.mux.HandleFunc("POST /v1/getSecurityLogs", s.handleGetSecurityLogs)
	s.mux.HandleFunc("GET /v1/blockedIPs", s.handleBlockedIPs)

	s.mux.Handle("GET /v1/search", s.limited(opSearch, s.handleSearch))
	s.mux.HandleFunc("GET /v1/search/history", s.handleSearchHistory)
	s.mux.HandleFunc("DELETE /v1/search/history", s.handleClearSearchHistory)
	s.mux.HandleFunc("GET /v1/search/popular", s.handlePopularSearches)
	s.mux.HandleFunc("GET /v1/search/suggest", s.handleSuggestions)
	s.mux.HandleFunc("GET /v1/search/metrics", s.handleSearchMetrics)
	s.mux.HandleFunc("DELETE /v1/search/cache", s.handleClearSearchCache)

	s.mux.Handle("POST /v1/assets", s.limited(opWrite, s.handleCreateAsset))
	s.mux.HandleFunc("GET /v1/assets", s.handleListAssets)
	s.mux.HandleFunc("GET /v1/assets/{id}", s.handleGetAsset)
	s.mux.Handle("PUT /v1/assets/{id}", s.limited(opWrite, s.handleUpdateAsset))
	s.mux.HandleFunc("DELETE /v1/assets/{id}", s.handleDeleteAsset)
	s.mux.HandleFunc("POST /v1/assets/{id}/review", s.handleReviewAsset)

	s.mux.HandleFunc("POST /v1/moderation/bans", s.handleBan)
	s.mux.HandleFunc("DELETE /v1/moderation/bans/{userId}", s.handleUnban)
	s.mux.Handle("POST /v1/moderation/flags", s.limited(opWrite, s.handleFlag))
	s.mux.HandleFunc("GET /v1/moderation/flags", s.handleListFlags)
	s.mux.HandleFunc("POST /v1/moderation/flags/{id}/resolve", s.handleResolveFlag)
	s.mux.HandleFunc("GET /v1/moderation/history/{targetId}", s.handleModerationHistory)

	s.mux.Handle("POST /v1/votes", s.limited(opWrite, s.handleVote))
	s.mux.HandleFunc("GET /v1/votes/stats", s.handleVoteStats)
	s.mux.HandleFunc("GET /v1/votes/top", s.handleTopItems)
	s.mux.HandleFunc("GET /v1/votes/{itemType}/{itemId}", s.handleItemScore)

	s.mux.HandleFunc("GET /v1/mythologies", s.handleMythologies)
	s.mux.HandleFunc("GET /v1/forms/{type}", s.handleForm)
	s.mux.HandleFunc("GET /v1/entities/{type}", s.handleListEntities)
	s.mux.HandleFunc("GET /v1/entities/{type}/{id}", s.handleGetEntity)

	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.app.Registry, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// ListenAndServe starts the API server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.app.Config.Listen
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("azrael api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Store.Ping(r.Context()); err != nil {
		s.writeError(w, apperr.Wrap(err, apperr.CodeInternal, "store unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Status  apperr.Code `json:"status"`
	Message string      `json:"message"`
}

// writeError renders err with the status its code maps to. Errors
// without a code are logged and reported as internal.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, apperr.HTTPStatus(code), errorBody{Error: errorDetail{
		Status:  code,
		Message: apperr.Message(err),
	}})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.InvalidArgument("invalid request body: %v", err)
	}
	return nil
}
