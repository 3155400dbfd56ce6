// Package server exposes the text service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/typerush/textsvc/pkg/agent"
	"github.com/typerush/textsvc/pkg/config"
	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/textgen"
	"github.com/typerush/textsvc/pkg/tracker"
)

const maxBodyBytes = 1 << 20

// Generator is the service surface the handlers call.
type Generator interface {
	GenerateText(ctx context.Context, req models.GenerationRequest) (models.GenerationResponse, error)
	CacheStats() models.CacheStats
	PurgeCache(expiredOnly bool) int
}

// Server is the text service HTTP front end.
type Server struct {
	cfg     *config.Config
	gen     Generator
	tracker tracker.Tracker
	logger  *log.Logger
	mux     *http.ServeMux
}

// New creates a Server. t may be nil to disable request history.
func New(cfg *config.Config, gen Generator, t tracker.Tracker, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		cfg:     cfg,
		gen:     gen,
		tracker: t,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/generate-text", s.handleGenerateText)
	s.mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("DELETE /api/cache", s.handlePurgeCache)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("text service listening", "addr", s.cfg.Listen)
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

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	resp, err := s.gen.GenerateText(r.Context(), req)
	s.record(r.Context(), req, resp, time.Since(start), err)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.logger.Error("generate text failed", "type", req.Type, "count", req.Count, "err", err)
		}
		writeJSONError(w, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gen.CacheStats())
}

// handlePurgeCache drops cached pools. ?expired=true keeps fresh entries.
func (s *Server) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	expiredOnly, _ := strconv.ParseBool(r.URL.Query().Get("expired"))
	n := s.gen.PurgeCache(expiredOnly)
	s.logger.Info("cache purged", "removed", n, "expired_only", expiredOnly)
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// record stores the outcome in the history. Failures are logged only.
func (s *Server) record(ctx context.Context, req models.GenerationRequest, resp models.GenerationResponse, elapsed time.Duration, err error) {
	if s.tracker == nil {
		return
	}
	rec := models.GenerationRecord{
		Type:      req.Type,
		Count:     req.Count,
		ElapsedMs: resp.ElapsedMs,
		Status:    models.StatusOK,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Status = models.StatusError
		rec.Error = err.Error()
		rec.ElapsedMs = float64(elapsed.Microseconds()) / 1000
	}
	if err := s.tracker.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("record generation failed", "err", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, textgen.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrAgentUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"textsvc_error","code":%d}}`, message, code)
}
