// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "catalog-assistant/internal/common/errors"
	"catalog-assistant/internal/common/validation"
	"catalog-assistant/internal/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Responder runs conversation turns.
type Responder interface {
	Handle(ctx context.Context, sessionID, utterance string) (models.ChatResponse, error)
	Reset(ctx context.Context, sessionID string) error
}

// HealthCheck probes one backing service.
type HealthCheck func(ctx context.Context) error

const maxBodyBytes = 64 << 10

var chatSchema = validation.MustCompile("chat request", `{
	"type": "object",
	"required": ["query"],
	"properties": {
		"sessionId": {"type": "string"},
		"query": {"type": "string", "minLength": 1}
	}
}`)

type Options struct {
	RequestTimeout time.Duration
	Checks         map[string]HealthCheck
}

type Server struct {
	responder Responder
	opts      Options
	logger    Logger
}

func New(responder Responder, opts Options, log Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{responder: responder, opts: opts, logger: log}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/chat", s.chat)
	r.Delete("/sessions/{sessionId}", s.resetSession)

	return r
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.RequestTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, apperrors.NewInvalidRequestError("unreadable body"))
		return
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		s.writeError(w, r, apperrors.NewInvalidRequestError("body is not valid JSON"))
		return
	}
	if err := chatSchema.Check(doc); err != nil {
		s.writeError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	var req models.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	resp, err := s.responder.Handle(r.Context(), req.SessionID, req.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := s.responder.Reset(r.Context(), sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.opts.Checks))
	for name, check := range s.opts.Checks {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("health check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	s.writeJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.ToHTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"requestId": chimiddleware.GetReqID(r.Context()),
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Info("request rejected", fields)
	}

	s.writeJSON(w, status, map[string]interface{}{
		"error":     stdErr.Message,
		"code":      stdErr.Code,
		"detail":    stdErr.Details,
		"retryable": stdErr.Retryable,
	})
}
