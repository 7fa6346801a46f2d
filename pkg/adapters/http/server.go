package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/concierge/pkg/catalog"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Engine is the part of the concierge engine served over HTTP.
type Engine interface {
	Process(ctx context.Context, conversationID, utterance string) (domain.Reply, error)
	Progress(ctx context.Context, conversationID string) (domain.Progress, error)
	Abandon(ctx context.Context, conversationID string) error
	Documents(ctx context.Context, conversationID string) ([]domain.Document, error)
	Catalog() *catalog.Catalog
}

// Server holds the handlers of the HTTP API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger  *slog.Logger
	origins []string
	metrics http.Handler
	version string
	doc     openapiInfo
}

type openapiInfo struct {
	version string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins sets the CORS origins (default: any).
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the build version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates the HTTP handler for the engine. Every API route is
// validated against the embedded OpenAPI document.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		origins: []string{"*"},
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	s.doc = openapiInfo{version: doc.Info.Version}
	v := &validator{doc: doc}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	routes := []struct {
		method, pattern string
		h               http.HandlerFunc
	}{
		{http.MethodPost, "/v1/conversations/{conversationID}/messages", s.SendMessage},
		{http.MethodGet, "/v1/conversations/{conversationID}/progress", s.GetProgress},
		{http.MethodDelete, "/v1/conversations/{conversationID}/session", s.AbandonSession},
		{http.MethodGet, "/v1/conversations/{conversationID}/events", s.SubscribeEvents},
		{http.MethodGet, "/v1/forms", s.ListForms},
		{http.MethodGet, "/v1/forms/{formID}", s.GetForm},
		{http.MethodGet, "/v1/documents", s.ListDocuments},
		{http.MethodGet, "/health", s.GetHealth},
		{http.MethodGet, "/info", s.GetInfo},
	}
	for _, rt := range routes {
		h, err := v.wrap(rt.method, rt.pattern, rt.h)
		if err != nil {
			return nil, err
		}
		r.Method(rt.method, rt.pattern, h)
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r, nil
}

type messageRequest struct {
	Text string `json:"text"`
}

// SendMessage handles POST /v1/conversations/{conversationID}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		s.logger.Warn("SendMessage: invalid request body", "err", err)
		return
	}

	reply, err := s.Engine.Process(r.Context(), conversationID, body.Text)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("SendMessage failed", "conversation_id", conversationID, "err", err)
		} else {
			s.logger.Warn("SendMessage: input rejected", "conversation_id", conversationID, "err", err, "size", len(body.Text))
		}
		writeError(w, status, err)
		return
	}

	if payload, err := json.Marshal(reply); err == nil {
		s.Streams.Broadcast(conversationID, string(payload))
	}
	writeJSON(w, s.logger, http.StatusOK, reply)
}

// GetProgress handles GET /v1/conversations/{conversationID}/progress.
func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine.Progress(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, p)
}

// AbandonSession handles DELETE /v1/conversations/{conversationID}/session.
func (s *Server) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Abandon(r.Context(), chi.URLParam(r, "conversationID")); err != nil {
		s.logger.Error("AbandonSession failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListForms handles GET /v1/forms.
func (s *Server) ListForms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.Engine.Catalog().All())
}

// GetForm handles GET /v1/forms/{formID}.
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.Engine.Catalog().ByID(chi.URLParam(r, "formID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, form)
}

// ListDocuments handles GET /v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Engine.Documents(r.Context(), r.URL.Query().Get("conversation_id"))
	if err != nil {
		s.logger.Error("ListDocuments failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, s.logger, http.StatusOK, docs)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":         "concierge-http",
		"version":     s.version,
		"api_version": s.doc.version,
	})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8), errors.Is(err, runner.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrFormNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
