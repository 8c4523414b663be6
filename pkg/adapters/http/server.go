// Package http exposes the research service over HTTP using chi.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/runs"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps request bodies before JSON decoding.
const maxBodyBytes = 64 << 10

// Server holds the collaborators behind the HTTP surface.
type Server struct {
	service  ports.Service
	runs     *runs.Manager
	metrics  http.Handler
	logger   *slog.Logger
	maxTopic int
	spec     *openapi3.T
}

// Option configures the Server.
type Option func(*Server)

// WithRunManager enables the /runs endpoints.
func WithRunManager(m *runs.Manager) Option {
	return func(s *Server) {
		s.runs = m
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxTopicLength bounds accepted topics, in bytes.
func WithMaxTopicLength(n int) Option {
	return func(s *Server) {
		s.maxTopic = n
	}
}

// NewHandler creates the HTTP handler for the research service.
func NewHandler(service ports.Service, opts ...Option) (http.Handler, error) {
	spec, err := loadSpec()
	if err != nil {
		return nil, err
	}

	s := &Server{
		service:  service,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		maxTopic: domain.DefaultMaxTopicLength,
		spec:     spec,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/graph", s.GetGraph)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.MaxBytesHandler(next, maxBodyBytes)
		})
		r.With(s.validateRequest).Post("/research", s.PostResearch)

		if s.runs != nil {
			r.With(s.validateRequest).Get("/runs", s.ListRuns)
			r.With(s.validateRequest).Get("/runs/{id}", s.GetRun)
			r.With(s.validateRequest).Delete("/runs/{id}", s.DeleteRun)
			r.With(s.validateRequest).Post("/runs/{id}/resume", s.ResumeRun)
		}
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type researchRequest struct {
	Topic *string `json:"topic"`
}

type researchResponse struct {
	RequestID string            `json:"request_id"`
	Topic     string            `json:"topic"`
	Result    domain.Projection `json:"result"`
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

// writeRunError maps a failed run to the 500 body. The partial report, when
// present, provides the request id for a later resume.
func (s *Server) writeRunError(w http.ResponseWriter, report *domain.Report, err error) {
	body := errorBody{Error: "Internal server error", Message: err.Error()}
	if report != nil {
		body.RequestID = report.RequestID
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// PostResearch handles POST /research.
func (s *Server) PostResearch(w http.ResponseWriter, r *http.Request) {
	var body researchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if body.Topic == nil || strings.TrimSpace(*body.Topic) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing required field: topic"})
		return
	}

	topic, err := domain.SanitizeTopic(*body.Topic, s.maxTopic)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid topic", Message: err.Error()})
		return
	}

	report, err := s.service.Research(r.Context(), topic)
	if err != nil {
		s.logger.Error("research failed", "topic", topic, "err", err)
		s.writeRunError(w, report, err)
		return
	}

	writeJSON(w, http.StatusOK, researchResponse{
		RequestID: report.RequestID,
		Topic:     topic,
		Result:    report.Result,
	})
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.runs.List(r.Context())
	if err != nil {
		s.logger.Error("list runs failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error", Message: err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.runs.Load(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.runs.Delete(r.Context(), id); err != nil {
		s.writeLookupError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResumeRun handles POST /runs/{id}/resume.
func (s *Server) ResumeRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.runs.Resume(r.Context(), id, s.service)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, researchResponse{
			RequestID: report.RequestID,
			Topic:     report.State.Topic,
			Result:    report.Result,
		})
	case errors.Is(err, runs.ErrRunCompleted):
		writeJSON(w, http.StatusConflict, errorBody{Error: "Run already completed", RequestID: id})
	case report != nil:
		s.logger.Error("resume failed", "request_id", id, "err", err)
		s.writeRunError(w, report, err)
	default:
		s.writeLookupError(w, id, err)
	}
}

func (s *Server) writeLookupError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Run not found", RequestID: id})
	case errors.Is(err, runs.ErrSealed):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "Run is encrypted", RequestID: id})
	default:
		s.logger.Error("run lookup failed", "request_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error", Message: err.Error()})
	}
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.service.Steps(), nil))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
