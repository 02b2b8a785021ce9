// Package chi exposes the query pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/askdb/askdb/internal/domain"
	healthuc "github.com/askdb/askdb/internal/usecase/health"
)

// ErrorCode classifies error responses for clients.
type ErrorCode string

const (
	CodeBadRequest      ErrorCode = "bad_request"
	CodeUnsafeQuery     ErrorCode = "unsafe_query"
	CodeNoSchemaContext ErrorCode = "no_schema_context"
	CodeIndexNotReady   ErrorCode = "index_not_ready"
	CodeUpstreamError   ErrorCode = "upstream_error"
	CodeInternalError   ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the POST /query body.
type QueryRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id,omitempty"`
}

// QueryResponse is the POST /query success body.
type QueryResponse struct {
	SQL  string       `json:"sql"`
	Rows []domain.Row `json:"rows"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Answerer runs the question-to-answer pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) (domain.Answer, error)
}

// Server holds the HTTP handlers.
type Server struct {
	query  Answerer
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(query Answerer, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{query: query, health: health, logger: logger}
}

// Routes registers all endpoints on a fresh router.
func (s *Server) Routes() chirouter.Router {
	r := chirouter.NewRouter()
	r.Post("/query", s.handleQuery)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	return r
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "question is required")
		return
	}

	answer, err := s.query.Answer(r.Context(), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{SQL: answer.SQL, Rows: answer.Rows})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("query pipeline error", zap.Error(err))

	var unsafeErr *domain.UnsafeQueryError
	switch {
	case errors.As(err, &unsafeErr):
		writeError(w, http.StatusBadRequest, CodeUnsafeQuery,
			"generated SQL rejected: "+unsafeErr.Reason)
	case errors.Is(err, domain.ErrNoSchemaContext):
		writeError(w, http.StatusUnprocessableEntity, CodeNoSchemaContext,
			domain.ErrNoSchemaContext.Error())
	case errors.Is(err, domain.ErrIndexNotReady), errors.Is(err, domain.ErrIndexNotFound),
		errors.Is(err, domain.ErrRetrievalUnavailable):
		writeError(w, http.StatusServiceUnavailable, CodeIndexNotReady,
			domain.ErrRetrievalUnavailable.Error())
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrGenerationFailed),
		errors.Is(err, domain.ErrExecutionFailed):
		writeError(w, http.StatusBadGateway, CodeUpstreamError, safeDomainMessage(err))
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrProviderUnavailable,
		domain.ErrGenerationFailed,
		domain.ErrExecutionFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
