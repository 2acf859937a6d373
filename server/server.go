// Package server provides the HTTP ingress for the review pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dshills/reviewflow/workflow"
)

const defaultMaxBodyBytes = 1 << 20

// ReviewRunner executes one review request. *workflow.Pipeline satisfies it.
type ReviewRunner interface {
	Run(ctx context.Context, runID, code string) (workflow.Result, error)
}

// Options configures the HTTP server.
type Options struct {
	// AllowOrigin is the CORS origin allowed to call the API. Empty
	// disables CORS headers.
	AllowOrigin string

	// MaxBodyBytes bounds the request body. Zero means 1 MiB.
	MaxBodyBytes int64
}

// Server routes review requests to the pipeline and exposes health and
// metrics endpoints.
type Server struct {
	router  chi.Router
	runner  ReviewRunner
	metrics http.Handler
	opts    Options
}

// New creates a Server. metricsHandler serves GET /metrics and may be nil to
// omit the endpoint.
func New(runner ReviewRunner, metricsHandler http.Handler, opts Options) (*Server, error) {
	if runner == nil {
		return nil, errors.New("server: review runner cannot be nil")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		runner:  runner,
		metrics: metricsHandler,
		opts:    opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.AllowOrigin != "" {
		r.Use(corsMiddleware(opts.AllowOrigin))
	}

	r.Post("/review", s.handleReview)
	r.Get("/healthz", s.handleHealth)
	if metricsHandler != nil {
		r.Get("/metrics", metricsHandler.ServeHTTP)
	}

	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type reviewRequest struct {
	Code string `json:"code"`
}

type reviewResponse struct {
	Analysis string   `json:"analysis"`
	Issues   []string `json:"issues"`
	Report   string   `json:"report"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &workflow.Error{
			Code:    workflow.CodeValidation,
			Message: "request body must be JSON with a code field",
		})
		return
	}

	runID := uuid.NewString()
	result, err := s.runner.Run(r.Context(), runID, req.Code)
	if err != nil {
		var werr *workflow.Error
		if errors.As(err, &werr) {
			writeError(w, werr)
			return
		}
		writeError(w, &workflow.Error{
			Code:    workflow.CodeInternal,
			Message: "review failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, reviewResponse{
		Analysis: result.Analysis,
		Issues:   result.Issues,
		Report:   result.Report,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusForCode maps the pipeline's error taxonomy to HTTP statuses.
func statusForCode(code workflow.Code) int {
	switch code {
	case workflow.CodeValidation:
		return http.StatusBadRequest
	case workflow.CodeInferenceTimeout:
		return http.StatusGatewayTimeout
	case workflow.CodeInferenceUnavailable, workflow.CodeMalformedOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders the stable error body. Only the taxonomy's code, stage,
// and message are exposed, never causes or raw model output.
func writeError(w http.ResponseWriter, werr *workflow.Error) {
	writeJSON(w, statusForCode(werr.Code), errorBody{
		Error: errorDetail{
			Code:    string(werr.Code),
			Stage:   werr.Stage,
			Message: werr.Message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// corsMiddleware allows the configured UI origin to call the API.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
