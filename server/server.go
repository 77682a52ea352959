// Package server exposes the enrichment pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/prospect/enrich"
	"github.com/c360studio/prospect/enrich/weburl"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// User-visible error messages. These are part of the API contract.
const (
	msgWebsiteRequired   = "Website is required"
	msgInvalidURL        = "Invalid website URL"
	msgUnsupportedScheme = "Only http/https URLs are supported"
	msgMissingCredential = "Missing completion API key"
	msgInternalError     = "Unable to enrich this company right now. Please try again."
)

// ResultPublisher receives successful enrichment results. Publishing is
// fire-and-forget; failures never affect the response.
type ResultPublisher interface {
	PublishResult(ctx context.Context, website string, result *enrich.Result) error
}

// Server handles enrichment HTTP requests.
type Server struct {
	pipeline  *enrich.Pipeline
	publisher ResultPublisher
	logger    *slog.Logger
	metrics   *Metrics
}

// New creates an HTTP server around the pipeline. publisher may be nil.
func New(pipeline *enrich.Pipeline, publisher ResultPublisher, logger *slog.Logger, reg prometheus.Registerer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Server{
		pipeline:  pipeline,
		publisher: publisher,
		logger:    logger,
		metrics:   NewMetrics(reg),
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/enrich", s.handleEnrich)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// enrichRequest is the JSON request body for POST /api/enrich. Website is
// decoded loosely so a non-string value maps to the required-field error
// rather than a generic decode failure.
type enrichRequest struct {
	Website any `json:"website"`
}

// enrichResponse is the JSON response for a successful enrichment.
type enrichResponse struct {
	Result enrich.Result `json:"result"`
}

// errorResponse is the standard error response.
type errorResponse struct {
	Error string `json:"error"`
}

// handleEnrich handles POST /api/enrich.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	status := http.StatusOK
	defer func() {
		s.metrics.Observe(status, time.Since(start))
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeJSONError(w, status, msgWebsiteRequired)
		return
	}

	website, ok := req.Website.(string)
	if !ok {
		status = http.StatusBadRequest
		writeJSONError(w, status, msgWebsiteRequired)
		return
	}

	result, err := s.pipeline.Run(r.Context(), website)
	if err != nil {
		var msg string
		status, msg = classifyError(err)
		if status == http.StatusInternalServerError {
			// Full detail stays server-side; the caller gets a generic
			// message.
			s.logger.Error("Enrichment failed", "website", website, "error", err)
		}
		writeJSONError(w, status, msg)
		return
	}

	s.publish(r.Context(), website, &result)

	writeJSON(w, http.StatusOK, enrichResponse{Result: result})
}

// classifyError maps pipeline errors to the HTTP contract.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, weburl.ErrWebsiteRequired):
		return http.StatusBadRequest, msgWebsiteRequired
	case errors.Is(err, weburl.ErrInvalidURL):
		return http.StatusBadRequest, msgInvalidURL
	case errors.Is(err, weburl.ErrUnsupportedScheme):
		return http.StatusBadRequest, msgUnsupportedScheme
	case errors.Is(err, enrich.ErrMissingCredential):
		return http.StatusInternalServerError, msgMissingCredential
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}

// publish notifies downstream consumers of a completed enrichment. Failures
// are logged and dropped.
func (s *Server) publish(ctx context.Context, website string, result *enrich.Result) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResult(ctx, website, result); err != nil {
		s.logger.Warn("Result event publish failed", "website", website, "error", err)
	}
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
