package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ebrains-kg/kgsearch/internal/domain"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/request"
	"github.com/ebrains-kg/kgsearch/internal/domain/search/result"
	"github.com/ebrains-kg/kgsearch/internal/logger"
	healthuc "github.com/ebrains-kg/kgsearch/internal/usecase/health"
	searchuc "github.com/ebrains-kg/kgsearch/internal/usecase/search"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeUnknownType        ErrorCode = "unknown_type"
	CodeUnknownFacet       ErrorCode = "unknown_facet"
	CodeBackendUnavailable ErrorCode = "backend_unavailable"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the error body of every failed request.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search API.
type Server struct {
	search          *searchuc.Service
	health          *healthuc.Service
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	errorHandlers   []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:          search,
		health:          health,
		logger:          logger,
		defaultPageSize: request.DefaultSize,
		maxPageSize:     request.MaxSize,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownType, http.StatusBadRequest, CodeUnknownType),
		sentinelHandler(domain.ErrUnknownFacet, http.StatusBadRequest, CodeUnknownFacet),
		sentinelHandler(domain.ErrInvalidState, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, CodeBackendUnavailable),
	}
	return s
}

// WithPagination sets the default and maximum page size.
func (s *Server) WithPagination(defaultSize, maxSize int) *Server {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/payload", s.Payload)
		r.Post("/query/sanitize", s.Sanitize)
		r.Get("/definition", s.Definition)
	})
}

// selection accepts a facet value as a string, a list of strings, a boolean
// or null.
type selection []string

func (v *selection) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = list
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*v = selection{one}
		return nil
	}
	var flag bool
	if err := json.Unmarshal(data, &flag); err != nil {
		return errors.New("facet value must be a string, a list of strings or a boolean")
	}
	if flag {
		*v = selection{"true"}
	} else {
		*v = selection{"false"}
	}
	return nil
}

// SearchRequest is the body of the search and payload endpoints.
type SearchRequest struct {
	Q      string               `json:"q"`
	Type   string               `json:"type,omitempty"`
	From   int                  `json:"from,omitempty"`
	Size   int                  `json:"size,omitempty"`
	Sort   string               `json:"sort,omitempty"`
	Facets map[string]selection `json:"facets,omitempty"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	result.Response
	From int `json:"from"`
	Size int `json:"size"`
}

// SanitizeRequest is the body of the sanitize endpoint.
type SanitizeRequest struct {
	Q string `json:"q"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Response: resp, From: req.From(), Size: req.Size()})
}

// Payload handles POST /api/search/payload.
func (s *Server) Payload(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}

	p, err := s.search.Payload(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Sanitize handles POST /api/query/sanitize.
func (s *Server) Sanitize(w http.ResponseWriter, r *http.Request) {
	var body SanitizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(body.Q) > request.MaxQueryLength {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query too long")
		return
	}

	writeJSON(w, http.StatusOK, s.search.Sanitize(r.Context(), body.Q))
}

// Definition handles GET /api/definition.
func (s *Server) Definition(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.search.Definition())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (request.Request, bool) {
	var body SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return request.Request{}, false
	}

	size := body.Size
	if size == 0 {
		size = s.defaultPageSize
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}

	selections := make(map[string][]string, len(body.Facets))
	for id, v := range body.Facets {
		selections[id] = v
	}

	req, err := request.New(body.Q, body.Type, selections, body.Sort, body.From, size)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return request.Request{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client message without exposing internals.
// Validation errors carry the offending value; backend errors only the sentinel.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrUnknownType, domain.ErrUnknownFacet, domain.ErrInvalidState} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	if errors.Is(err, domain.ErrBackendUnavailable) {
		return domain.ErrBackendUnavailable.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
