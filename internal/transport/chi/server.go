package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/logview/internal/domain"
	"github.com/kailas-cloud/logview/internal/domain/filter"
	"github.com/kailas-cloud/logview/internal/domain/options"
	logpkg "github.com/kailas-cloud/logview/internal/logger"
	"github.com/kailas-cloud/logview/internal/usecase/export"
	healthuc "github.com/kailas-cloud/logview/internal/usecase/health"
	logsuc "github.com/kailas-cloud/logview/internal/usecase/logs"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the log viewer HTTP API.
type Server struct {
	logs          *logsuc.Service
	exporter      *export.Exporter
	health        *healthuc.Service
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	logs *logsuc.Service,
	exporter *export.Exporter,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		logs:     logs,
		exporter: exporter,
		health:   health,
		metrics:  promhttp.Handler(),
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		backendErrorHandler,
		sentinelHandler(domain.ErrDataViewNotFound, http.StatusNotFound, ErrorResponseCodeDataViewNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, ErrorResponseCodeDocumentNotFound),
		sentinelHandler(domain.ErrInvalidOptions, http.StatusBadRequest, ErrorResponseCodeInvalidOptions),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeInvalidQuery),
		sentinelHandler(domain.ErrEmptySelection, http.StatusBadRequest, ErrorResponseCodeEmptySelection),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/dataviews", s.ListDataViews)
	r.Get("/api/logs", s.SearchLogs)
	r.Get("/api/logs/fields", s.ListFields)
	r.Get("/api/logs/export.json", s.ExportJSON)
	r.Get("/api/logs/export.csv", s.ExportCSV)
	r.Get("/api/logs/documents/{id}", s.DownloadDocument)
	r.Get("/api/logs/documents/{id}/detail", s.DocumentDetail)
	r.Get("/api/query/filter", s.BuildFilter)
	r.Post("/api/selection", s.UpdateSelection)
	r.Get("/api/history", s.ListHistory)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// ListDataViews handles GET /api/dataviews.
func (s *Server) ListDataViews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.logs.DataViews())
}

// SearchLogs handles GET /api/logs. An empty result is a 200 with empty=true.
func (s *Server) SearchLogs(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	view, err := s.logs.Search(r.Context(), opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ListFields handles GET /api/logs/fields.
func (s *Server) ListFields(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	fields, err := s.logs.Fields(r.Context(), opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FieldsResponse{Fields: fields})
}

// ExportJSON handles GET /api/logs/export.json.
func (s *Server) ExportJSON(w http.ResponseWriter, r *http.Request) {
	s.exportBatch(w, r, (*export.Exporter).DownloadJSON)
}

// ExportCSV handles GET /api/logs/export.csv.
func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	s.exportBatch(w, r, (*export.Exporter).DownloadCSV)
}

func (s *Server) exportBatch(
	w http.ResponseWriter, r *http.Request,
	download func(*export.Exporter, context.Context, export.Batch) error,
) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	batch, err := s.logs.Batch(r.Context(), opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := download(s.exporter.WithDownloader(attachment{w: w}), r.Context(), batch); err != nil {
		s.handleDomainError(w, r, err)
	}
}

// DownloadDocument handles GET /api/logs/documents/{id}.
func (s *Server) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	doc, err := s.logs.Document(r.Context(), opts, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if err := s.exporter.WithDownloader(attachment{w: w}).DownloadDocument(r.Context(), doc); err != nil {
		s.handleDomainError(w, r, err)
	}
}

// DocumentDetail handles GET /api/logs/documents/{id}/detail.
func (s *Server) DocumentDetail(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	detail, err := s.logs.Detail(r.Context(), opts, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// BuildFilter handles GET /api/query/filter.
func (s *Server) BuildFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var field, operator string
	var value *string
	if err := runtime.BindQueryParameter("form", true, true, "field", q, &field); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter field: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "operator", q, &operator); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter operator: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "value", q, &value); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter value: "+err.Error())
		return
	}

	op, err := filter.ParseOperator(operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidQuery, err.Error())
		return
	}
	if op != filter.OpExists && value == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Query argument value is required, but not found")
		return
	}

	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	opts, err = s.logs.AddFilter(opts, op, field, deref(value))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FilterResponse{Query: opts.Query, Options: opts})
}

// UpdateSelection handles POST /api/selection.
func (s *Server) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	opts := options.Options{Fields: req.Fields}
	switch req.Action {
	case SelectionToggle:
		if req.Field == "" {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "field is required for toggle")
			return
		}
		opts = s.logs.ToggleField(opts, req.Field)
	case SelectionSwap:
		var err error
		opts, err = s.logs.SwapFields(opts, req.From, req.To)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "action must be toggle or swap")
		return
	}

	fields := opts.Fields
	if fields == nil {
		fields = []string{}
	}
	writeJSON(w, http.StatusOK, FieldsResponse{Fields: fields})
}

// ListHistory handles GET /api/history.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	queries, err := s.logs.History(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if queries == nil {
		queries = []string{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Queries: queries})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request) (options.Options, bool) {
	opts, err := options.Decode(withoutFilterParams(r.URL.Query()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return options.Options{}, false
	}
	return opts, true
}

// withoutFilterParams drops the filter endpoint parameters that are not page options.
func withoutFilterParams(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		switch k {
		case "field", "value", "operator":
			continue
		}
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDataViewNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrInvalidOptions,
		domain.ErrInvalidQuery,
		domain.ErrEmptySelection,
		domain.ErrBackendUnavailable,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// backendErrorHandler maps failed fetches to 502, passing the backend's message through.
func backendErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		return false
	}
	var be *domain.BackendError
	if errors.As(err, &be) && be.Message != "" {
		msg = be.Message
	}
	writeError(w, http.StatusBadGateway, ErrorResponseCodeBackendUnavailable, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
