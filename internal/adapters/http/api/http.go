// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gridlake/internal/adapters/repository"
	service "github.com/okian/gridlake/internal/app"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// Pipeline runs one extraction for a date range.
type Pipeline interface {
	Run(ctx context.Context, rng model.DateRange, previewLimit int) (model.PipelineResult, error)
}

// RunLedger exposes past pipeline runs.
type RunLedger interface {
	Runs(ctx context.Context, limit int) ([]repository.Run, error)
	RunByID(ctx context.Context, id string) (repository.Run, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Pipeline
	RunLedger
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	processHandler *ProcessHandler
	exportHandler  *ExportHandler
	runsHandler    *RunsHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	defaultPageSize int
	maxPageSize     int
	logger          logger.Logger
}

// WithPageSizes sets the page size used when a request omits one and the largest accepted.
func WithPageSizes(def, limit int) Option {
	return func(c *serverConfig) {
		if def > 0 {
			c.defaultPageSize = def
		}
		if limit > 0 {
			c.maxPageSize = limit
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		processHandler: NewProcessHandler(deps, cfg),
		exportHandler:  NewExportHandler(deps, cfg.logger),
		runsHandler:    NewRunsHandler(deps, cfg.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/livez", MetricsMiddleware(s.healthHandler.HandleLive, "livez"))
	mux.HandleFunc("/process/export", MetricsMiddleware(s.exportHandler.HandleExport, "process_export"))
	mux.HandleFunc("/process/records", MetricsMiddleware(s.processHandler.HandleRecords, "process_records"))
	mux.HandleFunc("/process", MetricsMiddleware(s.processHandler.HandleProcess, "process"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandleGetRun, "run"))
	mux.HandleFunc("/runs", MetricsMiddleware(s.runsHandler.HandleListRuns, "runs"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps a handler error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidDate),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidPage),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNoResources), errors.Is(err, service.ErrEmptyResult):
		return http.StatusNotFound, "no_data"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not_configured"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its classified status. Server-side faults are logged.
func fail(ctx context.Context, w http.ResponseWriter, l logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, err)
}
