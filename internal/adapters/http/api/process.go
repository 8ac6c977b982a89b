package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	service "github.com/okian/gridlake/internal/app"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

// processRequest mirrors the OpenAPI schema for POST /process.
type processRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Page      *int   `json:"page,omitempty"`
	PageSize  *int   `json:"page_size,omitempty"`
}

// dateRange validates the dates before anything touches the network.
func (p processRequest) dateRange() (model.DateRange, error) {
	if p.StartDate == "" || p.EndDate == "" {
		return model.DateRange{}, fmt.Errorf("start_date and end_date are required")
	}
	return model.ParseDateRange(p.StartDate, p.EndDate)
}

func (p processRequest) paging(defaultSize int) (page, size int) {
	page, size = 1, defaultSize
	if p.Page != nil {
		page = *p.Page
	}
	if p.PageSize != nil {
		size = *p.PageSize
	}
	return page, size
}

type processResponse struct {
	Message          string      `json:"message"`
	RunID            string      `json:"run_id"`
	TotalRecordCount int         `json:"total_record_count"`
	TotalPages       int         `json:"total_pages"`
	CurrentPage      int         `json:"current_page"`
	PageSize         int         `json:"page_size"`
	UploadedFiles    []string    `json:"uploaded_files"`
	Data             []model.Row `json:"data"`
}

// recordsResponse is the unpaged reply of POST /process/records.
type recordsResponse struct {
	Message          string      `json:"message"`
	RunID            string      `json:"run_id"`
	TotalRecordCount int         `json:"total_record_count"`
	UploadedFiles    []string    `json:"uploaded_files"`
	Data             []model.Row `json:"data"`
}

// decodeProcessRequest reads and validates the request body.
func decodeProcessRequest(r *http.Request, op string) (processRequest, model.DateRange, error) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, model.DateRange{}, WrapKind(op, ErrBadRequest, err)
	}
	rng, err := req.dateRange()
	if err != nil {
		return req, model.DateRange{}, WrapKind(op, ErrBadRequest, err)
	}
	return req, rng, nil
}

// ProcessHandler handles pipeline requests.
type ProcessHandler struct {
	pipeline        Pipeline
	defaultPageSize int
	maxPageSize     int
	logger          logger.Logger
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(p Pipeline, cfg serverConfig) *ProcessHandler {
	return &ProcessHandler{
		pipeline:        p,
		defaultPageSize: cfg.defaultPageSize,
		maxPageSize:     cfg.maxPageSize,
		logger:          cfg.logger,
	}
}

// HandleProcess handles POST /process requests.
func (h *ProcessHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	const op = "api.process"
	ctx := r.Context()
	if r.Method != http.MethodPost {
		fail(ctx, w, h.logger, NewKind(op, ErrMethodNotAllowed))
		return
	}
	req, rng, err := decodeProcessRequest(r, op)
	if err != nil {
		fail(ctx, w, h.logger, err)
		return
	}
	page, size := req.paging(h.defaultPageSize)
	limit, err := service.PreviewLimit(page, size, h.maxPageSize)
	if err != nil {
		fail(ctx, w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.pipeline.Run(ctx, rng, limit)
	if err != nil {
		fail(ctx, w, h.logger, Wrap(op, err))
		return
	}

	p := service.Paginate(res.PreviewRecords, res.TotalRecordCount, page, size)
	writeJSON(w, http.StatusOK, processResponse{
		Message:          summaryMessage(res),
		RunID:            res.RunID,
		TotalRecordCount: res.TotalRecordCount,
		TotalPages:       p.TotalPages,
		CurrentPage:      p.CurrentPage,
		PageSize:         p.PageSize,
		UploadedFiles:    res.UploadedSinks,
		Data:             p.Data,
	})
}

// HandleRecords handles POST /process/records: one pipeline run answered with every
// record. Paging fields are ignored.
func (h *ProcessHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.records"
	ctx := r.Context()
	if r.Method != http.MethodPost {
		fail(ctx, w, h.logger, NewKind(op, ErrMethodNotAllowed))
		return
	}
	_, rng, err := decodeProcessRequest(r, op)
	if err != nil {
		fail(ctx, w, h.logger, err)
		return
	}

	res, err := h.pipeline.Run(ctx, rng, service.Unbounded)
	if err != nil {
		fail(ctx, w, h.logger, Wrap(op, err))
		return
	}

	data := res.PreviewRecords
	if data == nil {
		data = []model.Row{}
	}
	writeJSON(w, http.StatusOK, recordsResponse{
		Message:          summaryMessage(res),
		RunID:            res.RunID,
		TotalRecordCount: res.TotalRecordCount,
		UploadedFiles:    res.UploadedSinks,
		Data:             data,
	})
}

func summaryMessage(res model.PipelineResult) string {
	if len(res.UploadedSinks) == 0 {
		return fmt.Sprintf("Processed %d records; no files were uploaded.", res.TotalRecordCount)
	}
	return fmt.Sprintf("Processed %d records and uploaded %d files.", res.TotalRecordCount, len(res.UploadedSinks))
}
