package api

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	service "github.com/okian/gridlake/internal/app"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet     = "EAR"
)

// ExportHandler streams a full pipeline result as a workbook.
type ExportHandler struct {
	pipeline Pipeline
	logger   logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(p Pipeline, l logger.Logger) *ExportHandler {
	return &ExportHandler{pipeline: p, logger: l}
}

// HandleExport handles POST /process/export requests. Paging fields are ignored.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
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

	f, err := BuildWorkbook(res.PreviewRecords)
	if err != nil {
		fail(ctx, w, h.logger, WrapKind(op, ErrEncode, err))
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ear_%s_%s.xlsx"`,
		rng.Start.Format("20060102"), rng.End.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		h.logger.Error(ctx, "workbook write failed", logger.Error(err))
	}
}

// BuildWorkbook lays records out on one sheet: a header row with every column in
// first-seen order, then one row per record. Nulls become empty cells.
func BuildWorkbook(records []model.Row) (*excelize.File, error) {
	var columns []string
	index := make(map[string]int)
	for _, r := range records {
		for _, c := range r.Columns {
			if _, ok := index[c]; !ok {
				index[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		_ = f.Close()
		return nil, err
	}
	for n, r := range records {
		cells := make([]interface{}, len(columns))
		for i, c := range r.Columns {
			cells[index[c]] = r.Values[i].Interface()
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
