package service

import (
	"fmt"
	"math"

	"github.com/okian/gridlake/internal/domain/model"
)

// Page is one slice of a pipeline result.
type Page struct {
	TotalPages  int
	CurrentPage int
	PageSize    int
	Data        []model.Row
}

// PreviewLimit returns how many records must be kept to serve page, rejecting invalid input.
func PreviewLimit(page, pageSize, maxPageSize int) (int, error) {
	if page < 1 {
		return 0, fmt.Errorf("%w: page must be >= 1", ErrInvalidPage)
	}
	if pageSize < 1 || (maxPageSize > 0 && pageSize > maxPageSize) {
		return 0, fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidPage, maxPageSize)
	}
	if page > math.MaxInt32/pageSize {
		return 0, fmt.Errorf("%w: page too large", ErrInvalidPage)
	}
	return page * pageSize, nil
}

// Paginate cuts page out of records, which must hold at least the first page*pageSize records
// of a result of total records. A page past the end is empty.
func Paginate(records []model.Row, total, page, pageSize int) Page {
	p := Page{
		TotalPages:  (total + pageSize - 1) / pageSize,
		CurrentPage: page,
		PageSize:    pageSize,
		Data:        []model.Row{},
	}
	start := (page - 1) * pageSize
	if start >= len(records) {
		return p
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	p.Data = records[start:end]
	return p
}
