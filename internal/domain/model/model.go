// Package model contains domain models passed between layers.
package model

import (
	"path"
	"strings"
	"time"
)

// Format is the published representation of a resource.
type Format string

// Known resource formats.
const (
	FormatCSV     Format = "CSV"
	FormatParquet Format = "PARQUET"
)

// ParseFormat normalizes a catalog format label. Unknown labels are kept as-is (upper-cased).
func ParseFormat(s string) Format {
	return Format(strings.ToUpper(strings.TrimSpace(s)))
}

// Rank orders formats by preference: binary over textual, anything else is unusable.
func (f Format) Rank() int {
	switch f {
	case FormatParquet:
		return 2
	case FormatCSV:
		return 1
	default:
		return 0
	}
}

// ResourceDescriptor is one downloadable artifact listed by the catalog.
type ResourceDescriptor struct {
	ID           string
	Name         string
	URL          string
	Format       Format
	InferredYear int // 0 when no year could be derived from the file name
}

// HasYear reports whether a year was inferred from the file name.
func (d ResourceDescriptor) HasYear() bool { return d.InferredYear != 0 }

// FileName returns the basename of the URL path, falling back to Name.
func (d ResourceDescriptor) FileName() string {
	u := d.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if base := path.Base(u); base != "" && base != "." && base != "/" {
		return base
	}
	return d.Name
}

// Stem returns the file name without its extension.
func (d ResourceDescriptor) Stem() string {
	name := d.FileName()
	return strings.TrimSuffix(name, path.Ext(name))
}

// YearSelection maps a calendar year to the single resource chosen for it.
type YearSelection map[int]ResourceDescriptor

// Ordered returns the selected descriptors ascending by year.
func (s YearSelection) Ordered() []ResourceDescriptor {
	years := make([]int, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sortInts(years)
	out := make([]ResourceDescriptor, 0, len(years))
	for _, y := range years {
		out = append(out, s[y])
	}
	return out
}

// PipelineResult summarizes one pipeline invocation.
type PipelineResult struct {
	RunID            string
	UploadedSinks    []string
	TotalRecordCount int
	PreviewRecords   []Row
	Resources        int
	Failed           int
	StartedAt        time.Time
	FinishedAt       time.Time
}
