package backfill

import (
	"encoding/json"
	"time"

	"github.com/okian/gridlake/internal/domain/model"
)

// Config holds configuration for a backfill.
type Config struct {
	BaseURL    string          // Base URL of the service
	Range      model.DateRange // Whole period to backfill
	Workers    int             // Number of concurrent year windows
	Timeout    time.Duration   // HTTP request timeout
	OutputFile string          // Optional JSON-lines file receiving every record
	Verbose    bool            // Log every window request
}

// recordsRequest mirrors the POST /process/records body.
type recordsRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// recordsResponse mirrors the POST /process/records reply. Records are kept raw so they
// can be written out without reinterpreting their values.
type recordsResponse struct {
	Message          string            `json:"message"`
	RunID            string            `json:"run_id"`
	TotalRecordCount int               `json:"total_record_count"`
	UploadedFiles    []string          `json:"uploaded_files"`
	Data             []json.RawMessage `json:"data"`
}

// WindowResult is the outcome of one year window.
type WindowResult struct {
	Window        model.DateRange
	RunID         string
	Records       int
	UploadedFiles []string
	Empty         bool
	Err           error
}

// Stats holds backfill statistics.
type Stats struct {
	Windows       int
	Succeeded     int
	Empty         int
	Failed        int
	Records       int
	UploadedFiles int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
