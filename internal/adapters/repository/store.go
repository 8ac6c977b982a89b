// Package repository keeps the ledger of pipeline runs.
package repository

import (
	"context"
	"time"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusFailed  = "failed"
)

// Run is one pipeline invocation. Only counters are kept, never records.
type Run struct {
	ID            string     `json:"id"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Status        string     `json:"status"`
	Resources     int        `json:"resources"`
	Failed        int        `json:"failed"`
	TotalRecords  int        `json:"total_records"`
	UploadedFiles []string   `json:"uploaded_files"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Summary is what a finished run records.
type Summary struct {
	Status        string
	Resources     int
	Failed        int
	TotalRecords  int
	UploadedFiles []string
	Error         string
	FinishedAt    time.Time
}

// Store provides read/write access to the run ledger.
type Store interface {
	// Begin records a new run in the running state.
	Begin(ctx context.Context, run Run) error

	// Finish stores the summary of a run. Returns ErrNotFound for unknown ids.
	Finish(ctx context.Context, id string, s Summary) error

	// Get returns one run. Returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Run, error)

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]Run, error)

	Close() error
}
