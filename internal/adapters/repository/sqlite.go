package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/okian/gridlake/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	start_date     TEXT NOT NULL,
	end_date       TEXT NOT NULL,
	status         TEXT NOT NULL,
	resources      INTEGER NOT NULL DEFAULT 0,
	failed         INTEGER NOT NULL DEFAULT 0,
	total_records  INTEGER NOT NULL DEFAULT 0,
	uploaded_files TEXT NOT NULL DEFAULT '[]',
	error          TEXT NOT NULL DEFAULT '',
	started_at     TEXT NOT NULL,
	finished_at    TEXT
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// fixed width so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectRun = `SELECT id, start_date, end_date, status, resources, failed, total_records,
	uploaded_files, error, started_at, finished_at FROM runs`

// SQLiteStore implements Store on a sqlite database file.
type SQLiteStore struct {
	db       *sql.DB
	maxLimit int
}

// OpenSQLite opens (creating when needed) the ledger at path. ":memory:" gives a private in-memory ledger.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	// sqlite serializes writers; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	s := &SQLiteStore{db: db, maxLimit: defaultMaxListLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Begin records a new run.
func (s *SQLiteStore) Begin(ctx context.Context, run Run) error {
	files, err := json.Marshal(nonNil(run.UploadedFiles))
	if err != nil {
		return err
	}
	status := run.Status
	if status == "" {
		status = StatusRunning
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, start_date, end_date, status, uploaded_files, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartDate, run.EndDate, status, string(files), formatTime(run.StartedAt))
	if err != nil {
		metrics.RecordLedgerError("begin")
		return fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	return nil
}

// Finish stores the summary of a run.
func (s *SQLiteStore) Finish(ctx context.Context, id string, sum Summary) error {
	files, err := json.Marshal(nonNil(sum.UploadedFiles))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, resources = ?, failed = ?, total_records = ?, uploaded_files = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		sum.Status, sum.Resources, sum.Failed, sum.TotalRecords, string(files), sum.Error, formatTime(sum.FinishedAt), id)
	if err != nil {
		metrics.RecordLedgerError("finish")
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one run.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordLedgerError("get")
		return Run{}, err
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > s.maxLimit {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		metrics.RecordLedgerError("list")
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r        Run
		files    string
		started  string
		finished sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.StartDate, &r.EndDate, &r.Status, &r.Resources, &r.Failed, &r.TotalRecords,
		&files, &r.Error, &started, &finished); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(files), &r.UploadedFiles); err != nil {
		return Run{}, fmt.Errorf("decode uploaded files of %s: %w", r.ID, err)
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return Run{}, err
	}
	r.StartedAt = t
	if finished.Valid {
		ft, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return Run{}, err
		}
		r.FinishedAt = &ft
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
