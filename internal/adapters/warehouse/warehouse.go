// Package warehouse appends landed tables to a Postgres table.
package warehouse

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/metrics"
)

// Bookkeeping columns prepended to every copied row.
var metaColumns = []string{"source_uri", "run_id", "loaded_at"}

// DB is the subset of a pgx pool or connection used by the loader.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return pool, nil
}

// Loader appends jobs to one destination table whose text columns are added on demand.
type Loader struct {
	db    DB
	table pgx.Identifier
	now   func() time.Time

	mu      sync.Mutex
	created bool
	known   map[string]bool
}

// NewLoader creates a loader for table, which may be schema-qualified ("raw.ear_diario").
func NewLoader(db DB, table string) *Loader {
	return &Loader{
		db:    db,
		table: pgx.Identifier(strings.Split(table, ".")),
		now:   time.Now,
		known: make(map[string]bool),
	}
}

// Load creates the table and any missing columns, then copies the job rows.
func (l *Loader) Load(ctx context.Context, job model.LoadJob) error {
	columns := dataColumns(job.Columns)
	if err := l.ensureSchema(ctx, columns); err != nil {
		metrics.RecordWarehouseLoad("error")
		return err
	}

	loadedAt := l.now().UTC()
	rows := make([][]any, len(job.Rows))
	for i, r := range job.Rows {
		row := make([]any, 0, len(metaColumns)+len(columns))
		row = append(row, job.SinkURI, job.RunID, loadedAt)
		for _, c := range columns {
			v, _ := r.Get(c)
			if v.IsNull() {
				row = append(row, nil)
				continue
			}
			row = append(row, v.Text())
		}
		rows[i] = row
	}

	cols := append(append([]string{}, metaColumns...), columns...)
	n, err := l.db.CopyFrom(ctx, l.table, cols, pgx.CopyFromRows(rows))
	if err != nil {
		metrics.RecordWarehouseLoad("error")
		return fmt.Errorf("%w: %v", ErrCopy, err)
	}
	metrics.RecordWarehouseLoad("ok")
	metrics.RecordWarehouseRows(int(n))
	return nil
}

func (l *Loader) ensureSchema(ctx context.Context, columns []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	table := l.table.Sanitize()
	if !l.created {
		ddl := "CREATE TABLE IF NOT EXISTS " + table +
			" (source_uri text NOT NULL, run_id text NOT NULL, loaded_at timestamptz NOT NULL)"
		if _, err := l.db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrSchema, table, err)
		}
		l.created = true
		for _, c := range metaColumns {
			l.known[c] = true
		}
	}
	for _, c := range columns {
		if l.known[c] {
			continue
		}
		ddl := "ALTER TABLE " + table + " ADD COLUMN IF NOT EXISTS " + pgx.Identifier{c}.Sanitize() + " text"
		if _, err := l.db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("%w: add column %s: %v", ErrSchema, c, err)
		}
		l.known[c] = true
	}
	return nil
}

// dataColumns drops names that collide with the bookkeeping columns.
func dataColumns(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		meta := false
		for _, m := range metaColumns {
			if c == m {
				meta = true
				break
			}
		}
		if !meta {
			out = append(out, c)
		}
	}
	return out
}
