package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/okian/gridlake/internal/adapters/sink"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/internal/domain/normalize"
	"github.com/okian/gridlake/pkg/logger"
	"github.com/okian/gridlake/pkg/metrics"
)

// Downloader fetches a resource body.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Codec decodes resource bodies and encodes landed artifacts.
type Codec interface {
	Decode(format model.Format, body []byte) (*model.Table, error)
	EncodeParquet(w io.Writer, t *model.Table) error
}

// Unit downloads, parses, normalizes and optionally lands a single resource.
type Unit struct {
	downloader Downloader
	codec      Codec
	sink       sink.Sink
	sinkPrefix string
	dateColumn string
	now        func() time.Time
	logger     logger.Logger
}

// UnitOption applies a configuration option to the Unit.
type UnitOption func(*Unit)

// WithSink lands every non-empty table in s under prefix.
func WithSink(s sink.Sink, prefix string) UnitOption {
	return func(u *Unit) {
		u.sink = s
		u.sinkPrefix = prefix
	}
}

// WithDateColumn overrides the reference-date column.
func WithDateColumn(name string) UnitOption {
	return func(u *Unit) {
		if name != "" {
			u.dateColumn = name
		}
	}
}

// WithUnitClock overrides the ingestion clock used in object keys.
func WithUnitClock(now func() time.Time) UnitOption {
	return func(u *Unit) {
		if now != nil {
			u.now = now
		}
	}
}

// WithUnitLogger sets a custom logger.
func WithUnitLogger(l logger.Logger) UnitOption {
	return func(u *Unit) {
		if l != nil {
			u.logger = l
		}
	}
}

// NewUnit creates a Unit.
func NewUnit(d Downloader, c Codec, opts ...UnitOption) *Unit {
	u := &Unit{
		downloader: d,
		codec:      c,
		dateColumn: normalize.DefaultDateColumn,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = logger.Get().Named("unit")
	}
	return u
}

// Process turns one descriptor into an outcome. Every failure, panics included,
// is confined to the returned outcome.
func (u *Unit) Process(ctx context.Context, d model.ResourceDescriptor, rng model.DateRange) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error(ctx, "resource processing panicked",
				logger.String("resource_id", d.ID),
				logger.Any("panic", r),
			)
			out = model.Failed(d, fmt.Errorf("%w: %v", ErrUnitPanic, r))
		}
	}()

	body, err := u.downloader.Download(ctx, d.URL)
	if err != nil {
		return model.Failed(d, fmt.Errorf("download %s: %w", d.URL, err))
	}

	raw, err := u.codec.Decode(d.Format, body)
	if err != nil {
		metrics.RecordParseFailure(string(d.Format))
		return model.Failed(d, fmt.Errorf("decode %s: %w", d.FileName(), err))
	}

	tbl, rep, err := normalize.Table(raw, u.dateColumn, rng)
	if err != nil {
		return model.Failed(d, fmt.Errorf("normalize %s: %w", d.FileName(), err))
	}
	metrics.RecordRecordsDropped("unparsable_date", rep.Unparsable)
	metrics.RecordRecordsDropped("out_of_range", rep.OutOfRange)
	metrics.RecordRecordsEmitted(rep.Kept)

	u.logger.Debug(ctx, "resource normalized",
		logger.String("resource_id", d.ID),
		logger.Int("year", d.InferredYear),
		logger.Int("input_rows", rep.Input),
		logger.Int("kept_rows", rep.Kept),
	)

	var uri string
	if u.sink != nil && tbl.Len() > 0 {
		uri = u.land(ctx, d, tbl)
	}
	return model.Ok(d, tbl, uri)
}

// land writes tbl to the sink and returns its URI, or "" when landing failed.
func (u *Unit) land(ctx context.Context, d model.ResourceDescriptor, tbl *model.Table) string {
	var buf bytes.Buffer
	if err := u.codec.EncodeParquet(&buf, tbl); err != nil {
		u.logger.Error(ctx, "encode artifact failed", logger.String("resource_id", d.ID), logger.Error(err))
		metrics.RecordErrorByComponent("sink", "encode")
		return ""
	}
	key := sink.Key(u.sinkPrefix, u.now(), d.Stem())
	uri, err := u.sink.Put(ctx, key, buf.Bytes(), sink.ParquetContentType)
	if err != nil {
		u.logger.Error(ctx, "artifact upload failed",
			logger.String("resource_id", d.ID),
			logger.String("key", key),
			logger.Error(err),
		)
		metrics.RecordErrorByComponent("sink", "upload")
		return ""
	}
	u.logger.Info(ctx, "artifact landed", logger.String("uri", uri), logger.Int("rows", tbl.Len()))
	return uri
}
