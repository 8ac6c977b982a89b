package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

const outputFilePermission = 0o600

// Run backfills cfg.Range one calendar year at a time and returns per-window results in
// window order. Empty years are counted, not failed.
func Run(ctx context.Context, cfg *Config) ([]WindowResult, *Stats, error) {
	if cfg.BaseURL == "" {
		return nil, nil, fmt.Errorf("%w: base url is required", ErrConfig)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("backfill")

	log.Info(ctx, "starting backfill",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("range", cfg.Range.String()),
		logger.Int("workers", workers),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, c); err != nil {
		return nil, nil, err
	}

	sink, closeSink, err := openOutput(cfg.OutputFile)
	if err != nil {
		return nil, nil, err
	}
	defer closeSink()

	windows := YearWindows(cfg.Range)
	results := make([]WindowResult, len(windows))

	jobs := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = c.processWindow(ctx, windows[idx], sink, cfg.Verbose)
				logWindow(ctx, log, results[idx])
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range windows {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	for i := range results {
		r := &results[i]
		if r.Window.Start.IsZero() {
			// never dispatched
			r.Window = windows[i]
			r.Err = ctx.Err()
		}
		stats.Windows++
		switch {
		case r.Err != nil:
			stats.Failed++
		case r.Empty:
			stats.Empty++
		default:
			stats.Succeeded++
		}
		stats.Records += r.Records
		stats.UploadedFiles += len(r.UploadedFiles)
	}
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return results, stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, c *client) error {
	status, err := c.get(ctx, "/livez")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// openOutput returns a concurrency-safe record writer, or nil when no file was requested.
func openOutput(path string) (func([]json.RawMessage) error, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermission)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	var mu sync.Mutex
	write := func(records []json.RawMessage) error {
		mu.Lock()
		defer mu.Unlock()
		return writeLines(f, records)
	}
	closeFn := func() {
		if err := f.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close output file", logger.Error(err))
		}
	}
	return write, closeFn, nil
}

func writeLines(w io.Writer, records []json.RawMessage) error {
	for _, r := range records {
		if _, err := w.Write(append(r, '\n')); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return nil
}

func logWindow(ctx context.Context, log logger.Logger, r WindowResult) {
	switch {
	case r.Err != nil:
		log.Error(ctx, "window failed", logger.String("window", r.Window.String()), logger.Error(r.Err))
	case r.Empty:
		log.Info(ctx, "window empty", logger.String("window", r.Window.String()))
	default:
		log.Info(ctx, "window done",
			logger.String("window", r.Window.String()),
			logger.String("runID", r.RunID),
			logger.Int("records", r.Records),
			logger.Int("uploaded", len(r.UploadedFiles)),
		)
	}
}

// displayFinalStats logs the final backfill statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var recordsPerSecond float64
	if stats.Duration > 0 {
		recordsPerSecond = float64(stats.Records) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("windows", stats.Windows),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("empty", stats.Empty),
		logger.Int("failed", stats.Failed),
		logger.Int("records", stats.Records),
		logger.Int("uploadedFiles", stats.UploadedFiles),
		logger.Duration("duration", stats.Duration),
		logger.Float64("recordsPerSecond", recordsPerSecond),
	)
}

// ParseRange is a convenience for flag values.
func ParseRange(start, end string) (model.DateRange, error) {
	rng, err := model.ParseDateRange(start, end)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return rng, nil
}
