// Package service wires catalog discovery, year resolution and the per-resource units
// into one pipeline invocation and owns the asynchronous warehouse load workers.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	loadqueue "github.com/okian/gridlake/internal/adapters/mq/queue"
	workerpool "github.com/okian/gridlake/internal/adapters/mq/worker"
	"github.com/okian/gridlake/internal/adapters/notify"
	"github.com/okian/gridlake/internal/adapters/repository"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/internal/domain/resolve"
	"github.com/okian/gridlake/pkg/logger"
	"github.com/okian/gridlake/pkg/metrics"
)

// Catalog lists the published resources. It never fails; upstream problems yield an empty list.
type Catalog interface {
	FetchCatalog(ctx context.Context) []model.ResourceDescriptor
}

// Service runs the pipeline.
type Service struct {
	mu sync.Mutex

	catalog    Catalog
	dispatcher *Dispatcher
	aggregator *Aggregator
	notifier   notify.Notifier
	ledger     repository.Store

	// Warehouse loading
	loader        workerpool.Loader
	loadWorkers   int
	loadQueueSize int
	loadQueue     *loadqueue.InMemoryQueue
	workerPool    *workerpool.Pool
	started       bool

	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the resource catalog.
func WithCatalog(c Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithProcessor sets the per-resource processor.
func WithProcessor(p Processor) Option {
	return func(s *Service) {
		if p != nil {
			s.dispatcher = NewDispatcher(p)
		}
	}
}

// WithNotifier announces every landed artifact.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLedger records every run.
func WithLedger(st repository.Store) Option {
	return func(s *Service) { s.ledger = st }
}

// WithWarehouse enables asynchronous loads through a bounded queue and worker pool.
func WithWarehouse(l workerpool.Loader, workers, queueSize int) Option {
	return func(s *Service) {
		s.loader = l
		if workers > 0 {
			s.loadWorkers = workers
		}
		if queueSize > 0 {
			s.loadQueueSize = queueSize
		}
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newID = f
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{
		loadWorkers:   2,
		loadQueueSize: 64,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.aggregator = NewAggregator(s.logger.Named("aggregate"))
	return s
}

// Start launches the warehouse load workers when a loader is configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.loader != nil {
		s.loadQueue = loadqueue.NewInMemoryQueue(loadqueue.WithCapacity(s.loadQueueSize))
		s.workerPool = workerpool.NewPool(s.loadWorkers, s.loadQueue, s.loader)
		s.workerPool.Start(ctx)
		s.logger.Info(ctx, "warehouse load workers started",
			logger.Int("workers", s.loadWorkers),
			logger.Int("queueSize", s.loadQueueSize),
		)
	}
	s.started = true
	return nil
}

// Stop drains the load queue and stops the workers.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// Run executes one pipeline invocation for rng, keeping the first previewLimit records
// (Unbounded keeps all). It returns ErrNoResources when nothing matched the requested
// years and ErrEmptyResult when nothing survived filtering.
func (s *Service) Run(ctx context.Context, rng model.DateRange, previewLimit int) (model.PipelineResult, error) {
	if s.catalog == nil || s.dispatcher == nil {
		return model.PipelineResult{}, ErrNotConfigured
	}

	start := s.now()
	runID := s.newID()
	s.begin(ctx, runID, rng, start)

	resources := s.catalog.FetchCatalog(ctx)
	selection := resolve.Resolve(resources, rng)
	metrics.UpdateResolvedResources(len(selection))
	s.logger.Info(ctx, "resources resolved",
		logger.String("run_id", runID),
		logger.String("range", rng.String()),
		logger.Int("listed", len(resources)),
		logger.Int("selected", len(selection)),
	)

	if len(selection) == 0 {
		err := fmt.Errorf("%w: %s", ErrNoResources, rng)
		s.finish(ctx, runID, model.PipelineResult{RunID: runID}, start, err)
		return model.PipelineResult{RunID: runID}, err
	}

	outcomes := s.dispatcher.Run(ctx, selection.Ordered(), rng)
	res := s.aggregator.Aggregate(ctx, outcomes, previewLimit)
	res.RunID = runID
	res.StartedAt = start
	res.FinishedAt = s.now()

	if res.TotalRecordCount == 0 {
		err := fmt.Errorf("%w: %s", ErrEmptyResult, rng)
		s.finish(ctx, runID, res, start, err)
		return res, err
	}

	s.publish(ctx, runID, outcomes)
	s.finish(ctx, runID, res, start, nil)
	return res, nil
}

// publish notifies and enqueues warehouse loads for every successful, non-empty outcome.
func (s *Service) publish(ctx context.Context, runID string, outcomes []model.Outcome) {
	for _, o := range outcomes {
		if o.Failed() || len(o.Rows) == 0 {
			continue
		}
		if s.notifier != nil && o.SinkURI != "" {
			err := s.notifier.Notify(ctx, notify.Upload{
				RunID:       runID,
				ResourceID:  o.Descriptor.ID,
				Year:        o.Descriptor.InferredYear,
				SinkURI:     o.SinkURI,
				RecordCount: len(o.Rows),
				UploadedAt:  s.now().UTC(),
			})
			if err != nil {
				s.logger.Warn(ctx, "upload notification failed", logger.String("uri", o.SinkURI), logger.Error(err))
			}
		}
		if s.loadQueue != nil {
			source := o.SinkURI
			if source == "" {
				source = o.Descriptor.URL
			}
			job := model.LoadJob{RunID: runID, SinkURI: source, Columns: o.Columns, Rows: o.Rows}
			if !s.loadQueue.Enqueue(ctx, job) {
				metrics.RecordWarehouseLoad("dropped")
				s.logger.Warn(ctx, "warehouse load dropped",
					logger.String("source", source),
					logger.Error(loadqueue.ErrFull),
				)
			}
		}
	}
}

func (s *Service) begin(ctx context.Context, runID string, rng model.DateRange, start time.Time) {
	if s.ledger == nil {
		return
	}
	err := s.ledger.Begin(ctx, repository.Run{
		ID:        runID,
		StartDate: rng.Start.Format(model.DateLayout),
		EndDate:   rng.End.Format(model.DateLayout),
		StartedAt: start,
	})
	if err != nil {
		s.logger.Warn(ctx, "run ledger begin failed", logger.String("run_id", runID), logger.Error(err))
	}
}

func (s *Service) finish(ctx context.Context, runID string, res model.PipelineResult, start time.Time, runErr error) {
	end := s.now()
	metrics.RecordPipelineDuration(float64(end.Sub(start).Milliseconds()))

	status := repository.StatusOK
	switch {
	case errors.Is(runErr, ErrNoResources), errors.Is(runErr, ErrEmptyResult):
		status = repository.StatusEmpty
	case runErr != nil:
		status = repository.StatusFailed
	}
	metrics.RecordPipelineRun(status)

	s.logger.Info(ctx, "pipeline finished",
		logger.String("run_id", runID),
		logger.String("status", status),
		logger.Int("resources", res.Resources),
		logger.Int("failed", res.Failed),
		logger.Int("records", res.TotalRecordCount),
		logger.Duration("took", end.Sub(start)),
	)

	if s.ledger == nil {
		return
	}
	sum := repository.Summary{
		Status:        status,
		Resources:     res.Resources,
		Failed:        res.Failed,
		TotalRecords:  res.TotalRecordCount,
		UploadedFiles: res.UploadedSinks,
		FinishedAt:    end,
	}
	if runErr != nil {
		sum.Error = runErr.Error()
	}
	if err := s.ledger.Finish(ctx, runID, sum); err != nil {
		s.logger.Warn(ctx, "run ledger finish failed", logger.String("run_id", runID), logger.Error(err))
	}
}

// Runs returns the most recent runs from the ledger.
func (s *Service) Runs(ctx context.Context, limit int) ([]repository.Run, error) {
	if s.ledger == nil {
		return nil, ErrNotConfigured
	}
	return s.ledger.List(ctx, limit)
}

// RunByID returns one run from the ledger.
func (s *Service) RunByID(ctx context.Context, id string) (repository.Run, error) {
	if s.ledger == nil {
		return repository.Run{}, ErrNotConfigured
	}
	return s.ledger.Get(ctx, id)
}
