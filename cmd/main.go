package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/gridlake/internal/adapters/catalog"
	"github.com/okian/gridlake/internal/adapters/codec"
	"github.com/okian/gridlake/internal/adapters/fetch"
	"github.com/okian/gridlake/internal/adapters/http/api"
	"github.com/okian/gridlake/internal/adapters/http/swagger"
	"github.com/okian/gridlake/internal/adapters/notify"
	"github.com/okian/gridlake/internal/adapters/repository"
	"github.com/okian/gridlake/internal/adapters/sink"
	"github.com/okian/gridlake/internal/adapters/warehouse"
	app "github.com/okian/gridlake/internal/app"
	"github.com/okian/gridlake/internal/config"
	"github.com/okian/gridlake/pkg/logger"
	"github.com/okian/gridlake/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.GetRegistry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, closeAll, err := buildService(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}
	defer closeAll()

	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}

	mux := newMux(ctx, cfg, svc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	svc.Stop(shutdownCtx)

	log.Info(ctx, "server stopped")
}

// newMux registers the docs and business routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize)).Register(ctx, mux)
	return mux
}

// buildService constructs every collaborator named by cfg and hands them to the service.
// The returned func releases the ledger and warehouse connections.
func buildService(ctx context.Context, cfg *config.Config) (*app.Service, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*app.Service, func(), error) {
		closeAll()
		return nil, func() {}, err
	}
	log := logger.Get()

	unitOpts := []app.UnitOption{app.WithDateColumn(cfg.DateColumn)}
	s, err := newSink(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	if s != nil {
		unitOpts = append(unitOpts, app.WithSink(s, cfg.SinkPrefix))
		log.Info(ctx, "artifact sink enabled", logger.String("backend", s.Backend()), logger.String("bucket", cfg.SinkBucket))
	}

	unit := app.NewUnit(
		fetch.New(fetch.WithTimeout(cfg.DownloadTimeout())),
		codec.New(codec.WithExtraHeaderLines(cfg.CSVExtraHeaderLines)),
		unitOpts...,
	)
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithCatalog(catalog.New(cfg.CatalogURL, catalog.WithTimeout(cfg.CatalogTimeout()))),
		app.WithProcessor(unit),
	}

	if cfg.NotifyQueueURL != "" {
		n, err := notify.NewSQS(ctx, cfg.AWSRegion, cfg.NotifyQueueURL)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, app.WithNotifier(n))
	}

	if cfg.WarehouseDSN != "" {
		pool, err := warehouse.Connect(ctx, cfg.WarehouseDSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, pool.Close)
		opts = append(opts, app.WithWarehouse(
			warehouse.NewLoader(pool, cfg.WarehouseTable),
			cfg.WarehouseWorkers,
			cfg.WarehouseQueueSize,
		))
	}

	if cfg.RunsDBPath != "" {
		store, err := repository.OpenSQLite(ctx, cfg.RunsDBPath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = store.Close() })
		opts = append(opts, app.WithLedger(store))
	}

	return app.New(opts...), closeAll, nil
}

func s3Config(cfg *config.Config) sink.S3Config {
	return sink.S3Config{
		Bucket:          cfg.SinkBucket,
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
	}
}

// newSink returns the configured artifact sink, or nil when landing is disabled.
func newSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch cfg.SinkBackend {
	case config.SinkNone:
		return nil, nil
	case config.SinkMemory:
		return sink.NewMemory(cfg.SinkBucket), nil
	case config.SinkS3:
		return sink.NewS3(ctx, s3Config(cfg))
	case config.SinkMinIO:
		m, err := sink.NewMinIO(sink.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.SinkBucket,
		})
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unknown sink_backend %q", config.ErrInvalidConfig, cfg.SinkBackend)
	}
}
