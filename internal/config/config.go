// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sink backends.
const (
	SinkNone   = "none"
	SinkMemory = "memory"
	SinkS3     = "s3"
	SinkMinIO  = "minio"
)

// DefaultCatalogURL lists the daily stored-energy (EAR) resources of the grid operator open-data portal.
const DefaultCatalogURL = "https://dados.ons.org.br/api/3/action/package_show?id=61e92787-9847-4731-8b73-e878eb5bc158"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogURL is the package-metadata endpoint listing the dataset resources.
	CatalogURL       string `koanf:"catalog_url"`
	CatalogTimeoutMS int    `koanf:"catalog_timeout_ms"`

	// DownloadTimeoutMS bounds each resource download.
	DownloadTimeoutMS int `koanf:"download_timeout_ms"`

	// DateColumn names the reference-date column used for filtering and ordering.
	DateColumn string `koanf:"date_column"`

	// CSVExtraHeaderLines is the number of lines skipped after the CSV header row.
	CSVExtraHeaderLines int `koanf:"csv_extra_header_lines"`

	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// SinkBackend selects where normalized artifacts land: none, memory, s3 or minio.
	SinkBackend string `koanf:"sink_backend"`
	SinkBucket  string `koanf:"sink_bucket"`
	SinkPrefix  string `koanf:"sink_prefix"`

	AWSRegion  string `koanf:"aws_region"`
	S3Endpoint string `koanf:"s3_endpoint"`
	// S3AccessKey and S3SecretKey pin static credentials; empty falls back to the default chain.
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`

	MinIOEndpoint  string `koanf:"minio_endpoint"`
	MinIOAccessKey string `koanf:"minio_access_key"`
	MinIOSecretKey string `koanf:"minio_secret_key"`
	MinIOUseSSL    bool   `koanf:"minio_use_ssl"`

	// NotifyQueueURL enables SQS upload notifications when set.
	NotifyQueueURL string `koanf:"notify_queue_url"`

	// WarehouseDSN enables asynchronous Postgres loads when set.
	WarehouseDSN       string `koanf:"warehouse_dsn"`
	WarehouseTable     string `koanf:"warehouse_table"`
	WarehouseWorkers   int    `koanf:"warehouse_workers"`
	WarehouseQueueSize int    `koanf:"warehouse_queue_size"`

	// RunsDBPath is the sqlite file of the run ledger; empty disables it.
	RunsDBPath string `koanf:"runs_db_path"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":8000",
		CatalogURL:          DefaultCatalogURL,
		CatalogTimeoutMS:    30_000,
		DownloadTimeoutMS:   60_000,
		DateColumn:          "ear_data",
		CSVExtraHeaderLines: 1,
		DefaultPageSize:     20,
		MaxPageSize:         1000,
		SinkBackend:         SinkNone,
		SinkPrefix:          "ons/ear",
		AWSRegion:           "us-east-1",
		WarehouseTable:      "ear_diario",
		WarehouseWorkers:    2,
		WarehouseQueueSize:  64,
		RunsDBPath:          "gridlake-runs.db",
	}
}

// CatalogTimeout returns the catalog request timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutMS) * time.Millisecond
}

// DownloadTimeout returns the per-resource download timeout.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.CatalogURL) == "" {
		return fmt.Errorf("%w: catalog_url must not be empty", ErrInvalidConfig)
	}
	if c.DateColumn == "" {
		return fmt.Errorf("%w: date_column must not be empty", ErrInvalidConfig)
	}
	switch c.SinkBackend {
	case SinkNone:
	case SinkMemory, SinkS3, SinkMinIO:
		if c.SinkBucket == "" {
			return fmt.Errorf("%w: sink_bucket is required for sink_backend %q", ErrInvalidConfig, c.SinkBackend)
		}
	default:
		return fmt.Errorf("%w: unknown sink_backend %q", ErrInvalidConfig, c.SinkBackend)
	}
	if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return fmt.Errorf("%w: s3_access_key and s3_secret_key must be set together", ErrInvalidConfig)
	}
	if c.SinkBackend == SinkMinIO && c.MinIOEndpoint == "" {
		return fmt.Errorf("%w: minio_endpoint is required for the minio sink", ErrInvalidConfig)
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize <= 0 {
		return fmt.Errorf("%w: page sizes must be positive", ErrInvalidConfig)
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("%w: default_page_size exceeds max_page_size", ErrInvalidConfig)
	}
	if c.CatalogTimeoutMS <= 0 || c.DownloadTimeoutMS <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.CSVExtraHeaderLines < 0 {
		return fmt.Errorf("%w: csv_extra_header_lines must not be negative", ErrInvalidConfig)
	}
	return nil
}
