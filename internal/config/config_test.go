package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/gridlake/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.CatalogURL, convey.ShouldEqual, config.DefaultCatalogURL)
			convey.So(cfg.DateColumn, convey.ShouldEqual, "ear_data")
			convey.So(cfg.CSVExtraHeaderLines, convey.ShouldEqual, 1)
			convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 20)
			convey.So(cfg.SinkBackend, convey.ShouldEqual, config.SinkNone)
			convey.So(cfg.DownloadTimeout(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.CatalogTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = " " },
			"unknown sink":        func(c *config.Config) { c.SinkBackend = "gcs" },
			"bucketless s3 sink":  func(c *config.Config) { c.SinkBackend = config.SinkS3 },
			"minio sans endpoint": func(c *config.Config) { c.SinkBackend = config.SinkMinIO; c.SinkBucket = "b" },
			"s3 key sans secret":  func(c *config.Config) { c.S3AccessKey = "AKIDEXAMPLE" },
			"zero page size":      func(c *config.Config) { c.DefaultPageSize = 0 },
			"default above max":   func(c *config.Config) { c.DefaultPageSize = 50; c.MaxPageSize = 10 },
			"negative header":     func(c *config.Config) { c.CSVExtraHeaderLines = -1 },
			"zero timeout":        func(c *config.Config) { c.DownloadTimeoutMS = 0 },
			"empty date column":   func(c *config.Config) { c.DateColumn = "" },
		}
		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When a memory sink has a bucket", func() {
			cfg.SinkBackend = config.SinkMemory
			cfg.SinkBucket = "landing"

			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
