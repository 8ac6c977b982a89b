package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/gridlake/internal/adapters/codec"
	"github.com/okian/gridlake/internal/adapters/repository"
	"github.com/okian/gridlake/internal/adapters/sink"
	service "github.com/okian/gridlake/internal/app"
	"github.com/okian/gridlake/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func catalog2022and2023() fakeCatalog {
	return fakeCatalog{resources: []model.ResourceDescriptor{
		{ID: "r22", Name: "EAR 2022", URL: url2022, Format: model.FormatCSV},
		{ID: "r23", Name: "EAR 2023", URL: url2023, Format: model.FormatCSV},
		{ID: "dict", Name: "Dicionario", URL: "https://dados.example/dicionario.pdf", Format: model.Format("PDF")},
	}}
}

func TestService_New(t *testing.T) {
	Convey("Given a service without collaborators", t, func() {
		svc := service.New()

		Convey("Then running it reports a configuration error", func() {
			_, err := svc.Run(context.Background(), mustRange("2023-01-01", "2023-12-31"), service.Unbounded)
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("Then the ledger accessors report a configuration error", func() {
			_, err := svc.Runs(context.Background(), 10)
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
			_, err = svc.RunByID(context.Background(), "x")
			So(errors.Is(err, service.ErrNotConfigured), ShouldBeTrue)
		})

		Convey("Then start and stop are safe without a warehouse", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop(context.Background())
		})
	})
}

func TestService_Run(t *testing.T) {
	Convey("Given a fully wired service", t, func() {
		dl := &fakeDownloader{bodies: map[string]string{url2022: csv2022, url2023: csv2023}}
		mem := sink.NewMemory("lake")
		notifier := &recordingNotifier{}
		ledger := newMemoryLedger()
		loader := newRecordingLoader()
		now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

		unit := service.NewUnit(dl, codec.New(codec.WithExtraHeaderLines(0)),
			service.WithSink(mem, "ons/ear"),
			service.WithUnitClock(func() time.Time { return now }),
		)
		svc := service.New(
			service.WithCatalog(catalog2022and2023()),
			service.WithProcessor(unit),
			service.WithNotifier(notifier),
			service.WithLedger(ledger),
			service.WithWarehouse(loader, 1, 8),
			service.WithClock(func() time.Time { return now }),
			service.WithIDGenerator(func() string { return "run-1" }),
		)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When the range spans both years", func() {
			res, err := svc.Run(ctx, mustRange("2022-06-01", "2023-12-31"), 2)

			Convey("Then the result aggregates both resources", func() {
				So(err, ShouldBeNil)
				So(res.RunID, ShouldEqual, "run-1")
				So(res.TotalRecordCount, ShouldEqual, 4)
				So(res.PreviewRecords, ShouldHaveLength, 2)
				So(res.UploadedSinks, ShouldHaveLength, 2)
				So(res.Failed, ShouldEqual, 0)
			})

			Convey("And every landed artifact is announced", func() {
				uploads := notifier.Uploads()
				So(uploads, ShouldHaveLength, 2)
				So(uploads[0].Year, ShouldEqual, 2022)
				So(uploads[1].Year, ShouldEqual, 2023)
				So(uploads[1].RecordCount, ShouldEqual, 3)
				So(uploads[1].RunID, ShouldEqual, "run-1")
			})

			Convey("And the warehouse receives one job per artifact", func() {
				received := 0
				timeout := time.After(2 * time.Second)
			wait:
				for received < 2 {
					select {
					case <-loader.done:
						received++
					case <-timeout:
						break wait
					}
				}
				So(received, ShouldEqual, 2)
				jobs := loader.Jobs()
				So(jobs, ShouldHaveLength, 2)
				for _, j := range jobs {
					So(j.RunID, ShouldEqual, "run-1")
					So(strings.HasPrefix(j.SinkURI, "mem://lake/ons/ear/20240102/"), ShouldBeTrue)
				}
			})

			Convey("And the run is recorded in the ledger", func() {
				run, err := svc.RunByID(ctx, "run-1")
				So(err, ShouldBeNil)
				So(run.Status, ShouldEqual, repository.StatusOK)
				So(run.TotalRecords, ShouldEqual, 4)
				So(run.StartDate, ShouldEqual, "2022-06-01")
				So(run.UploadedFiles, ShouldHaveLength, 2)
			})
		})

		Convey("When the range spans no available year", func() {
			res, err := svc.Run(ctx, mustRange("2019-01-01", "2020-12-31"), service.Unbounded)

			Convey("Then the empty result names the range", func() {
				So(errors.Is(err, service.ErrNoResources), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "2019-01-01 to 2020-12-31")
				So(res.TotalRecordCount, ShouldEqual, 0)
			})

			Convey("And no download is attempted", func() {
				So(dl.calls.Load(), ShouldEqual, int32(0))
			})

			Convey("And the ledger marks the run empty", func() {
				run, err := svc.RunByID(ctx, "run-1")
				So(err, ShouldBeNil)
				So(run.Status, ShouldEqual, repository.StatusEmpty)
			})
		})

		Convey("When resources match but no row falls inside the range", func() {
			_, err := svc.Run(ctx, mustRange("2023-10-01", "2023-12-31"), service.Unbounded)

			Convey("Then the empty result is reported", func() {
				So(errors.Is(err, service.ErrEmptyResult), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "2023-10-01 to 2023-12-31")
				So(notifier.Uploads(), ShouldBeEmpty)
			})
		})

		Convey("When one of two resources fails to download", func() {
			delete(dl.bodies, url2022)
			res, err := svc.Run(ctx, mustRange("2022-01-01", "2023-12-31"), service.Unbounded)

			Convey("Then only the surviving resource contributes", func() {
				So(err, ShouldBeNil)
				So(res.Resources, ShouldEqual, 2)
				So(res.Failed, ShouldEqual, 1)
				So(res.TotalRecordCount, ShouldEqual, 3)
				So(res.PreviewRecords, ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given a service logging through an injected logger", t, func() {
		dl := &fakeDownloader{bodies: map[string]string{url2023: csv2023}}
		log := &recordingLogger{}
		svc := service.New(
			service.WithCatalog(catalog2022and2023()),
			service.WithProcessor(service.NewUnit(dl, codec.New(codec.WithExtraHeaderLines(0)))),
			service.WithLogger(log),
		)

		Convey("When a resource fails on every run", func() {
			rng := mustRange("2022-01-01", "2023-12-31")
			for i := 0; i < 3; i++ {
				_, err := svc.Run(context.Background(), rng, service.Unbounded)
				So(err, ShouldBeNil)
			}

			Convey("Then the aggregate logger is derived once and reused", func() {
				So(log.named, ShouldResemble, []string{"aggregate"})
				skipped := 0
				for _, w := range log.warnings() {
					if w == "resource skipped" {
						skipped++
					}
				}
				So(skipped, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a failing notifier and no sink", t, func() {
		dl := &fakeDownloader{bodies: map[string]string{url2023: csv2023}}
		notifier := &recordingNotifier{err: errBoom}
		svc := service.New(
			service.WithCatalog(catalog2022and2023()),
			service.WithProcessor(service.NewUnit(dl, codec.New(codec.WithExtraHeaderLines(0)))),
			service.WithNotifier(notifier),
		)

		Convey("Then records are returned and nothing is announced", func() {
			res, err := svc.Run(context.Background(), mustRange("2023-01-01", "2023-12-31"), service.Unbounded)
			So(err, ShouldBeNil)
			So(res.TotalRecordCount, ShouldEqual, 3)
			So(res.UploadedSinks, ShouldBeEmpty)
			So(notifier.Uploads(), ShouldBeEmpty)
		})
	})
}
