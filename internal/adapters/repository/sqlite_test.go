package repository_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gridlake/internal/adapters/repository"
)

func TestSQLiteStore(t *testing.T) {
	Convey("Given an in-memory run ledger", t, func() {
		ctx := context.Background()
		store, err := repository.OpenSQLite(ctx, ":memory:", repository.WithMaxListLimit(10))
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

		Convey("When a run begins", func() {
			So(store.Begin(ctx, repository.Run{ID: "r1", StartDate: "2023-01-01", EndDate: "2023-12-31", StartedAt: base}), ShouldBeNil)

			Convey("Then it is readable in the running state", func() {
				run, err := store.Get(ctx, "r1")
				So(err, ShouldBeNil)
				So(run.Status, ShouldEqual, repository.StatusRunning)
				So(run.StartedAt.Equal(base), ShouldBeTrue)
				So(run.FinishedAt, ShouldBeNil)
				So(run.UploadedFiles, ShouldResemble, []string{})
			})

			Convey("Then finishing stores the counters", func() {
				err := store.Finish(ctx, "r1", repository.Summary{
					Status:        repository.StatusOK,
					Resources:     2,
					Failed:        1,
					TotalRecords:  35,
					UploadedFiles: []string{"s3://b/a.parquet"},
					FinishedAt:    base.Add(time.Minute),
				})
				So(err, ShouldBeNil)

				run, err := store.Get(ctx, "r1")
				So(err, ShouldBeNil)
				So(run.Status, ShouldEqual, repository.StatusOK)
				So(run.TotalRecords, ShouldEqual, 35)
				So(run.Failed, ShouldEqual, 1)
				So(run.UploadedFiles, ShouldResemble, []string{"s3://b/a.parquet"})
				So(run.FinishedAt.Equal(base.Add(time.Minute)), ShouldBeTrue)
			})

			Convey("Then beginning the same id again fails", func() {
				So(store.Begin(ctx, repository.Run{ID: "r1", StartedAt: base}), ShouldNotBeNil)
			})
		})

		Convey("When several runs exist", func() {
			for i, id := range []string{"a", "b", "c"} {
				So(store.Begin(ctx, repository.Run{ID: id, StartDate: "2023-01-01", EndDate: "2023-01-02",
					StartedAt: base.Add(time.Duration(i)*time.Second + 500*time.Millisecond*time.Duration(i%2))}), ShouldBeNil)
			}

			Convey("Then List returns the newest first", func() {
				runs, err := store.List(ctx, 2)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 2)
				So(runs[0].ID, ShouldEqual, "c")
				So(runs[1].ID, ShouldEqual, "b")
			})

			Convey("Then out-of-range limits are rejected", func() {
				_, err := store.List(ctx, 0)
				So(err, ShouldEqual, repository.ErrInvalidLimit)
				_, err = store.List(ctx, 11)
				So(err, ShouldEqual, repository.ErrInvalidLimit)
			})
		})

		Convey("When the run is unknown", func() {
			_, err := store.Get(ctx, "missing")
			So(err, ShouldEqual, repository.ErrNotFound)
			So(store.Finish(ctx, "missing", repository.Summary{Status: repository.StatusOK, FinishedAt: base}), ShouldEqual, repository.ErrNotFound)
		})
	})
}
