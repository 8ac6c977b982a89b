package service_test

import (
	"context"
	"sync"
	"testing"

	service "github.com/okian/gridlake/internal/app"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func table(n int, tag string) *model.Table {
	t := &model.Table{Columns: []string{"tag", "n"}}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, []model.Value{model.StringValue(tag), model.NumberValue(float64(i))})
	}
	return t
}

// recordingLogger keeps warning messages and every Named call.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	named []string
}

func (l *recordingLogger) Info(context.Context, string, ...logger.Field)  {}
func (l *recordingLogger) Error(context.Context, string, ...logger.Field) {}
func (l *recordingLogger) Debug(context.Context, string, ...logger.Field) {}
func (l *recordingLogger) Fatal(context.Context, string, ...logger.Field) {}

func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Named(name string) logger.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.named = append(l.named, name)
	return l
}

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func TestAggregate(t *testing.T) {
	Convey("Given outcomes with rows, failures and sink URIs", t, func() {
		outcomes := []model.Outcome{
			model.Ok(model.ResourceDescriptor{ID: "a"}, table(3, "a"), "mem://b/a.parquet"),
			model.Failed(model.ResourceDescriptor{ID: "x"}, errBoom),
			model.Ok(model.ResourceDescriptor{ID: "b"}, table(2, "b"), ""),
			model.Ok(model.ResourceDescriptor{ID: "c"}, table(0, "c"), ""),
		}
		ctx := context.Background()
		log := &recordingLogger{}
		agg := service.NewAggregator(log)

		Convey("When aggregating without a preview limit", func() {
			res := agg.Aggregate(ctx, outcomes, service.Unbounded)

			Convey("Then rows are flattened in dispatch order", func() {
				So(res.TotalRecordCount, ShouldEqual, 5)
				So(res.PreviewRecords, ShouldHaveLength, 5)
				first, _ := res.PreviewRecords[0].Get("tag")
				last, _ := res.PreviewRecords[4].Get("tag")
				So(first.Str(), ShouldEqual, "a")
				So(last.Str(), ShouldEqual, "b")
			})

			Convey("And only non-empty sink URIs are reported", func() {
				So(res.UploadedSinks, ShouldResemble, []string{"mem://b/a.parquet"})
			})

			Convey("And failures are counted", func() {
				So(res.Failed, ShouldEqual, 1)
				So(res.Resources, ShouldEqual, 4)
			})

			Convey("And each failure is logged once through the injected logger", func() {
				So(log.warnings(), ShouldResemble, []string{"resource skipped"})
				So(log.named, ShouldBeEmpty)
			})
		})

		Convey("When aggregating with a preview limit", func() {
			res := agg.Aggregate(ctx, outcomes, 4)

			Convey("Then the total still counts every row", func() {
				So(res.TotalRecordCount, ShouldEqual, 5)
				So(res.PreviewRecords, ShouldHaveLength, 4)
			})
		})

		Convey("When aggregating with a zero preview limit", func() {
			res := agg.Aggregate(ctx, outcomes, 0)

			Convey("Then the preview is empty but not nil", func() {
				So(res.PreviewRecords, ShouldNotBeNil)
				So(res.PreviewRecords, ShouldBeEmpty)
			})
		})
	})
}
