package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/gridlake/internal/adapters/codec"
	service "github.com/okian/gridlake/internal/app"
	"github.com/okian/gridlake/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type panickingProcessor struct{}

func (panickingProcessor) Process(context.Context, model.ResourceDescriptor, model.DateRange) model.Outcome {
	panic("unit exploded")
}

func TestDispatcher_Run(t *testing.T) {
	Convey("Given two resolved resources where one fails to download", t, func() {
		dl := &fakeDownloader{bodies: map[string]string{url2023: csv2023}}
		unit := service.NewUnit(dl, codec.New(codec.WithExtraHeaderLines(0)))
		descs := []model.ResourceDescriptor{
			{ID: "r22", URL: url2022, Format: model.FormatCSV, InferredYear: 2022},
			{ID: "r23", URL: url2023, Format: model.FormatCSV, InferredYear: 2023},
		}
		rng := mustRange("2022-01-01", "2023-12-31")

		Convey("When the dispatcher runs", func() {
			outcomes := service.NewDispatcher(unit).Run(context.Background(), descs, rng)

			Convey("Then both slots are returned in input order", func() {
				So(outcomes, ShouldHaveLength, 2)
				So(outcomes[0].Descriptor.ID, ShouldEqual, "r22")
				So(outcomes[1].Descriptor.ID, ShouldEqual, "r23")
			})

			Convey("And the failing slot is empty while the other is populated", func() {
				So(outcomes[0].Failed(), ShouldBeTrue)
				So(outcomes[0].Rows, ShouldBeEmpty)
				So(outcomes[1].Failed(), ShouldBeFalse)
				So(outcomes[1].Rows, ShouldHaveLength, 3)
			})

			Convey("And the aggregate counts only the succeeding resource", func() {
				res := service.NewAggregator(nil).Aggregate(context.Background(), outcomes, service.Unbounded)
				So(res.TotalRecordCount, ShouldEqual, 3)
				So(res.Failed, ShouldEqual, 1)
				So(res.Resources, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a processor that panics", t, func() {
		d := service.NewDispatcher(panickingProcessor{})
		descs := []model.ResourceDescriptor{{ID: "a"}, {ID: "b"}}

		Convey("Then every slot holds a failed outcome", func() {
			outcomes := d.Run(context.Background(), descs, mustRange("2023-01-01", "2023-01-02"))
			So(outcomes, ShouldHaveLength, 2)
			for i, o := range outcomes {
				So(o.Descriptor.ID, ShouldEqual, descs[i].ID)
				So(errors.Is(o.Err, service.ErrUnitPanic), ShouldBeTrue)
			}
		})
	})

	Convey("Given no descriptors", t, func() {
		outcomes := service.NewDispatcher(panickingProcessor{}).Run(context.Background(), nil, mustRange("2023-01-01", "2023-01-02"))

		Convey("Then no outcome is produced", func() {
			So(outcomes, ShouldBeEmpty)
		})
	})
}
