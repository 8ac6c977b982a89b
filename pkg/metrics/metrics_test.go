package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithMetricPrefix("x_"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered on the given registry", func() {
				So(manager, ShouldNotBeNil)
				manager.recordsEmitted.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_x_records_emitted_total"], ShouldBeTrue)
			})

			Convey("Then every configured option shows up on the exported series", func() {
				manager.recordsEmitted.Add(1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var labels map[string]string
				for _, f := range families {
					if f.GetName() != "test_unit_x_records_emitted_total" {
						continue
					}
					labels = map[string]string{}
					for _, lp := range f.GetMetric()[0].GetLabel() {
						labels[lp.GetName()] = lp.GetValue()
					}
				}
				So(labels, ShouldResemble, map[string]string{"env": "test"})
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording pipeline activity", func() {
			before := testutil.ToFloat64(globalManager.recordsEmitted)
			RecordRecordsEmitted(5)
			RecordRecordsDropped("out_of_range", 2)
			RecordRecordsDropped("unparsable", 0)
			RecordCatalogFetch("ok")
			UpdateCatalogResources(7)
			UpdateResolvedResources(2)

			Convey("Then counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.recordsEmitted)-before, ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.recordsDropped.WithLabelValues("out_of_range")), ShouldBeGreaterThanOrEqualTo, 2)
				So(testutil.ToFloat64(globalManager.catalogResources), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.resolvedResources), ShouldEqual, 2)
			})
		})

		Convey("When recording landing and HTTP activity", func() {
			So(func() {
				RecordResourceDownload("ok")
				RecordDownloadLatency(12)
				RecordParseFailure("CSV")
				RecordSinkUpload("memory", "ok")
				RecordSinkLatency("memory", 3)
				RecordNotification("ok")
				RecordPipelineRun("ok")
				RecordPipelineDuration(40)
				RecordLedgerError("begin")
				RecordWarehouseLoad("ok")
				RecordWarehouseRows(10)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(5)
				RecordWorkerError()
				RecordHTTPRequest("/process", "POST", "200")
				RecordHTTPRequestDuration("/process", "POST", "200", 15)
				RecordErrorByEndpoint("/process", "POST", "bad_request")
				RecordErrorByComponent("sink", "upload")
			}, ShouldNotPanic)

			Convey("Then the custom registry exposes them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 10)
			})
		})
	})
}
