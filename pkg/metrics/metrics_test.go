package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			registryOpt := WithRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Handler(), ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording pipeline counters", func() {
			Convey("Then it should record trained models", func() {
				So(func() {
					RecordModelTrained()
					RecordModelTrained()
				}, ShouldNotPanic)
			})

			Convey("And it should record fit failures", func() {
				So(RecordFitFailure, ShouldNotPanic)
			})

			Convey("And it should record records per metric name", func() {
				So(func() {
					RecordMetricRecord("auc")
					RecordMetricRecord("ibs")
					RecordMissingValue("auc")
				}, ShouldNotPanic)
			})
		})

		Convey("When observing durations", func() {
			Convey("Then it should accept observations", func() {
				So(func() {
					ObserveTrainDuration(0.25)
					ObserveEvaluateDuration(0.05)
				}, ShouldNotPanic)
			})
		})

		Convey("When updating run-shape gauges", func() {
			Convey("Then it should accept updates", func() {
				So(func() {
					UpdateDatasetRows(500)
					UpdateDroppedRows(3)
					UpdateFoldsTotal(10)
					UpdateGridSize(9)
					IncActiveFits()
					DecActiveFits()
				}, ShouldNotPanic)
			})
		})
	})
}
