package config_test

import (
	"context"
	"testing"

	"github.com/fmhr12/SuevML-CR-RFS/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Seed, convey.ShouldEqual, 2024)
			convey.So(cfg.Folds, convey.ShouldEqual, 5)
			convey.So(cfg.Repeats, convey.ShouldEqual, 2)
			convey.So(cfg.TreeCount, convey.ShouldEqual, 300)
			convey.So(cfg.SplitRule, convey.ShouldEqual, "logrank")
			convey.So(cfg.Cause, convey.ShouldEqual, 1)
			convey.So(cfg.MinLeafGrid, convey.ShouldResemble, []int{5, 10, 15})
			convey.So(cfg.MaxDepthGrid, convey.ShouldResemble, []int{10, 20, 30})
			convey.So(cfg.Horizons, convey.ShouldResemble, []float64{24, 60, 114})
			convey.So(cfg.TimeCap, convey.ShouldEqual, 114)
			convey.So(cfg.TimeStep, convey.ShouldEqual, 6)
			convey.So(cfg.Workers, convey.ShouldEqual, 1)
			convey.So(cfg.OutputDir, convey.ShouldEqual, "out")
			convey.So(cfg.Data.TimeColumn, convey.ShouldEqual, "time")
			convey.So(cfg.Data.EventColumn, convey.ShouldEqual, "delta")
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_EvalTimes(t *testing.T) {
	convey.Convey("Given a cap of 30 and a step of 10", t, func() {
		cfg := config.New(context.Background())
		cfg.TimeCap = 30
		cfg.TimeStep = 10

		convey.Convey("Then the grid runs step by step up to the cap", func() {
			convey.So(cfg.EvalTimes(), convey.ShouldResemble, []float64{10, 20, 30})
		})
	})

	convey.Convey("Given a step that does not divide the cap", t, func() {
		cfg := config.New(context.Background())
		cfg.TimeCap = 25
		cfg.TimeStep = 10

		convey.Convey("Then the cap is still the last point", func() {
			convey.So(cfg.EvalTimes(), convey.ShouldResemble, []float64{10, 20, 25})
		})
	})

	convey.Convey("Given a step larger than the cap", t, func() {
		cfg := config.New(context.Background())
		cfg.TimeCap = 5
		cfg.TimeStep = 10

		convey.Convey("Then the grid collapses to the cap alone", func() {
			convey.So(cfg.EvalTimes(), convey.ShouldResemble, []float64{5})
		})
	})
}
