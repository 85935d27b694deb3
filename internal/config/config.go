// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// DataConfig declares the input table schema. Column names are validated
// against the sheet at load time; a mismatch is a data error, never a
// silent lookup miss.
type DataConfig struct {
	// Path locates the source table (.xlsx or .csv).
	Path string `koanf:"path"`

	// Sheet names the spreadsheet sheet; ignored for CSV input.
	Sheet string `koanf:"sheet"`

	// TimeColumn and EventColumn name the outcome pair.
	TimeColumn  string `koanf:"time_column"`
	EventColumn string `koanf:"event_column"`

	// Categorical and Continuous list the predictor columns.
	Categorical []string `koanf:"categorical"`
	Continuous  []string `koanf:"continuous"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Seed drives fold generation and forest bootstrapping.
	Seed int64 `koanf:"seed"`

	// Folds is k in the repeated k-fold scheme.
	Folds int `koanf:"folds"`

	// Repeats is the number of independent re-draws of the k folds.
	Repeats int `koanf:"repeats"`

	// TreeCount fixes the ensemble size of every fitted forest.
	TreeCount int `koanf:"tree_count"`

	// SplitRule identifies the node splitting rule.
	SplitRule string `koanf:"split_rule"`

	// Cause is the event-type code of the event of interest.
	Cause int `koanf:"cause"`

	// MinLeafGrid x MaxDepthGrid spans the tuning grid.
	MinLeafGrid  []int `koanf:"min_leaf_grid"`
	MaxDepthGrid []int `koanf:"max_depth_grid"`

	// Horizons are the follow-up times at which IBS and C-index are reported.
	Horizons []float64 `koanf:"horizons"`

	// TimeCap caps observed times; TimeStep spaces the evaluation time grid.
	TimeCap  float64 `koanf:"time_cap"`
	TimeStep float64 `koanf:"time_step"`

	// PlotSplitTime divides the AUC/Brier plots into two labeled ranges.
	PlotSplitTime float64 `koanf:"plot_split_time"`

	// Workers bounds the parallel tuning loop; 1 keeps it sequential.
	Workers int `koanf:"workers"`

	// MetricsAddr, when non-empty, serves Prometheus metrics during a run.
	MetricsAddr string `koanf:"metrics_addr"`

	// OutputDir receives summary CSVs and plots.
	OutputDir string `koanf:"output_dir"`

	// Data declares the input table schema.
	Data DataConfig `koanf:"data"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:      "info",
		Seed:          2024,
		Folds:         5,
		Repeats:       2,
		TreeCount:     300,
		SplitRule:     "logrank",
		Cause:         1,
		MinLeafGrid:   []int{5, 10, 15},
		MaxDepthGrid:  []int{10, 20, 30},
		Horizons:      []float64{24, 60, 114},
		TimeCap:       114,
		TimeStep:      6,
		PlotSplitTime: 60,
		Workers:       1,
		MetricsAddr:   "",
		OutputDir:     "out",
		Data: DataConfig{
			Path:        "data.xlsx",
			Sheet:       "Sheet1",
			TimeColumn:  "time",
			EventColumn: "delta",
			Categorical: nil,
			Continuous:  nil,
		},
	}
	return c
}
