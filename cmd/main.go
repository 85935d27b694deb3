package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fmhr12/SuevML-CR-RFS/internal/app"
	"github.com/fmhr12/SuevML-CR-RFS/internal/config"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
	"github.com/fmhr12/SuevML-CR-RFS/internal/report"
	"github.com/fmhr12/SuevML-CR-RFS/pkg/logger"
	"github.com/fmhr12/SuevML-CR-RFS/pkg/metrics"
)

// Metrics listener timeouts.
const (
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since the logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optional Prometheus endpoint while the run is in flight.
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
		go func() {
			log.Info(ctx, "serving metrics", logger.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(ctx, "metrics listener failed", logger.Error(err))
			}
		}()
		defer srv.Close()
	}

	schema := dataset.Schema{
		TimeColumn:  cfg.Data.TimeColumn,
		EventColumn: cfg.Data.EventColumn,
		Categorical: cfg.Data.Categorical,
		Continuous:  cfg.Data.Continuous,
	}
	table, err := dataset.Load(ctx, cfg.Data.Path, cfg.Data.Sheet, schema, cfg.TimeCap)
	if err != nil {
		log.Error(ctx, "data load failed", logger.String("path", cfg.Data.Path), logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "dataset loaded",
		logger.String("path", cfg.Data.Path),
		logger.Int("rows", table.Len()),
		logger.Int("dropped", table.Dropped()),
	)

	driver := app.New(append(app.FromConfig(cfg), app.WithLogger(log.Named("driver")))...)
	rep, err := driver.Run(ctx, table)
	if err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		os.Exit(1)
	}

	report.PrintSummary(os.Stdout, rep)
	if err := report.Export(cfg.OutputDir, rep, cfg.PlotSplitTime); err != nil {
		log.Error(ctx, "export failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "run complete",
		logger.String("run_id", rep.RunID),
		logger.String("output_dir", cfg.OutputDir),
		logger.Int("records", rep.RecordCount),
		logger.Duration("elapsed", rep.Elapsed),
	)
}
