// Package app provides the grid-search driver that orchestrates the
// repeated cross-validated evaluation: fold generation, the tuning pass
// over the hyperparameter grid, combination selection, and the final
// pass retaining full per-fold metric series.
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/evaluation"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/folds"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/forest"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/summary"
	"github.com/fmhr12/SuevML-CR-RFS/internal/results"
	"github.com/fmhr12/SuevML-CR-RFS/pkg/logger"
	"github.com/fmhr12/SuevML-CR-RFS/pkg/metrics"
)

// Combination is one tunable hyperparameter setting from the grid.
type Combination struct {
	MinLeaf  int
	MaxDepth int
}

// Name identifies the combination in records and logs.
func (c Combination) Name() string { return fmt.Sprintf("leaf%d_depth%d", c.MinLeaf, c.MaxDepth) }

// TuningResult is one ranked row of the tuning pass.
type TuningResult struct {
	Combo      Combination
	MeanIBS    summary.Value
	MeanCIndex summary.Value
}

// Report is the full outcome of a run.
type Report struct {
	RunID string

	Best    Combination
	Ranking []TuningResult

	// BestFold is the final-phase fold with the highest C-index at the
	// maximum horizon; informational only.
	BestFold       string
	BestFoldCIndex float64

	AUCByTime       []summary.Summary
	BrierByTime     []summary.Summary
	IBSByHorizon    []summary.Summary
	CIndexByHorizon []summary.Summary
	CIFByTime       []summary.Summary

	FoldCount     int
	TuningRecords int
	RecordCount   int
	Elapsed       time.Duration
}

// Driver runs the two-phase evaluation over a loaded observation table.
type Driver struct {
	trainer   forest.Trainer
	evaluator evaluation.Evaluator

	seed      int64
	k         int
	repeats   int
	treeCount int
	splitRule string
	cause     int
	grid      []Combination
	horizons  []float64
	evalTimes []float64
	workers   int

	logger logger.Logger
}

// New constructs a Driver with default configuration.
func New(opts ...Option) *Driver {
	d := &Driver{
		trainer:   forest.NewTrainer(),
		evaluator: evaluation.NewEvaluator(),
		seed:      2024,
		k:         5,
		repeats:   2,
		treeCount: 300,
		splitRule: forest.SplitRuleLogRank,
		cause:     1,
		horizons:  []float64{24, 60, 114},
		workers:   1,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logger.Named("driver")
	}
	if len(d.evalTimes) == 0 {
		d.evalTimes = append([]float64(nil), d.horizons...)
	}
	return d
}

// Run executes the full evaluation on the table.
func (d *Driver) Run(ctx context.Context, table *dataset.Table) (*Report, error) {
	start := time.Now()
	if len(d.grid) == 0 {
		return nil, ErrEmptyGrid
	}

	allFolds, err := folds.New(table.Len(), table.Labels(), d.k, d.repeats, d.seed)
	if err != nil {
		return nil, fmt.Errorf("fold generation: %w", err)
	}
	metrics.UpdateFoldsTotal(len(allFolds))
	metrics.UpdateGridSize(len(d.grid))
	metrics.UpdateDatasetRows(table.Len())
	metrics.UpdateDroppedRows(table.Dropped())

	report := &Report{
		RunID:     uuid.New().String(),
		FoldCount: len(allFolds),
	}
	d.logger.Info(ctx, "starting run",
		logger.String("run_id", report.RunID),
		logger.Int("observations", table.Len()),
		logger.Int("folds", len(allFolds)),
		logger.Int("grid", len(d.grid)),
	)

	ranking, err := d.tune(ctx, table, allFolds, report)
	if err != nil {
		return nil, err
	}
	report.Ranking = ranking
	report.Best = ranking[0].Combo
	fields := []logger.Field{logger.String("combo", report.Best.Name())}
	if ibs, ok := ranking[0].MeanIBS.Float(); ok {
		fields = append(fields, logger.Float64("mean_ibs", ibs))
	}
	if c, ok := ranking[0].MeanCIndex.Float(); ok {
		fields = append(fields, logger.Float64("mean_cindex", c))
	}
	d.logger.Info(ctx, "selected hyperparameter combination", fields...)

	if err := d.finalPass(ctx, table, allFolds, report); err != nil {
		return nil, err
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

// tune runs the tuning phase and returns the ranked combinations.
func (d *Driver) tune(ctx context.Context, table *dataset.Table, allFolds []folds.Fold, report *Report) ([]TuningResult, error) {
	store := results.NewMemoryStore(
		results.WithCapacity(len(d.grid) * len(allFolds) * len(d.horizons) * 2),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, combo := range d.grid {
		combo := combo
		g.Go(func() error {
			return d.tuneCombo(gctx, table, allFolds, combo, store)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.TuningRecords = store.Count(ctx)

	ranking := make([]TuningResult, 0, len(d.grid))
	for _, combo := range d.grid {
		ibs := values(store.ByCombo(ctx, combo.Name(), summary.MetricIBS))
		cindex := values(store.ByCombo(ctx, combo.Name(), summary.MetricCIndex))
		ranking = append(ranking, TuningResult{
			Combo:      combo,
			MeanIBS:    summary.Aggregate(ibs).Mean,
			MeanCIndex: summary.Aggregate(cindex).Mean,
		})
	}
	// Ascending mean IBS; ties broken by descending mean C-index.
	// Combinations whose every metric went missing sink to the bottom.
	sort.SliceStable(ranking, func(a, b int) bool {
		ia, aok := ranking[a].MeanIBS.Float()
		ib, bok := ranking[b].MeanIBS.Float()
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		if ia != ib {
			return ia < ib
		}
		ca, aok := ranking[a].MeanCIndex.Float()
		cb, bok := ranking[b].MeanCIndex.Float()
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		return ca > cb
	})
	if ranking[0].MeanIBS.IsMissing() && ranking[0].MeanCIndex.IsMissing() {
		return nil, ErrAllMissing
	}
	return ranking, nil
}

// tuneCombo evaluates one combination across every fold and horizon.
func (d *Driver) tuneCombo(ctx context.Context, table *dataset.Table, allFolds []folds.Fold, combo Combination, store results.Store) error {
	times := d.timesUpTo(maxOf(d.horizons))
	for _, fold := range allFolds {
		model, test, err := d.fitFold(ctx, table, fold, combo)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.recordFitFailure(ctx, combo, fold, err, store)
			continue
		}
		evalStart := time.Now()
		res, err := d.evaluator.Evaluate(ctx, model, test, times, d.cause)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.recordFitFailure(ctx, combo, fold, err, store)
			continue
		}
		for _, h := range d.horizons {
			d.addRecord(ctx, store, summary.Record{
				Combo:  combo.Name(),
				Fold:   fold.Name(),
				Metric: summary.MetricIBS,
				Time:   h,
				Value:  evaluation.IntegratedBrier(res.Times, res.Brier, h),
			})
			d.addRecord(ctx, store, summary.Record{
				Combo:  combo.Name(),
				Fold:   fold.Name(),
				Metric: summary.MetricCIndex,
				Time:   h,
				Value:  d.evaluator.Concordance(ctx, model, test, h, d.cause),
			})
		}
		metrics.ObserveEvaluateDuration(time.Since(evalStart).Seconds())
	}
	return nil
}

// finalPass re-runs the folds with the selected combination, retaining
// full per-fold series, and aggregates the summaries.
func (d *Driver) finalPass(ctx context.Context, table *dataset.Table, allFolds []folds.Fold, report *Report) error {
	store := results.NewMemoryStore()
	maxHorizon := maxOf(d.horizons)
	bestCIndex := summary.Missing()

	for _, fold := range allFolds {
		model, test, err := d.fitFold(ctx, table, fold, report.Best)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.recordFinalFitFailure(ctx, fold, err, store)
			continue
		}
		res, err := d.evaluator.Evaluate(ctx, model, test, d.evalTimes, d.cause)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.recordFinalFitFailure(ctx, fold, err, store)
			continue
		}
		for i, t := range res.Times {
			d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricAUC, Time: t, Value: res.AUC[i]})
			d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricBrier, Time: t, Value: res.Brier[i]})
		}
		for _, h := range d.horizons {
			d.addRecord(ctx, store, summary.Record{
				Fold:   fold.Name(),
				Metric: summary.MetricIBS,
				Time:   h,
				Value:  evaluation.IntegratedBrier(res.Times, res.Brier, h),
			})
			cindex := d.evaluator.Concordance(ctx, model, test, h, d.cause)
			d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricCIndex, Time: h, Value: cindex})
			if h == maxHorizon {
				if c, ok := cindex.Float(); ok {
					if b, bok := bestCIndex.Float(); !bok || c > b {
						bestCIndex = cindex
						report.BestFold = fold.Name()
						report.BestFoldCIndex = c
					}
				}
			}
		}
		// Mean cumulative incidence over the fold's test subset.
		cif := d.evaluator.PredictCIF(model, test, d.evalTimes)
		for j, t := range d.evalTimes {
			var mean float64
			for i := range cif {
				mean += cif[i][j]
			}
			mean /= float64(len(cif))
			d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricCIF, Time: t, Value: summary.Some(mean)})
		}
	}

	report.AUCByTime = summary.ByTime(store.ByMetric(ctx, summary.MetricAUC))
	report.BrierByTime = summary.ByTime(store.ByMetric(ctx, summary.MetricBrier))
	report.IBSByHorizon = summary.ByTime(store.ByMetric(ctx, summary.MetricIBS))
	report.CIndexByHorizon = summary.ByTime(store.ByMetric(ctx, summary.MetricCIndex))
	report.CIFByTime = summary.ByTime(store.ByMetric(ctx, summary.MetricCIF))
	report.RecordCount = store.Count(ctx)
	return nil
}

// fitFold trains the model on the fold's training subset and returns it
// with the test subset.
func (d *Driver) fitFold(ctx context.Context, table *dataset.Table, fold folds.Fold, combo Combination) (forest.Model, *dataset.Table, error) {
	train, err := table.Subset(fold.Train())
	if err != nil {
		return nil, nil, err
	}
	test, err := table.Subset(fold.Test())
	if err != nil {
		return nil, nil, err
	}
	spec := forest.ModelSpec{
		Cause:     d.cause,
		MinLeaf:   combo.MinLeaf,
		MaxDepth:  combo.MaxDepth,
		TreeCount: d.treeCount,
		SplitRule: d.splitRule,
		Seed:      d.seed,
	}
	metrics.IncActiveFits()
	defer metrics.DecActiveFits()
	fitStart := time.Now()
	model, err := d.trainer.Fit(ctx, train, spec)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordModelTrained()
	metrics.ObserveTrainDuration(time.Since(fitStart).Seconds())
	return model, test, nil
}

// recordFitFailure skips the fold and records missing values for every
// metric it would have produced during tuning.
func (d *Driver) recordFitFailure(ctx context.Context, combo Combination, fold folds.Fold, err error, store results.Store) {
	metrics.RecordFitFailure()
	d.logger.Warn(ctx, "fit failed; fold skipped",
		logger.String("combo", combo.Name()),
		logger.String("fold", fold.Name()),
		logger.Error(err),
	)
	for _, h := range d.horizons {
		d.addRecord(ctx, store, summary.Record{Combo: combo.Name(), Fold: fold.Name(), Metric: summary.MetricIBS, Time: h, Value: summary.Missing()})
		d.addRecord(ctx, store, summary.Record{Combo: combo.Name(), Fold: fold.Name(), Metric: summary.MetricCIndex, Time: h, Value: summary.Missing()})
	}
}

// recordFinalFitFailure does the same for the final phase's full series.
func (d *Driver) recordFinalFitFailure(ctx context.Context, fold folds.Fold, err error, store results.Store) {
	metrics.RecordFitFailure()
	d.logger.Warn(ctx, "final-phase fit failed; fold skipped",
		logger.String("fold", fold.Name()),
		logger.Error(err),
	)
	for _, t := range d.evalTimes {
		d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricAUC, Time: t, Value: summary.Missing()})
		d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricBrier, Time: t, Value: summary.Missing()})
		d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricCIF, Time: t, Value: summary.Missing()})
	}
	for _, h := range d.horizons {
		d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricIBS, Time: h, Value: summary.Missing()})
		d.addRecord(ctx, store, summary.Record{Fold: fold.Name(), Metric: summary.MetricCIndex, Time: h, Value: summary.Missing()})
	}
}

func (d *Driver) addRecord(ctx context.Context, store results.Store, rec summary.Record) {
	if err := store.Add(ctx, rec); err != nil {
		d.logger.Error(ctx, "record append failed", logger.Error(err))
		return
	}
	metrics.RecordMetricRecord(rec.Metric)
	if rec.Value.IsMissing() {
		metrics.RecordMissingValue(rec.Metric)
	}
}

// timesUpTo filters the evaluation grid to times at or before the cap,
// always including the cap itself.
func (d *Driver) timesUpTo(cap float64) []float64 {
	var out []float64
	for _, t := range d.evalTimes {
		if t <= cap {
			out = append(out, t)
		}
	}
	if len(out) == 0 || out[len(out)-1] < cap {
		out = append(out, cap)
	}
	return out
}

func values(records []summary.Record) []summary.Value {
	out := make([]summary.Value, len(records))
	for i, r := range records {
		out[i] = r.Value
	}
	return out
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
