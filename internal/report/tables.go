// Package report renders run output: console summary tables, CSV
// exports of the aggregated series, and ribbon plots.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"

	"github.com/fmhr12/SuevML-CR-RFS/internal/app"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/summary"
)

const naCell = "NA"

// PrintSummary writes the console report: selected combination, best
// fold, and the IBS and C-index tables by horizon.
func PrintSummary(w io.Writer, rep *app.Report) {
	fmt.Fprintf(w, "run %s finished in %s\n", rep.RunID, rep.Elapsed.Round(1e6))
	fmt.Fprintf(w, "selected combination: min_leaf=%d max_depth=%d\n", rep.Best.MinLeaf, rep.Best.MaxDepth)
	if rep.BestFold != "" {
		fmt.Fprintf(w, "best fold: %s (C-index %.4f at the maximum horizon)\n", rep.BestFold, rep.BestFoldCIndex)
	}

	fmt.Fprintln(w, "\nTuning ranking:")
	rank := tablewriter.NewWriter(w)
	rank.SetHeader([]string{"Combination", "Mean IBS", "Mean C-index"})
	for _, r := range rep.Ranking {
		rank.Append([]string{r.Combo.Name(), cell(r.MeanIBS), cell(r.MeanCIndex)})
	}
	rank.Render()

	fmt.Fprintln(w, "\nIBS by horizon:")
	renderSummaries(w, rep.IBSByHorizon, "Horizon")

	fmt.Fprintln(w, "\nC-index by horizon:")
	renderSummaries(w, rep.CIndexByHorizon, "Horizon")
}

func renderSummaries(w io.Writer, sums []summary.Summary, key string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{key, "N", "Mean", "Lower 95%", "Upper 95%"})
	for _, s := range sums {
		t.Append([]string{
			fmt.Sprintf("%g", s.Time),
			fmt.Sprintf("%d", s.N),
			cell(s.Mean),
			cell(s.Lower),
			cell(s.Upper),
		})
	}
	t.Render()
}

func cell(v summary.Value) string {
	f, ok := v.Float()
	if !ok {
		return naCell
	}
	return fmt.Sprintf("%.4f", f)
}

// Export writes the five summary tables as CSV and the three plots as
// PNG into dir.
func Export(dir string, rep *app.Report, splitTime float64) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tables := map[string][]summary.Summary{
		"auc_by_time.csv":       rep.AUCByTime,
		"brier_by_time.csv":     rep.BrierByTime,
		"ibs_by_horizon.csv":    rep.IBSByHorizon,
		"cindex_by_horizon.csv": rep.CIndexByHorizon,
		"cif_by_time.csv":       rep.CIFByTime,
	}
	for name, sums := range tables {
		if err := writeCSV(filepath.Join(dir, name), sums); err != nil {
			return err
		}
	}
	if err := PlotSeries(filepath.Join(dir, "auc.png"), "Time-dependent AUC", "AUC", rep.AUCByTime, splitTime); err != nil {
		return err
	}
	if err := PlotSeries(filepath.Join(dir, "brier.png"), "Brier score", "Brier", rep.BrierByTime, splitTime); err != nil {
		return err
	}
	return PlotCIF(filepath.Join(dir, "cif.png"), rep.CIFByTime)
}

func writeCSV(path string, sums []summary.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "n", "mean", "lower", "upper"}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, s := range sums {
		row := []string{
			fmt.Sprintf("%g", s.Time),
			fmt.Sprintf("%d", s.N),
			cell(s.Mean),
			cell(s.Lower),
			cell(s.Upper),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
