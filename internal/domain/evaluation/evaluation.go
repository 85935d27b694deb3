// Package evaluation computes time-dependent discrimination and
// calibration metrics for a fitted competing-risks model: AUC and Brier
// score per evaluation time, integrated Brier score, and the truncated
// concordance index, all under a Kaplan-Meier censoring model.
//
// A metric that cannot be computed for a given fold/horizon (no cases,
// no comparable pairs, zero usable rows) is reported as a missing value,
// never as an error; downstream aggregation excludes missing values.
package evaluation

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/integrate"

	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/forest"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/summary"
)

// Result carries the per-time series of one evaluation plus the
// integrated Brier score at the maximum requested time.
type Result struct {
	Times []float64
	AUC   []summary.Value
	Brier []summary.Value
	IBS   summary.Value
}

// Evaluator is the metric-computation collaborator boundary.
type Evaluator interface {
	// PredictCIF returns cumulative incidence per test row per time for
	// the cause of interest. Pure function of its inputs.
	PredictCIF(model forest.Model, test *dataset.Table, times []float64) [][]float64

	// Evaluate computes AUC and Brier at each time and IBS at the last.
	Evaluate(ctx context.Context, model forest.Model, test *dataset.Table, times []float64, cause int) (Result, error)

	// Concordance computes the truncated C-index at one horizon.
	Concordance(ctx context.Context, model forest.Model, test *dataset.Table, horizon float64, cause int) summary.Value
}

// KMEvaluator implements Evaluator with inverse-probability-of-censoring
// weights from a Kaplan-Meier censoring model fitted on the test subset.
type KMEvaluator struct{}

// NewEvaluator creates a KM-weighted evaluator.
func NewEvaluator() *KMEvaluator { return &KMEvaluator{} }

// PredictCIF delegates to the fitted model.
func (e *KMEvaluator) PredictCIF(model forest.Model, test *dataset.Table, times []float64) [][]float64 {
	return model.PredictCIF(test, times)
}

// Evaluate computes the time-dependent metric series.
func (e *KMEvaluator) Evaluate(ctx context.Context, model forest.Model, test *dataset.Table, times []float64, cause int) (Result, error) {
	if test.Len() == 0 {
		return Result{}, fmt.Errorf("%w: empty test subset", ErrNoTestRows)
	}
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	cif := model.PredictCIF(test, times)
	km := newCensorKM(test)

	res := Result{
		Times: times,
		AUC:   make([]summary.Value, len(times)),
		Brier: make([]summary.Value, len(times)),
	}
	for j, t := range times {
		risk := column(cif, j)
		res.AUC[j] = aucAt(test, risk, t, cause, km)
		res.Brier[j] = brierAt(test, risk, t, cause, km)
	}
	res.IBS = integrateBrier(times, res.Brier)
	return res, nil
}

// Concordance computes the marginal truncated C-index at the horizon:
// the weighted share of usable pairs where the subject who experiences
// the cause event earlier carries the higher predicted incidence.
func (e *KMEvaluator) Concordance(ctx context.Context, model forest.Model, test *dataset.Table, horizon float64, cause int) summary.Value {
	select {
	case <-ctx.Done():
		return summary.Missing()
	default:
	}
	if test.Len() == 0 {
		return summary.Missing()
	}
	cif := model.PredictCIF(test, []float64{horizon})
	risk := column(cif, 0)

	var concordant, comparable float64
	for i := 0; i < test.Len(); i++ {
		oi := test.Row(i)
		if oi.Delta != cause || oi.Time > horizon {
			continue
		}
		for j := 0; j < test.Len(); j++ {
			if i == j {
				continue
			}
			oj := test.Row(j)
			// j must be known to be event-free of the cause at T_i:
			// either still under observation past T_i, or already taken
			// by a competing event.
			competing := oj.Delta != cause && oj.Delta != dataset.CodeCensored
			if !(oj.Time > oi.Time || (oj.Time <= oi.Time && competing)) {
				continue
			}
			comparable++
			switch {
			case risk[i] > risk[j]:
				concordant++
			case risk[i] == risk[j]:
				concordant += 0.5
			}
		}
	}
	if comparable == 0 {
		return summary.Missing()
	}
	return summary.Some(concordant / comparable)
}

// aucAt computes the IPCW cumulative/dynamic AUC at time t. Cases are
// cause events by t; controls are subjects event-free at t or taken by a
// competing event.
func aucAt(test *dataset.Table, risk []float64, t float64, cause int, km *censorKM) summary.Value {
	type weighted struct {
		risk float64
		w    float64
	}
	var cases, controls []weighted
	for i := 0; i < test.Len(); i++ {
		o := test.Row(i)
		switch {
		case o.Time <= t && o.Delta == cause:
			if g := km.before(o.Time); g > 0 {
				cases = append(cases, weighted{risk: risk[i], w: 1 / g})
			}
		case o.Time > t:
			if g := km.at(t); g > 0 {
				controls = append(controls, weighted{risk: risk[i], w: 1 / g})
			}
		case o.Delta != dataset.CodeCensored:
			// competing event by t keeps the subject a control
			if g := km.before(o.Time); g > 0 {
				controls = append(controls, weighted{risk: risk[i], w: 1 / g})
			}
		}
	}
	if len(cases) == 0 || len(controls) == 0 {
		return summary.Missing()
	}
	var num, den float64
	for _, ca := range cases {
		for _, co := range controls {
			w := ca.w * co.w
			den += w
			switch {
			case ca.risk > co.risk:
				num += w
			case ca.risk == co.risk:
				num += 0.5 * w
			}
		}
	}
	if den == 0 {
		return summary.Missing()
	}
	return summary.Some(num / den)
}

// brierAt computes the IPCW Brier score at time t against the cause
// indicator. Subjects censored before t carry zero weight.
func brierAt(test *dataset.Table, risk []float64, t float64, cause int, km *censorKM) summary.Value {
	var sum float64
	usable := 0
	for i := 0; i < test.Len(); i++ {
		o := test.Row(i)
		switch {
		case o.Time <= t && o.Delta == cause:
			if g := km.before(o.Time); g > 0 {
				d := 1 - risk[i]
				sum += d * d / g
				usable++
			}
		case o.Time <= t && o.Delta != dataset.CodeCensored:
			if g := km.before(o.Time); g > 0 {
				sum += risk[i] * risk[i] / g
				usable++
			}
		case o.Time > t:
			if g := km.at(t); g > 0 {
				sum += risk[i] * risk[i] / g
				usable++
			}
		}
	}
	if usable == 0 {
		return summary.Missing()
	}
	return summary.Some(sum / float64(test.Len()))
}

func integrateBrier(times []float64, brier []summary.Value) summary.Value {
	if len(times) == 0 {
		return summary.Missing()
	}
	return IntegratedBrier(times, brier, times[len(times)-1])
}

// IntegratedBrier computes the integrated Brier score up to the horizon
// by trapezoidal quadrature, anchored at BS(0)=0 and normalized by the
// last integrated time. Missing points are excluded; a series with no
// present point at or before the horizon yields a missing IBS.
func IntegratedBrier(times []float64, brier []summary.Value, horizon float64) summary.Value {
	xs := []float64{0}
	ys := []float64{0}
	for i, v := range brier {
		if times[i] > horizon {
			break
		}
		if f, ok := v.Float(); ok {
			xs = append(xs, times[i])
			ys = append(ys, f)
		}
	}
	if len(xs) < 2 {
		return summary.Missing()
	}
	tmax := xs[len(xs)-1]
	if tmax <= 0 {
		return summary.Missing()
	}
	return summary.Some(integrate.Trapezoidal(xs, ys) / tmax)
}

func column(m [][]float64, j int) []float64 {
	out := make([]float64, len(m))
	for i := range m {
		out[i] = m[i][j]
	}
	return out
}
