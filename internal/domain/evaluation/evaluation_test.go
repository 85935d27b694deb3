package evaluation_test

import (
	"context"
	"testing"

	dataset "github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
	evaluation "github.com/fmhr12/SuevML-CR-RFS/internal/domain/evaluation"
	summary "github.com/fmhr12/SuevML-CR-RFS/internal/domain/summary"
	"github.com/smartystreets/goconvey/convey"
)

// fixedModel predicts a constant per-row incidence, letting tests pin
// the risk ordering exactly.
type fixedModel struct {
	risks []float64
}

func (m *fixedModel) PredictCIF(test *dataset.Table, times []float64) [][]float64 {
	out := make([][]float64, test.Len())
	for i := range out {
		row := make([]float64, len(times))
		for j := range row {
			row[j] = m.risks[i]
		}
		out[i] = row
	}
	return out
}

func testTable() *dataset.Table {
	schema := dataset.Schema{TimeColumn: "time", EventColumn: "delta"}
	return dataset.New(schema, []dataset.Observation{
		{Time: 10, Delta: dataset.CodeEvent},
		{Time: 20, Delta: dataset.CodeEvent},
		{Time: 30, Delta: dataset.CodeCensored},
		{Time: 15, Delta: dataset.CodeCompeting},
	})
}

func TestConcordance(t *testing.T) {
	convey.Convey("Given a test table and an evaluator", t, func() {
		eval := evaluation.NewEvaluator()
		table := testTable()
		ctx := context.Background()

		convey.Convey("When the predicted risks match the event ordering perfectly", func() {
			model := &fixedModel{risks: []float64{0.9, 0.7, 0.3, 0.1}}
			c := eval.Concordance(ctx, model, table, 114, dataset.CodeEvent)

			convey.Convey("Then the C-index is 1", func() {
				v, ok := c.Float()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 1.0)
			})
		})

		convey.Convey("When the predicted risks invert the event ordering", func() {
			model := &fixedModel{risks: []float64{0.1, 0.3, 0.7, 0.9}}
			c := eval.Concordance(ctx, model, table, 114, dataset.CodeEvent)

			convey.Convey("Then the C-index is 0", func() {
				v, ok := c.Float()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 0.0)
			})
		})

		convey.Convey("When ties dominate", func() {
			model := &fixedModel{risks: []float64{0.5, 0.5, 0.5, 0.5}}
			c := eval.Concordance(ctx, model, table, 114, dataset.CodeEvent)

			convey.Convey("Then ties count half", func() {
				v, ok := c.Float()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When no cause event falls inside the horizon", func() {
			model := &fixedModel{risks: []float64{0.9, 0.7, 0.3, 0.1}}
			c := eval.Concordance(ctx, model, table, 5, dataset.CodeEvent)

			convey.Convey("Then the metric is missing, not an error", func() {
				convey.So(c.IsMissing(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestEvaluate(t *testing.T) {
	convey.Convey("Given a test table and a perfectly separating model", t, func() {
		eval := evaluation.NewEvaluator()
		table := testTable()
		model := &fixedModel{risks: []float64{0.9, 0.7, 0.3, 0.1}}
		ctx := context.Background()

		convey.Convey("When evaluating at times {5, 25}", func() {
			res, err := eval.Evaluate(ctx, model, table, []float64{5, 25}, dataset.CodeEvent)

			convey.Convey("Then the series align with the requested times", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Times, convey.ShouldResemble, []float64{5, 25})
				convey.So(len(res.AUC), convey.ShouldEqual, 2)
				convey.So(len(res.Brier), convey.ShouldEqual, 2)
			})

			convey.Convey("And the AUC at 5 is missing for want of cases", func() {
				convey.So(res.AUC[0].IsMissing(), convey.ShouldBeTrue)
			})

			convey.Convey("And the AUC at 25 is 1 for a perfect ordering", func() {
				v, ok := res.AUC[1].Float()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldEqual, 1.0)
			})

			convey.Convey("And Brier and IBS are present probabilistic scores", func() {
				for _, b := range res.Brier {
					f, ok := b.Float()
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(f, convey.ShouldBeBetweenOrEqual, 0, 1)
				}
				ibs, ok := res.IBS.Float()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(ibs, convey.ShouldBeBetweenOrEqual, 0, 1)
			})
		})

		convey.Convey("When the test subset is empty", func() {
			empty := dataset.New(table.Schema(), nil)
			_, err := eval.Evaluate(ctx, &fixedModel{}, empty, []float64{10}, dataset.CodeEvent)
			convey.So(err, convey.ShouldWrap, evaluation.ErrNoTestRows)
		})
	})
}

func TestIntegratedBrier(t *testing.T) {
	convey.Convey("Given a Brier series at times {10, 20}", t, func() {
		times := []float64{10, 20}
		brier := []summary.Value{summary.Some(0.1), summary.Some(0.2)}

		convey.Convey("When integrating up to 20", func() {
			ibs := evaluation.IntegratedBrier(times, brier, 20)

			convey.Convey("Then the trapezoid from BS(0)=0 is normalized by the horizon", func() {
				v, ok := ibs.Float()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(v, convey.ShouldAlmostEqual, 0.1, 1e-12)
			})
		})

		convey.Convey("When integrating up to 10 only", func() {
			ibs := evaluation.IntegratedBrier(times, brier, 10)
			v, ok := ibs.Float()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldAlmostEqual, 0.05, 1e-12)
		})

		convey.Convey("When every point is missing", func() {
			ibs := evaluation.IntegratedBrier(times, []summary.Value{summary.Missing(), summary.Missing()}, 20)
			convey.So(ibs.IsMissing(), convey.ShouldBeTrue)
		})
	})
}
