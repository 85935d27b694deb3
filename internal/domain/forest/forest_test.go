package forest_test

import (
	"context"
	"fmt"
	"testing"

	dataset "github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
	forest "github.com/fmhr12/SuevML-CR-RFS/internal/domain/forest"
	"github.com/smartystreets/goconvey/convey"
)

// syntheticTable builds a deterministic table where group "b" fails from
// the cause of interest earlier and more often than group "a".
func syntheticTable(n int) *dataset.Table {
	schema := dataset.Schema{
		TimeColumn:  "time",
		EventColumn: "delta",
		Categorical: []string{"grp"},
		Continuous:  []string{"x"},
	}
	obs := make([]dataset.Observation, 0, n)
	for i := 0; i < n; i++ {
		grp := "a"
		time := 40.0 + float64(i%30)*2
		delta := dataset.CodeCensored
		switch i % 4 {
		case 0:
			grp = "b"
			time = 10 + float64(i%20)
			delta = dataset.CodeEvent
		case 1:
			delta = dataset.CodeCompeting
		case 2:
			delta = dataset.CodeEvent
			time = 60 + float64(i%25)
		}
		obs = append(obs, dataset.Observation{
			Time:  time,
			Delta: delta,
			Cat:   []string{grp},
			Cont:  []float64{float64(i%13) / 2},
		})
	}
	return dataset.New(schema, obs)
}

func baseSpec() forest.ModelSpec {
	return forest.ModelSpec{
		Cause:     dataset.CodeEvent,
		MinLeaf:   5,
		MaxDepth:  4,
		TreeCount: 25,
		SplitRule: forest.SplitRuleLogRank,
		Seed:      42,
	}
}

func TestForestFit(t *testing.T) {
	convey.Convey("Given a training table with competing risks", t, func() {
		train := syntheticTable(60)
		trainer := forest.NewTrainer()
		ctx := context.Background()

		convey.Convey("When fitting with valid hyperparameters", func() {
			model, err := trainer.Fit(ctx, train, baseSpec())

			convey.Convey("Then a model is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(model, convey.ShouldNotBeNil)
			})

			convey.Convey("And predicted CIF curves are probabilities, non-decreasing in time", func() {
				times := []float64{10, 30, 60, 90, 114}
				cif := model.PredictCIF(train, times)
				convey.So(len(cif), convey.ShouldEqual, train.Len())
				for _, row := range cif {
					convey.So(len(row), convey.ShouldEqual, len(times))
					prev := 0.0
					for _, v := range row {
						convey.So(v, convey.ShouldBeBetweenOrEqual, 0, 1)
						convey.So(v, convey.ShouldBeGreaterThanOrEqualTo, prev)
						prev = v
					}
				}
			})
		})

		convey.Convey("When fitting twice with the same seed", func() {
			a, errA := trainer.Fit(ctx, train, baseSpec())
			b, errB := trainer.Fit(ctx, train, baseSpec())
			convey.So(errA, convey.ShouldBeNil)
			convey.So(errB, convey.ShouldBeNil)

			convey.Convey("Then predictions are identical", func() {
				times := []float64{20, 50, 100}
				pa := a.PredictCIF(train, times)
				pb := b.PredictCIF(train, times)
				for i := range pa {
					for j := range pa[i] {
						convey.So(pa[i][j], convey.ShouldEqual, pb[i][j])
					}
				}
			})
		})

		convey.Convey("When the split rule is unknown", func() {
			spec := baseSpec()
			spec.SplitRule = "entropy"
			_, err := trainer.Fit(ctx, train, spec)
			convey.So(err, convey.ShouldWrap, forest.ErrUnknownSplitRule)
		})

		convey.Convey("When hyperparameters are invalid", func() {
			spec := baseSpec()
			spec.MinLeaf = 0
			_, err := trainer.Fit(ctx, train, spec)
			convey.So(err, convey.ShouldWrap, forest.ErrBadHyperparameters)
		})

		convey.Convey("When the training split has no events of the cause", func() {
			schema := train.Schema()
			obs := make([]dataset.Observation, 20)
			for i := range obs {
				obs[i] = dataset.Observation{
					Time:  float64(10 + i),
					Delta: dataset.CodeCensored,
					Cat:   []string{fmt.Sprintf("g%d", i%2)},
					Cont:  []float64{float64(i)},
				}
			}
			degenerate := dataset.New(schema, obs)
			_, err := trainer.Fit(ctx, degenerate, baseSpec())
			convey.So(err, convey.ShouldWrap, forest.ErrDegenerateSplit)
		})

		convey.Convey("When the table is too small for the leaf size", func() {
			small, err := train.Subset([]int{0, 1, 2, 3})
			convey.So(err, convey.ShouldBeNil)
			_, ferr := trainer.Fit(ctx, small, baseSpec())
			convey.So(ferr, convey.ShouldWrap, forest.ErrDegenerateSplit)
		})
	})

	convey.Convey("Given trainer options", t, func() {
		train := syntheticTable(60)
		ctx := context.Background()

		convey.Convey("When mtry spans all predictors", func() {
			trainer := forest.NewTrainer(forest.WithMtry(2), forest.WithNSplit(5))
			model, err := trainer.Fit(ctx, train, baseSpec())
			convey.So(err, convey.ShouldBeNil)
			convey.So(model, convey.ShouldNotBeNil)
		})
	})
}
