package evaluation

import (
	"sort"

	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
)

// censorKM is the Kaplan-Meier estimate of the censoring survival
// function G, fitted on the test subset with censoring as the event.
// It supplies the inverse-probability-of-censoring weights for the
// Brier score and the time-dependent AUC.
type censorKM struct {
	times []float64
	surv  []float64
}

// newCensorKM fits G on the table's (time, delta) pairs.
func newCensorKM(t *dataset.Table) *censorKM {
	type subject struct {
		time     float64
		censored bool
	}
	subjects := make([]subject, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		o := t.Row(i)
		subjects = append(subjects, subject{time: o.Time, censored: o.Delta == dataset.CodeCensored})
	}
	sort.Slice(subjects, func(a, b int) bool { return subjects[a].time < subjects[b].time })

	km := &censorKM{}
	surv := 1.0
	atRisk := len(subjects)
	for i := 0; i < len(subjects); {
		tm := subjects[i].time
		c, removed := 0, 0
		for ; i < len(subjects) && subjects[i].time == tm; i++ {
			removed++
			if subjects[i].censored {
				c++
			}
		}
		if c > 0 {
			surv *= 1 - float64(c)/float64(atRisk)
			km.times = append(km.times, tm)
			km.surv = append(km.surv, surv)
		}
		atRisk -= removed
	}
	return km
}

// at returns G(t), right-continuous.
func (k *censorKM) at(t float64) float64 {
	i := sort.SearchFloat64s(k.times, t)
	if i < len(k.times) && k.times[i] == t {
		return k.surv[i]
	}
	if i == 0 {
		return 1
	}
	return k.surv[i-1]
}

// before returns G(t-), the value just prior to t.
func (k *censorKM) before(t float64) float64 {
	i := sort.SearchFloat64s(k.times, t)
	if i == 0 {
		return 1
	}
	return k.surv[i-1]
}
