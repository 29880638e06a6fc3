package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// BoxStats summarises a distribution for box-plot rendering. Whiskers reach
// the most extreme values within 1.5 IQR of the quartiles; values beyond them
// are listed as outliers.
type BoxStats struct {
	Count        int     `json:"count"`
	Min          Float   `json:"min"`
	Q1           Float   `json:"q1"`
	Median       Float   `json:"median"`
	Q3           Float   `json:"q3"`
	Max          Float   `json:"max"`
	LowerWhisker Float   `json:"lower_whisker"`
	UpperWhisker Float   `json:"upper_whisker"`
	Outliers     []Float `json:"outliers"`
}

// Box computes box-plot statistics over the defined values of dist.
func Box(dist []Float) BoxStats {
	x := make([]float64, 0, len(dist))
	for _, v := range dist {
		if v.Valid() {
			x = append(x, float64(v))
		}
	}
	if len(x) == 0 {
		return BoxStats{
			Min: Undefined, Q1: Undefined, Median: Undefined, Q3: Undefined, Max: Undefined,
			LowerWhisker: Undefined, UpperWhisker: Undefined,
		}
	}
	sort.Float64s(x)

	q1, med, q3 := quantile(x, 0.25), quantile(x, 0.5), quantile(x, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	b := BoxStats{
		Count:        len(x),
		Min:          Float(floats.Min(x)),
		Q1:           Float(q1),
		Median:       Float(med),
		Q3:           Float(q3),
		Max:          Float(floats.Max(x)),
		LowerWhisker: Float(q1),
		UpperWhisker: Float(q3),
	}
	for _, v := range x {
		if v < lo || v > hi {
			b.Outliers = append(b.Outliers, Float(v))
			continue
		}
		if v < float64(b.LowerWhisker) {
			b.LowerWhisker = Float(v)
		}
		if v > float64(b.UpperWhisker) {
			b.UpperWhisker = Float(v)
		}
	}
	return b
}

// quantile interpolates linearly between the closest ranks of the sorted
// sample x (Hyndman-Fan type 7).
func quantile(x []float64, p float64) float64 {
	pos := p * float64(len(x)-1)
	lo := math.Floor(pos)
	i := int(lo)
	if i+1 >= len(x) {
		return x[len(x)-1]
	}
	return x[i] + (pos-lo)*(x[i+1]-x[i])
}
