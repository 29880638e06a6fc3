package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"powerpulse/internal/core"
)

// groups maps a group key to the defined values observed for it, in row
// order. A key is present as soon as one row carries it, even when all of its
// values are NaN.
type groups map[int][]float64

func groupBy(rows []core.Record, key func(core.Record) int, val func(core.Record) float64) groups {
	g := make(groups)
	for _, r := range rows {
		k := key(r)
		vals := g[k]
		if v := val(r); !math.IsNaN(v) {
			vals = append(vals, v)
		}
		g[k] = vals
	}
	return g
}

// keys returns the group keys in ascending order.
func (g groups) keys() []int {
	ks := make([]int, 0, len(g))
	for k := range g {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	return ks
}

func mean(vals []float64) Float {
	if len(vals) == 0 {
		return Undefined
	}
	return Float(stat.Mean(vals, nil))
}

func sum(vals []float64) Float {
	return Float(floats.Sum(vals))
}

// column extracts the defined values of one field.
func column(rows []core.Record, val func(core.Record) float64) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := val(r); !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func activePower(r core.Record) float64   { return r.GlobalActivePower }
func reactivePower(r core.Record) float64 { return r.GlobalReactivePower }
func voltage(r core.Record) float64       { return r.Voltage }
