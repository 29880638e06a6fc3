package analytics

import (
	"sort"

	"powerpulse/internal/core"
)

// Heatmap is mean active power pivoted into weekday rows and hour columns.
// Only weekdays and hours present in the data become rows and columns; a
// (weekday, hour) pair without observations is Undefined.
type Heatmap struct {
	Weekdays []int     `json:"weekdays"`
	Hours    []int     `json:"hours"`
	Cells    [][]Float `json:"cells"`
}

type cellKey struct {
	weekday, hour int
}

// HourWeekdayHeatmap builds the weekday x hour matrix of rows.
func HourWeekdayHeatmap(rows []core.Record) Heatmap {
	cells := make(map[cellKey][]float64)
	weekdays := make(map[int]struct{})
	hours := make(map[int]struct{})
	for _, r := range rows {
		k := cellKey{weekday: r.Weekday, hour: r.Hour}
		vals := cells[k]
		if v := Float(r.GlobalActivePower); v.Valid() {
			vals = append(vals, float64(v))
		}
		cells[k] = vals
		weekdays[r.Weekday] = struct{}{}
		hours[r.Hour] = struct{}{}
	}

	hm := Heatmap{Weekdays: sortedKeys(weekdays), Hours: sortedKeys(hours)}
	hm.Cells = make([][]Float, len(hm.Weekdays))
	for i, wd := range hm.Weekdays {
		row := make([]Float, len(hm.Hours))
		for j, h := range hm.Hours {
			vals, ok := cells[cellKey{weekday: wd, hour: h}]
			if !ok {
				row[j] = Undefined
				continue
			}
			row[j] = mean(vals)
		}
		hm.Cells[i] = row
	}
	return hm
}

// At returns the cell of (weekday, hour) and whether it is defined.
func (h Heatmap) At(weekday, hour int) (float64, bool) {
	i := sort.SearchInts(h.Weekdays, weekday)
	if i == len(h.Weekdays) || h.Weekdays[i] != weekday {
		return 0, false
	}
	j := sort.SearchInts(h.Hours, hour)
	if j == len(h.Hours) || h.Hours[j] != hour {
		return 0, false
	}
	v := h.Cells[i][j]
	return float64(v), v.Valid()
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
