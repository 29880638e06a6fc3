package analytics

import (
	"sort"

	"powerpulse/internal/core"
)

// TopN is the number of highest-consumption rows a report lists.
const TopN = 5

// Labels used by the categorical views.
const (
	LabelWeekday    = "Weekday"
	LabelWeekend    = "Weekend"
	LabelKitchen    = "Kitchen"
	LabelLaundry    = "Laundry"
	LabelClimate    = "AC & Heater"
	weekendFlagTrue = 1
)

type (
	// Summary holds the three headline metrics of a month.
	Summary struct {
		Count         int   `json:"count"`
		ActivePower   Float `json:"active_power_kw"`
		ReactivePower Float `json:"reactive_power_kw"`
		VoltageMean   Float `json:"voltage_mean_v"`
	}

	// Point is one (key, value) sample of a series keyed by hour or day.
	Point struct {
		Key   int   `json:"key"`
		Value Float `json:"value"`
	}

	// Category is a labelled aggregate.
	Category struct {
		Label string `json:"label"`
		Value Float  `json:"value"`
	}

	// TopRow is one of the highest-consumption observations.
	TopRow struct {
		Day               int   `json:"day"`
		Month             int   `json:"month"`
		Hour              int   `json:"hour"`
		GlobalActivePower Float `json:"global_active_power"`
	}

	// Report bundles every view of the dashboard for one month.
	Report struct {
		Month          int        `json:"month"`
		Summary        Summary    `json:"summary"`
		Hourly         []Point    `json:"hourly"`
		Daily          []Point    `json:"daily"`
		WeekdayWeekend []Category `json:"weekday_weekend"`
		Distribution   []Float    `json:"distribution"`
		Box            BoxStats   `json:"box"`
		Top            []TopRow   `json:"top"`
		EnergySplit    []Category `json:"energy_split"`
		Heatmap        Heatmap    `json:"heatmap"`
	}
)

// Months returns the distinct months of t in ascending order.
func Months(t *core.Table) []int {
	return t.Months()
}

// Filter returns the rows of month m in table order.
func Filter(t *core.Table, m int) []core.Record {
	return t.Filter(func(r core.Record) bool { return r.Month == m })
}

// Compute builds the full report of month m.
func Compute(t *core.Table, m int) Report {
	rows := Filter(t, m)
	dist := Distribution(rows)
	return Report{
		Month:          m,
		Summary:        Summarize(rows),
		Hourly:         Hourly(rows),
		Daily:          Daily(rows),
		WeekdayWeekend: WeekdayWeekend(rows),
		Distribution:   dist,
		Box:            Box(dist),
		Top:            Top(rows, TopN),
		EnergySplit:    EnergySplit(rows),
		Heatmap:        HourWeekdayHeatmap(rows),
	}
}

// Summarize sums active and reactive power and averages voltage. The mean of
// an empty set is Undefined.
func Summarize(rows []core.Record) Summary {
	return Summary{
		Count:         len(rows),
		ActivePower:   sum(column(rows, activePower)),
		ReactivePower: sum(column(rows, reactivePower)),
		VoltageMean:   mean(column(rows, voltage)),
	}
}

// Hourly averages active power per hour, ascending by hour.
func Hourly(rows []core.Record) []Point {
	g := groupBy(rows, func(r core.Record) int { return r.Hour }, activePower)
	out := make([]Point, 0, len(g))
	for _, h := range g.keys() {
		out = append(out, Point{Key: h, Value: mean(g[h])})
	}
	return out
}

// Daily sums active power per day of month, ascending by day.
func Daily(rows []core.Record) []Point {
	g := groupBy(rows, func(r core.Record) int { return r.Day }, activePower)
	out := make([]Point, 0, len(g))
	for _, d := range g.keys() {
		out = append(out, Point{Key: d, Value: sum(g[d])})
	}
	return out
}

// WeekdayWeekend averages active power for weekdays and weekends. A category
// with no rows is left out.
func WeekdayWeekend(rows []core.Record) []Category {
	g := groupBy(rows, func(r core.Record) int { return r.IsWeekend }, activePower)
	out := make([]Category, 0, 2)
	for _, flag := range g.keys() {
		label := LabelWeekday
		if flag == weekendFlagTrue {
			label = LabelWeekend
		}
		out = append(out, Category{Label: label, Value: mean(g[flag])})
	}
	return out
}

// Distribution returns the raw active power column of rows.
func Distribution(rows []core.Record) []Float {
	out := make([]Float, len(rows))
	for i, r := range rows {
		out[i] = Float(r.GlobalActivePower)
	}
	return out
}

// Top returns the n rows with the highest active power, descending. Ties keep
// their table order and undefined readings sort last.
func Top(rows []core.Record, n int) []TopRow {
	sorted := make([]core.Record, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := Float(sorted[i].GlobalActivePower), Float(sorted[j].GlobalActivePower)
		if !b.Valid() {
			return a.Valid()
		}
		return a.Valid() && a > b
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]TopRow, n)
	for i, r := range sorted[:n] {
		out[i] = TopRow{Day: r.Day, Month: r.Month, Hour: r.Hour, GlobalActivePower: Float(r.GlobalActivePower)}
	}
	return out
}

// EnergySplit sums the three sub-meters.
func EnergySplit(rows []core.Record) []Category {
	return []Category{
		{Label: LabelKitchen, Value: sum(column(rows, func(r core.Record) float64 { return r.SubMetering1 }))},
		{Label: LabelLaundry, Value: sum(column(rows, func(r core.Record) float64 { return r.SubMetering2 }))},
		{Label: LabelClimate, Value: sum(column(rows, func(r core.Record) float64 { return r.SubMetering3 }))},
	}
}
