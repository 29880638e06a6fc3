package analytics_test

import (
	"encoding/json"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"powerpulse/internal/analytics"
	"powerpulse/internal/core"
)

func rec(month, day, hour, weekday int, power float64) core.Record {
	return core.Record{
		GlobalActivePower:   power,
		GlobalReactivePower: power / 10,
		Voltage:             240,
		GlobalIntensity:     power * 4,
		SubMetering1:        1,
		SubMetering2:        2,
		SubMetering3:        3,
		Hour:                hour,
		Day:                 day,
		Month:               month,
		Weekday:             weekday,
		IsWeekend:           core.WeekendFlag(weekday),
	}
}

func sampleTable() *core.Table {
	return core.NewTable([]core.Record{
		rec(1, 1, 0, 0, 1.5),
		rec(1, 1, 5, 0, 2.0),
		rec(1, 2, 5, 1, 4.0),
		rec(1, 6, 13, 5, 3.0),
		rec(1, 7, 13, 6, 0.5),
		rec(1, 7, 23, 6, 4.0),
		rec(2, 3, 8, 2, 9.0),
		rec(2, 4, 8, 3, 1.0),
		rec(3, 9, 20, 4, 0.25),
	})
}

func TestFilter(t *testing.T) {
	Convey("Given a table spanning three months", t, func() {
		table := sampleTable()

		Convey("When filtering by month 1", func() {
			rows := analytics.Filter(table, 1)

			Convey("Then every row belongs to month 1 and the count matches", func() {
				So(rows, ShouldHaveLength, 6)
				for _, r := range rows {
					So(r.Month, ShouldEqual, 1)
				}
			})

			Convey("And table order is kept", func() {
				So(rows[0].Hour, ShouldEqual, 0)
				So(rows[5].Hour, ShouldEqual, 23)
			})
		})

		Convey("When filtering by a month with no rows", func() {
			So(analytics.Filter(table, 12), ShouldBeEmpty)
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given the rows of month 1", t, func() {
		s := analytics.Summarize(analytics.Filter(sampleTable(), 1))

		So(s.Count, ShouldEqual, 6)
		So(float64(s.ActivePower), ShouldAlmostEqual, 15.0, 1e-9)
		So(float64(s.ReactivePower), ShouldAlmostEqual, 1.5, 1e-9)
		So(float64(s.VoltageMean), ShouldEqual, 240.0)
	})

	Convey("Given no rows", t, func() {
		s := analytics.Summarize(nil)

		Convey("Then sums are zero and the voltage mean is undefined", func() {
			So(s.Count, ShouldEqual, 0)
			So(float64(s.ActivePower), ShouldEqual, 0.0)
			So(float64(s.ReactivePower), ShouldEqual, 0.0)
			So(s.VoltageMean.Valid(), ShouldBeFalse)
		})

		Convey("And the undefined mean encodes as null", func() {
			b, err := json.Marshal(s)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"voltage_mean_v":null`)
		})
	})
}

func TestHourly(t *testing.T) {
	Convey("Given two readings at the same hour", t, func() {
		rows := []core.Record{rec(1, 1, 5, 0, 2.0), rec(1, 1, 5, 0, 4.0)}

		Convey("Then the hourly series has one point with their mean", func() {
			points := analytics.Hourly(rows)
			So(points, ShouldHaveLength, 1)
			So(points[0].Key, ShouldEqual, 5)
			So(float64(points[0].Value), ShouldEqual, 3.0)
		})
	})

	Convey("Given the rows of month 1", t, func() {
		points := analytics.Hourly(analytics.Filter(sampleTable(), 1))

		Convey("Then hours are unique, ascending and within the day", func() {
			So(len(points), ShouldBeLessThanOrEqualTo, 24)
			So(points, ShouldHaveLength, 4)
			for i, p := range points {
				So(p.Key, ShouldBeBetweenOrEqual, 0, 23)
				if i > 0 {
					So(p.Key, ShouldBeGreaterThan, points[i-1].Key)
				}
			}
			So(float64(points[1].Value), ShouldEqual, 3.0)
			So(float64(points[2].Value), ShouldEqual, 1.75)
		})
	})
}

func TestDaily(t *testing.T) {
	Convey("Given the rows of month 1", t, func() {
		rows := analytics.Filter(sampleTable(), 1)
		points := analytics.Daily(rows)

		Convey("Then daily sums add up to the month total", func() {
			var total float64
			for _, p := range points {
				total += float64(p.Value)
			}
			So(total, ShouldAlmostEqual, float64(analytics.Summarize(rows).ActivePower), 1e-9)
		})

		Convey("And days are ascending", func() {
			keys := make([]int, len(points))
			for i, p := range points {
				keys[i] = p.Key
			}
			So(keys, ShouldResemble, []int{1, 2, 6, 7})
			So(float64(points[3].Value), ShouldEqual, 4.5)
		})
	})
}

func TestWeekdayWeekend(t *testing.T) {
	Convey("Given a month with both weekdays and weekends", t, func() {
		cats := analytics.WeekdayWeekend(analytics.Filter(sampleTable(), 1))

		So(cats, ShouldHaveLength, 2)
		So(cats[0].Label, ShouldEqual, analytics.LabelWeekday)
		So(float64(cats[0].Value), ShouldAlmostEqual, 7.5/3, 1e-9)
		So(cats[1].Label, ShouldEqual, analytics.LabelWeekend)
		So(float64(cats[1].Value), ShouldAlmostEqual, 7.5/3, 1e-9)
	})

	Convey("Given a month with weekdays only", t, func() {
		cats := analytics.WeekdayWeekend(analytics.Filter(sampleTable(), 2))

		Convey("Then the weekend category is omitted", func() {
			So(cats, ShouldHaveLength, 1)
			So(cats[0].Label, ShouldEqual, analytics.LabelWeekday)
			So(float64(cats[0].Value), ShouldEqual, 5.0)
		})
	})
}

func TestTop(t *testing.T) {
	Convey("Given the rows of month 1", t, func() {
		top := analytics.Top(analytics.Filter(sampleTable(), 1), analytics.TopN)

		Convey("Then five rows are returned in descending order", func() {
			So(top, ShouldHaveLength, 5)
			for i := 1; i < len(top); i++ {
				So(float64(top[i-1].GlobalActivePower), ShouldBeGreaterThanOrEqualTo, float64(top[i].GlobalActivePower))
			}
		})

		Convey("And ties keep table order", func() {
			So(top[0].Day, ShouldEqual, 2)
			So(top[0].Hour, ShouldEqual, 5)
			So(top[1].Day, ShouldEqual, 7)
			So(top[1].Hour, ShouldEqual, 23)
		})
	})

	Convey("Given fewer rows than requested", t, func() {
		top := analytics.Top(analytics.Filter(sampleTable(), 3), analytics.TopN)
		So(top, ShouldHaveLength, 1)
		So(top[0].Month, ShouldEqual, 3)
	})

	Convey("Given a gap in the readings", t, func() {
		rows := []core.Record{rec(1, 1, 1, 0, math.NaN()), rec(1, 1, 2, 0, 1.0)}
		top := analytics.Top(rows, 2)

		Convey("Then the undefined reading sorts last", func() {
			So(top[0].Hour, ShouldEqual, 2)
			So(top[1].GlobalActivePower.Valid(), ShouldBeFalse)
		})
	})
}

func TestEnergySplit(t *testing.T) {
	Convey("Given the rows of month 2", t, func() {
		split := analytics.EnergySplit(analytics.Filter(sampleTable(), 2))

		So(split, ShouldHaveLength, 3)
		So(split[0].Label, ShouldEqual, analytics.LabelKitchen)
		So(float64(split[0].Value), ShouldEqual, 2.0)
		So(split[1].Label, ShouldEqual, analytics.LabelLaundry)
		So(float64(split[1].Value), ShouldEqual, 4.0)
		So(split[2].Label, ShouldEqual, analytics.LabelClimate)
		So(float64(split[2].Value), ShouldEqual, 6.0)
	})
}

func TestHeatmap(t *testing.T) {
	Convey("Given the rows of month 1", t, func() {
		hm := analytics.HourWeekdayHeatmap(analytics.Filter(sampleTable(), 1))

		Convey("Then rows and columns cover the observed weekdays and hours", func() {
			So(hm.Weekdays, ShouldResemble, []int{0, 1, 5, 6})
			So(hm.Hours, ShouldResemble, []int{0, 5, 13, 23})
			So(hm.Cells, ShouldHaveLength, 4)
			for _, row := range hm.Cells {
				So(row, ShouldHaveLength, 4)
			}
		})

		Convey("And observed pairs carry their mean", func() {
			v, ok := hm.At(6, 23)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 4.0)
		})

		Convey("And unobserved pairs are undefined", func() {
			_, ok := hm.At(1, 0)
			So(ok, ShouldBeFalse)
			_, ok = hm.At(3, 5)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCompute(t *testing.T) {
	Convey("Given a table", t, func() {
		table := sampleTable()
		before := table.Rows()

		Convey("When computing the same month twice", func() {
			a, err := json.Marshal(analytics.Compute(table, 1))
			So(err, ShouldBeNil)
			b, err := json.Marshal(analytics.Compute(table, 1))
			So(err, ShouldBeNil)

			Convey("Then the reports are identical and the table is untouched", func() {
				So(string(a), ShouldEqual, string(b))
				So(table.Rows(), ShouldResemble, before)
			})
		})

		Convey("When computing a month with no rows", func() {
			r := analytics.Compute(table, 11)

			Convey("Then every view is empty", func() {
				So(r.Summary.Count, ShouldEqual, 0)
				So(r.Hourly, ShouldBeEmpty)
				So(r.Daily, ShouldBeEmpty)
				So(r.WeekdayWeekend, ShouldBeEmpty)
				So(r.Top, ShouldBeEmpty)
				So(r.Heatmap.Cells, ShouldBeEmpty)
				So(r.Box.Count, ShouldEqual, 0)
			})
		})
	})
}
