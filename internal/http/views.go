package http

import (
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"powerpulse/internal/analytics"
	"powerpulse/internal/core"
	"powerpulse/internal/model"
)

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var templateFuncs = template.FuncMap{
	"num":         analytics.Float.Format,
	"kw":          model.FormatKW,
	"comma":       func(n int) string { return humanize.Comma(int64(n)) },
	"ago":         humanize.Time,
	"monthName":   monthName,
	"weekdayName": weekdayName,
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return time.Month(m).String()
}

func weekdayName(d int) string {
	if d < 0 || d >= len(weekdayNames) {
		return strconv.Itoa(d)
	}
	return weekdayNames[d]
}

type pageData struct {
	Title  string
	Active string
}

// modelScore is one row of the model comparison table on the summary page.
type modelScore struct {
	Name string
	RMSE float64
	MAE  float64
	R2   float64
	Best bool
}

// modelScores are the hold-out scores of the candidate models.
var modelScores = []modelScore{
	{Name: "Linear Regression", RMSE: 0.0403, MAE: 0.0258, R2: 0.9986},
	{Name: "Random Forest", RMSE: 0.028, MAE: 0.015, R2: 0.9993, Best: true},
}

type summaryView struct {
	pageData
	Scores     []modelScore
	Model      *model.Info
	ModelError string
}

type dashboardView struct {
	pageData
	Months   []int
	Selected int
	Report   reportView
}

type reportView struct {
	Month int
	// Data is the full report, serialized as JSON for the charts.
	Data    analytics.Report
	Summary analytics.Summary
	Top     []analytics.TopRow
	Box     analytics.BoxStats
	Heat    heatTable
}

type heatTable struct {
	Hours []int
	Rows  []heatRow
}

type heatRow struct {
	Weekday int
	Cells   []heatCell
}

type heatCell struct {
	Hour  int
	Value analytics.Float
	// Alpha is the cell shade in [0, 1] relative to the hottest cell.
	Alpha string
}

func newReportView(r analytics.Report) reportView {
	return reportView{
		Month:   r.Month,
		Data:    r,
		Summary: r.Summary,
		Top:     r.Top,
		Box:     r.Box,
		Heat:    newHeatTable(r.Heatmap),
	}
}

func newHeatTable(hm analytics.Heatmap) heatTable {
	var peak float64
	for _, row := range hm.Cells {
		for _, v := range row {
			if v.Valid() && float64(v) > peak {
				peak = float64(v)
			}
		}
	}

	t := heatTable{Hours: hm.Hours}
	for i, wd := range hm.Weekdays {
		row := heatRow{Weekday: wd}
		for j, h := range hm.Hours {
			v := hm.Cells[i][j]
			alpha := "0"
			if v.Valid() && peak > 0 {
				alpha = fmt.Sprintf("%.2f", float64(v)/peak)
			}
			row.Cells = append(row.Cells, heatCell{Hour: h, Value: v, Alpha: alpha})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// predictField describes one input of the prediction form.
type predictField struct {
	Name  string
	Label string
	Value string
	Step  string
	Min   string
	Max   string
}

type predictView struct {
	pageData
	Left       []predictField
	Right      []predictField
	Model      *model.Info
	ModelError string
}

func predictFields(fv core.FeatureVector) (left, right []predictField) {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	i := strconv.Itoa
	left = []predictField{
		{Name: "voltage", Label: "Voltage (V)", Value: f(fv.Voltage), Step: "any"},
		{Name: "global_intensity", Label: "Global Intensity (A)", Value: f(fv.GlobalIntensity), Step: "any"},
		{Name: "sub_metering_1", Label: "Kitchen Meter (W-h)", Value: f(fv.SubMetering1), Step: "any"},
		{Name: "hour", Label: "Hour of Day", Value: i(fv.Hour), Step: "1", Min: "0", Max: "23"},
		{Name: "is_weekend", Label: "Weekend? (0 = No, 1 = Yes)", Value: i(fv.IsWeekend), Step: "1", Min: "0", Max: "1"},
	}
	right = []predictField{
		{Name: "global_reactive_power", Label: "Reactive Power (kW)", Value: f(fv.GlobalReactivePower), Step: "any"},
		{Name: "sub_metering_2", Label: "Laundry Meter (W-h)", Value: f(fv.SubMetering2), Step: "any"},
		{Name: "sub_metering_3", Label: "AC/Heater Meter (W-h)", Value: f(fv.SubMetering3), Step: "any"},
		{Name: "weekday", Label: "Weekday (0=Mon, 6=Sun)", Value: i(fv.Weekday), Step: "1", Min: "0", Max: "6"},
	}
	return left, right
}

type errorView struct {
	pageData
	Status  int
	Message string
}
