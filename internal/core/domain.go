package core

import (
	"errors"
	"fmt"
	"math"
)

// Column names of the energy_data table.
const (
	ColGlobalActivePower   = "Global_active_power"
	ColGlobalReactivePower = "Global_reactive_power"
	ColVoltage             = "Voltage"
	ColGlobalIntensity     = "Global_intensity"
	ColSubMetering1        = "Sub_metering_1"
	ColSubMetering2        = "Sub_metering_2"
	ColSubMetering3        = "Sub_metering_3"
	ColHour                = "hour"
	ColDay                 = "day"
	ColMonth               = "month"
	ColWeekday             = "weekday"
	ColIsWeekend           = "is_weekend"
)

// RecordColumns lists every energy_data column in table order.
var RecordColumns = []string{
	ColGlobalActivePower,
	ColGlobalReactivePower,
	ColVoltage,
	ColGlobalIntensity,
	ColSubMetering1,
	ColSubMetering2,
	ColSubMetering3,
	ColHour,
	ColDay,
	ColMonth,
	ColWeekday,
	ColIsWeekend,
}

// FeatureNames is the column order the regression model was trained with.
var FeatureNames = []string{
	ColGlobalReactivePower,
	ColVoltage,
	ColGlobalIntensity,
	ColSubMetering1,
	ColSubMetering2,
	ColSubMetering3,
	ColHour,
	ColWeekday,
	ColIsWeekend,
}

type (
	// Record is one time-bucketed observation of household consumption.
	Record struct {
		GlobalActivePower   float64 `json:"global_active_power"`
		GlobalReactivePower float64 `json:"global_reactive_power"`
		Voltage             float64 `json:"voltage"`
		GlobalIntensity     float64 `json:"global_intensity"`
		SubMetering1        float64 `json:"sub_metering_1"`
		SubMetering2        float64 `json:"sub_metering_2"`
		SubMetering3        float64 `json:"sub_metering_3"`
		Hour                int     `json:"hour"`
		Day                 int     `json:"day"`
		Month               int     `json:"month"`
		Weekday             int     `json:"weekday"`
		IsWeekend           int     `json:"is_weekend"`
	}

	// FeatureVector is the nine-field input of the prediction model.
	FeatureVector struct {
		GlobalReactivePower float64 `json:"global_reactive_power"`
		Voltage             float64 `json:"voltage"`
		GlobalIntensity     float64 `json:"global_intensity"`
		SubMetering1        float64 `json:"sub_metering_1"`
		SubMetering2        float64 `json:"sub_metering_2"`
		SubMetering3        float64 `json:"sub_metering_3"`
		Hour                int     `json:"hour"`
		Weekday             int     `json:"weekday"`
		IsWeekend           int     `json:"is_weekend"`
	}
)

var (
	ErrInvalidHour        = errors.New("invalid hour")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidWeekday     = errors.New("invalid weekday")
	ErrInvalidWeekendFlag = errors.New("invalid weekend flag")
	ErrNonFinite          = errors.New("value is not a finite number")
)

// WeekendFlag derives is_weekend from a Monday-based weekday.
func WeekendFlag(weekday int) int {
	if weekday >= 5 {
		return 1
	}
	return 0
}

// DefaultFeatures returns the values the prediction form starts with.
func DefaultFeatures() FeatureVector {
	return FeatureVector{
		GlobalReactivePower: 0.1,
		Voltage:             240.0,
		GlobalIntensity:     5.0,
		SubMetering1:        1.0,
		SubMetering2:        1.0,
		SubMetering3:        6.0,
		Hour:                12,
		Weekday:             2,
		IsWeekend:           0,
	}
}

// Values returns the features in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.GlobalReactivePower,
		f.Voltage,
		f.GlobalIntensity,
		f.SubMetering1,
		f.SubMetering2,
		f.SubMetering3,
		float64(f.Hour),
		float64(f.Weekday),
		float64(f.IsWeekend),
	}
}

func (f FeatureVector) Validate() error {
	if err := validateTime(f.Hour, f.Weekday, f.IsWeekend); err != nil {
		return err
	}
	for i, v := range f.Values()[:6] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: %w", FeatureNames[i], ErrNonFinite)
		}
	}
	return nil
}

// Validate checks the calendar columns of a record. Power readings may be NaN
// when the source has gaps, so only infinities are rejected for them.
func (r Record) Validate() error {
	if err := validateTime(r.Hour, r.Weekday, r.IsWeekend); err != nil {
		return err
	}
	if r.Day < 1 || r.Day > 31 {
		return ErrInvalidDay
	}
	if r.Month < 1 || r.Month > 12 {
		return ErrInvalidMonth
	}
	for _, v := range []float64{
		r.GlobalActivePower, r.GlobalReactivePower, r.Voltage, r.GlobalIntensity,
		r.SubMetering1, r.SubMetering2, r.SubMetering3,
	} {
		if math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}

func validateTime(hour, weekday, weekend int) error {
	if hour < 0 || hour > 23 {
		return ErrInvalidHour
	}
	if weekday < 0 || weekday > 6 {
		return ErrInvalidWeekday
	}
	if weekend != 0 && weekend != 1 {
		return ErrInvalidWeekendFlag
	}
	return nil
}
