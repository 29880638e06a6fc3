package core

import (
	"errors"
	"math"
	"testing"
)

func TestFeatureVectorValidate(t *testing.T) {
	good := DefaultFeatures()
	if err := good.Validate(); err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*FeatureVector)
		want error
	}{
		{"hour too high", func(f *FeatureVector) { f.Hour = 24 }, ErrInvalidHour},
		{"hour negative", func(f *FeatureVector) { f.Hour = -1 }, ErrInvalidHour},
		{"weekday too high", func(f *FeatureVector) { f.Weekday = 7 }, ErrInvalidWeekday},
		{"weekend flag", func(f *FeatureVector) { f.IsWeekend = 2 }, ErrInvalidWeekendFlag},
		{"nan voltage", func(f *FeatureVector) { f.Voltage = math.NaN() }, ErrNonFinite},
		{"inf intensity", func(f *FeatureVector) { f.GlobalIntensity = math.Inf(1) }, ErrNonFinite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := DefaultFeatures()
			tc.mod(&f)
			if err := f.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFeatureVectorValuesOrder(t *testing.T) {
	f := FeatureVector{
		GlobalReactivePower: 1, Voltage: 2, GlobalIntensity: 3,
		SubMetering1: 4, SubMetering2: 5, SubMetering3: 6,
		Hour: 7, Weekday: 8, IsWeekend: 9,
	}
	got := f.Values()
	if len(got) != len(FeatureNames) {
		t.Fatalf("expected %d values, got %d", len(FeatureNames), len(got))
	}
	for i, v := range got {
		if v != float64(i+1) {
			t.Fatalf("value %d (%s) = %v, want %v", i, FeatureNames[i], v, i+1)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	good := Record{Hour: 5, Day: 12, Month: 3, Weekday: 6, IsWeekend: 1, GlobalActivePower: math.NaN()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Record{
		{Hour: 5, Day: 0, Month: 3},
		{Hour: 5, Day: 1, Month: 13},
		{Hour: 25, Day: 1, Month: 1},
		{Hour: 1, Day: 1, Month: 1, GlobalActivePower: math.Inf(-1)},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestWeekendFlag(t *testing.T) {
	for wd := 0; wd <= 6; wd++ {
		want := 0
		if wd >= 5 {
			want = 1
		}
		if got := WeekendFlag(wd); got != want {
			t.Fatalf("WeekendFlag(%d) = %d, want %d", wd, got, want)
		}
	}
}
