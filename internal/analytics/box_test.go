package analytics

import (
	"math"
	"testing"
)

func TestBox(t *testing.T) {
	b := Box([]Float{1, 2, 3, 4, 100, Float(math.NaN())})
	if b.Count != 5 {
		t.Fatalf("expected 5 defined values, got %d", b.Count)
	}
	if b.Q1 != 2 || b.Median != 3 || b.Q3 != 4 {
		t.Fatalf("unexpected quartiles %v/%v/%v", b.Q1, b.Median, b.Q3)
	}
	if b.Min != 1 || b.Max != 100 {
		t.Fatalf("unexpected range %v..%v", b.Min, b.Max)
	}
	if b.LowerWhisker != 1 || b.UpperWhisker != 4 {
		t.Fatalf("unexpected whiskers %v..%v", b.LowerWhisker, b.UpperWhisker)
	}
	if len(b.Outliers) != 1 || b.Outliers[0] != 100 {
		t.Fatalf("expected outlier 100, got %v", b.Outliers)
	}
}

func TestBoxEmpty(t *testing.T) {
	b := Box(nil)
	if b.Count != 0 || b.Median.Valid() || b.Outliers != nil {
		t.Fatalf("expected undefined stats, got %+v", b)
	}
}

func TestQuantileInterpolates(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if got := quantile(x, 0.5); got != 2.5 {
		t.Fatalf("median: got %v", got)
	}
	if got := quantile(x, 0.25); got != 1.75 {
		t.Fatalf("q1: got %v", got)
	}
	if got := quantile([]float64{7}, 0.75); got != 7 {
		t.Fatalf("single value: got %v", got)
	}
}

func TestFloatJSON(t *testing.T) {
	b, _ := Float(1.25).MarshalJSON()
	if string(b) != "1.25" {
		t.Fatalf("got %s", b)
	}
	b, _ = Undefined.MarshalJSON()
	if string(b) != "null" {
		t.Fatalf("got %s", b)
	}
	var f Float
	if err := f.UnmarshalJSON([]byte("null")); err != nil || f.Valid() {
		t.Fatalf("expected undefined, got %v (%v)", f, err)
	}
}

func TestFloatFormat(t *testing.T) {
	cases := []struct {
		v      Float
		digits int
		want   string
	}{
		{6, 2, "6.00"},
		{0.30000000000000004, 2, "0.30"},
		{240, 2, "240.00"},
		{1234.5678, 3, "1,234.568"},
		{-2.5, 1, "-2.5"},
		{7.4, 0, "7"},
		{Undefined, 2, "n/a"},
	}
	for _, c := range cases {
		if got := c.v.Format(c.digits); got != c.want {
			t.Errorf("Format(%v, %d) = %q, want %q", float64(c.v), c.digits, got, c.want)
		}
	}
}
