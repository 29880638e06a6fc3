package analytics

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Float is a float64 that encodes undefined values (NaN, ±Inf) as JSON null.
type Float float64

// Undefined is the value of an aggregate over an empty set.
var Undefined = Float(math.NaN())

// Valid reports whether f holds a finite number.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Format renders f with exactly digits decimals and thousands separators,
// so 6 renders as "6.00" for two digits. Undefined values render as "n/a".
func (f Float) Format(digits int) string {
	if !f.Valid() {
		return "n/a"
	}
	digits = min(max(digits, 0), 9)
	return humanize.FormatFloat("#,###."+strings.Repeat("#", digits), float64(f))
}

// MarshalJSON encodes f in its shortest form, or null when undefined.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'f', -1, 64), nil
}

// UnmarshalJSON accepts a JSON number or null, which decodes to Undefined.
func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Undefined
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
