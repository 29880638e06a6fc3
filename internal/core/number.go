package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDecimal parses a form value into a float. Both dot (240.5) and comma
// (240,5) decimal separators are accepted.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value: %w", strconv.ErrSyntax)
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}

// ParseBoundedInt parses an integer and checks it lies within [min, max].
func ParseBoundedInt(s string, min, max int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%d outside [%d, %d]", v, min, max)
	}
	return v, nil
}
