package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"powerpulse/internal/core"
)

// ReadCSV parses energy records from a CSV whose header names the
// energy_data columns. Empty or "?" readings become gaps (NaN).
func ReadCSV(r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		for _, c := range core.RecordColumns {
			if !strings.EqualFold(strings.TrimSpace(h), c) {
				continue
			}
			if _, dup := index[c]; dup {
				return nil, fmt.Errorf("%w: column %s appears more than once", ErrInvalidValue, c)
			}
			index[c] = i
		}
	}
	for _, c := range core.RecordColumns {
		if _, ok := index[c]; !ok && c != core.ColIsWeekend {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var records []core.Record
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := csvRecord(fields, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func csvRecord(fields []string, index map[string]int) (core.Record, error) {
	var (
		r   core.Record
		err error
	)
	floats := []struct {
		col string
		dst *float64
	}{
		{core.ColGlobalActivePower, &r.GlobalActivePower},
		{core.ColGlobalReactivePower, &r.GlobalReactivePower},
		{core.ColVoltage, &r.Voltage},
		{core.ColGlobalIntensity, &r.GlobalIntensity},
		{core.ColSubMetering1, &r.SubMetering1},
		{core.ColSubMetering2, &r.SubMetering2},
		{core.ColSubMetering3, &r.SubMetering3},
	}
	for _, f := range floats {
		raw := strings.TrimSpace(fields[index[f.col]])
		if raw == "" || raw == "?" {
			*f.dst = math.NaN()
			continue
		}
		if *f.dst, err = core.ParseDecimal(raw); err != nil {
			return r, fmt.Errorf("%w: %s=%q", ErrInvalidValue, f.col, raw)
		}
	}

	ints := []struct {
		col string
		dst *int
	}{
		{core.ColHour, &r.Hour},
		{core.ColDay, &r.Day},
		{core.ColMonth, &r.Month},
		{core.ColWeekday, &r.Weekday},
	}
	for _, f := range ints {
		raw := fields[index[f.col]]
		if *f.dst, err = core.ParseBoundedInt(raw, math.MinInt32, math.MaxInt32); err != nil {
			return r, fmt.Errorf("%w: %s=%q", ErrInvalidValue, f.col, raw)
		}
	}

	if i, ok := index[core.ColIsWeekend]; ok {
		if r.IsWeekend, err = core.ParseBoundedInt(fields[i], 0, 1); err != nil {
			return r, fmt.Errorf("%w: %s=%q", ErrInvalidValue, core.ColIsWeekend, fields[i])
		}
	} else {
		r.IsWeekend = core.WeekendFlag(r.Weekday)
	}
	return r, r.Validate()
}
