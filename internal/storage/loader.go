package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"powerpulse/internal/core"
	"powerpulse/internal/log"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidValue  = errors.New("invalid value")
)

// Loader reads the full energy table. Each load opens its own connection and
// closes it before returning.
type Loader struct {
	cfg    Config
	logger *log.Logger
}

func NewLoader(cfg Config, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{cfg: cfg, logger: logger.WithComponent(log.ComponentStorage)}
}

// LoadTable runs SELECT * FROM energy_data and maps the result by column
// name. Column matching ignores case, unknown columns are skipped and
// is_weekend is derived from weekday when the store does not have it.
func (l *Loader) LoadTable(ctx context.Context) (*core.Table, error) {
	db, err := Open(ctx, l.cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	l.logger.DebugContext(ctx, "Loading energy table", log.FieldDriver, l.cfg.Driver, log.FieldOperation, log.OpLoad)
	return ReadTable(ctx, db)
}

// ReadTable reads energy_data through an existing connection.
func ReadTable(ctx context.Context, db *sql.DB) (*core.Table, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+TableName)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", TableName, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	m, err := newColumnMap(cols)
	if err != nil {
		return nil, err
	}

	var records []core.Record
	for rows.Next() {
		if err := rows.Scan(m.dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(records)+1, err)
		}
		r, err := m.record()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return core.NewTable(records), nil
}

// columnMap binds result columns to scan targets.
type columnMap struct {
	dest   []any
	values map[string]*sql.NullFloat64
}

func newColumnMap(cols []string) (*columnMap, error) {
	known := make(map[string]string, len(core.RecordColumns))
	for _, c := range core.RecordColumns {
		known[strings.ToLower(c)] = c
	}

	m := &columnMap{
		dest:   make([]any, len(cols)),
		values: make(map[string]*sql.NullFloat64, len(core.RecordColumns)),
	}
	for i, c := range cols {
		name, ok := known[strings.ToLower(c)]
		if !ok {
			m.dest[i] = new(any)
			continue
		}
		if _, dup := m.values[name]; dup {
			return nil, fmt.Errorf("%w: column %s appears more than once", ErrInvalidValue, name)
		}
		v := new(sql.NullFloat64)
		m.values[name] = v
		m.dest[i] = v
	}

	for _, c := range core.RecordColumns {
		if c == core.ColIsWeekend {
			continue
		}
		if _, ok := m.values[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return m, nil
}

func (m *columnMap) float(name string) float64 {
	v := m.values[name]
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func (m *columnMap) int(name string) (int, error) {
	v := m.values[name]
	if !v.Valid {
		return 0, fmt.Errorf("%w: %s is NULL", ErrInvalidValue, name)
	}
	if v.Float64 != math.Trunc(v.Float64) {
		return 0, fmt.Errorf("%w: %s=%v is not an integer", ErrInvalidValue, name, v.Float64)
	}
	return int(v.Float64), nil
}

func (m *columnMap) record() (core.Record, error) {
	r := core.Record{
		GlobalActivePower:   m.float(core.ColGlobalActivePower),
		GlobalReactivePower: m.float(core.ColGlobalReactivePower),
		Voltage:             m.float(core.ColVoltage),
		GlobalIntensity:     m.float(core.ColGlobalIntensity),
		SubMetering1:        m.float(core.ColSubMetering1),
		SubMetering2:        m.float(core.ColSubMetering2),
		SubMetering3:        m.float(core.ColSubMetering3),
	}

	var err error
	if r.Hour, err = m.int(core.ColHour); err != nil {
		return r, err
	}
	if r.Day, err = m.int(core.ColDay); err != nil {
		return r, err
	}
	if r.Month, err = m.int(core.ColMonth); err != nil {
		return r, err
	}
	if r.Weekday, err = m.int(core.ColWeekday); err != nil {
		return r, err
	}
	if _, ok := m.values[core.ColIsWeekend]; ok {
		if r.IsWeekend, err = m.int(core.ColIsWeekend); err != nil {
			return r, err
		}
	} else {
		r.IsWeekend = core.WeekendFlag(r.Weekday)
	}

	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}
