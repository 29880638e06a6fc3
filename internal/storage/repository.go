package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"powerpulse/internal/core"
	"powerpulse/internal/log"
)

// Repository is the write side of the energy store, used by the import and
// migrate commands.
type Repository struct {
	db     *sql.DB
	driver string
	logger *log.Logger
}

// NewRepository opens the store described by cfg.
func NewRepository(ctx context.Context, cfg Config, logger *log.Logger) (*Repository, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	return &Repository{db: db, driver: driver, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying pool.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Migrate applies the embedded schema.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := RunMigrations(r.db, r.driver); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Migrations applied", log.FieldDriver, r.driver, log.FieldOperation, log.OpMigrate)
	return nil
}

// InsertRecords writes records in a single transaction. Either all rows are
// stored or none.
func (r *Repository) InsertRecords(ctx context.Context, records []core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.insertSQL())
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "Energy records imported", log.FieldRows, len(records), log.FieldOperation, log.OpImport)
	return len(records), nil
}

// CountRecords returns the number of rows in energy_data.
func (r *Repository) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (r *Repository) insertSQL() string {
	marks := make([]string, len(core.RecordColumns))
	for i := range marks {
		marks[i] = placeholder(r.driver, i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(core.RecordColumns, ", "), strings.Join(marks, ", "))
}

func recordArgs(r core.Record) []any {
	return []any{
		nullable(r.GlobalActivePower),
		nullable(r.GlobalReactivePower),
		nullable(r.Voltage),
		nullable(r.GlobalIntensity),
		nullable(r.SubMetering1),
		nullable(r.SubMetering2),
		nullable(r.SubMetering3),
		r.Hour,
		r.Day,
		r.Month,
		r.Weekday,
		r.IsWeekend,
	}
}

// nullable stores a gap (NaN) as NULL.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}
