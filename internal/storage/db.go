package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// TableName is the relation the dashboard reads.
const TableName = "energy_data"

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config describes how to reach the energy store.
type Config struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// sqlDriver returns the database/sql driver name registered for c.Driver.
func (c Config) sqlDriver() (string, error) {
	switch c.Driver {
	case DriverSQLite, "":
		return "sqlite", nil
	case DriverPostgres:
		return "pgx", nil
	case DriverMySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
}

// DSN renders the connection string for c.Driver.
func (c Config) DSN() string {
	switch c.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
		)
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
		mc.User = c.User
		mc.Passwd = c.Password
		mc.DBName = c.Name
		return mc.FormatDSN()
	}
	return c.Path
}

// String is DSN with the password masked, for logs.
func (c Config) String() string {
	if c.Password == "" {
		return c.DSN()
	}
	masked := c
	masked.Password = "***"
	return masked.DSN()
}

// Open connects to the store described by cfg and checks the connection.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	driver, err := cfg.sqlDriver()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// placeholder returns the n-th (1-based) bind parameter for driver.
func placeholder(driver string, n int) string {
	if driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
