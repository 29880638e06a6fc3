// Package analytics turns an energy table and a selected month into the
// chart- and table-ready views of the dashboard.
//
// Every function here is pure: inputs are never mutated, nothing is read from
// or written to the outside world, and the same (table, month) pair always
// yields the same report. Grouping is done with explicit key -> values maps so
// that ordering (ascending keys) and missing keys (omitted, never zero-filled)
// are decided here rather than by the consumer.
package analytics
