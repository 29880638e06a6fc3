// Package dataset owns the energy table for the lifetime of a process.
//
// The table is loaded at most once, on first use, and handed out through
// counted leases. It is never reloaded or mutated.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"powerpulse/internal/core"
	"powerpulse/internal/log"
)

var (
	ErrInUse  = errors.New("dataset is in use")
	ErrClosed = errors.New("dataset is closed")
)

// Source loads the full energy table.
type Source interface {
	LoadTable(ctx context.Context) (*core.Table, error)
}

// LoadObserver is notified once the single load has finished.
type LoadObserver func(rows int, elapsed time.Duration, err error)

// Handle is the explicitly owned, lazily initialised holder of the table.
type Handle struct {
	source   Source
	logger   *log.Logger
	observer LoadObserver

	group singleflight.Group

	mu      sync.Mutex
	table   *core.Table
	loadErr error
	done    bool
	closed  bool
	refs    int
}

// Option configures a Handle.
type Option func(*Handle)

func WithLogger(l *log.Logger) Option {
	return func(h *Handle) { h.logger = l }
}

func WithLoadObserver(fn LoadObserver) Option {
	return func(h *Handle) { h.observer = fn }
}

// New returns a handle over source. Nothing is loaded until Acquire.
func New(source Source, opts ...Option) *Handle {
	h := &Handle{source: source, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent(log.ComponentDataset)
	return h
}

// Acquire returns a lease on the table, loading it on the first call.
// Concurrent first callers share one load. A failed load is remembered and
// returned to every later caller.
func (h *Handle) Acquire(ctx context.Context) (*Lease, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if h.done {
		defer h.mu.Unlock()
		return h.leaseLocked()
	}
	h.mu.Unlock()

	ch := h.group.DoChan("load", func() (interface{}, error) {
		return nil, h.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ch:
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	return h.leaseLocked()
}

func (h *Handle) leaseLocked() (*Lease, error) {
	if h.loadErr != nil {
		return nil, h.loadErr
	}
	h.refs++
	return &Lease{handle: h, table: h.table}, nil
}

func (h *Handle) load(ctx context.Context) error {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return h.loadErr
	}
	h.mu.Unlock()

	start := time.Now()
	table, err := h.source.LoadTable(ctx)
	elapsed := time.Since(start)
	if err != nil {
		err = fmt.Errorf("load dataset: %w", err)
		h.logger.Error("Dataset load failed", log.FieldError, err, log.FieldDuration, elapsed)
	} else {
		h.logger.Info("Dataset loaded", log.FieldRows, table.Len(), log.FieldDuration, elapsed)
	}
	if h.observer != nil {
		h.observer(table.Len(), elapsed, err)
	}

	h.mu.Lock()
	h.table, h.loadErr, h.done = table, err, true
	h.mu.Unlock()
	return err
}

// Loaded reports whether the table has been loaded successfully.
func (h *Handle) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done && h.loadErr == nil
}

// Err returns the sticky load error, if any.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadErr
}

// Refs returns the number of outstanding leases.
func (h *Handle) Refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

// Close drops the table. It fails while leases are outstanding.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs > 0 {
		return fmt.Errorf("%w: %d leases outstanding", ErrInUse, h.refs)
	}
	h.closed = true
	h.table = nil
	return nil
}

func (h *Handle) release() {
	h.mu.Lock()
	h.refs--
	h.mu.Unlock()
}

// Lease is one counted reference to the loaded table.
type Lease struct {
	handle *Handle
	table  *core.Table
	once   sync.Once
}

// Table returns the leased table. It must not be used after Release.
func (l *Lease) Table() *core.Table {
	return l.table
}

// Release returns the lease. Calling it more than once is a no-op.
func (l *Lease) Release() {
	l.once.Do(l.handle.release)
}
