package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"powerpulse/internal/analytics"
	"powerpulse/internal/cache"
	"powerpulse/internal/dataset"
	"powerpulse/internal/log"
	"powerpulse/internal/metrics"
)

var (
	ErrUnknownMonth = errors.New("month not present in the dataset")
	ErrNoData       = errors.New("dataset has no records")
)

// TableSource hands out leases on the loaded energy table.
type TableSource interface {
	Acquire(ctx context.Context) (*dataset.Lease, error)
}

// Selection is the dashboard state a request carries.
type Selection struct {
	Month int
}

// DashboardService answers month selector and report requests.
type DashboardService struct {
	data    TableSource
	reports cache.Cache[int, analytics.Report]
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewDashboardService(data TableSource, reports cache.Cache[int, analytics.Report], m *metrics.Metrics, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Default()
	}
	return &DashboardService{
		data:    data,
		reports: reports,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentDashboard),
	}
}

// Months returns the distinct months of the table, ascending.
func (s *DashboardService) Months(ctx context.Context) ([]int, error) {
	lease, err := s.data.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire dataset: %w", err)
	}
	defer lease.Release()
	return analytics.Months(lease.Table()), nil
}

// Resolve turns a requested month into a selection. An absent (zero) or
// unknown month falls back to the first observed month.
func (s *DashboardService) Resolve(ctx context.Context, requested int) (Selection, []int, error) {
	months, err := s.Months(ctx)
	if err != nil {
		return Selection{}, nil, err
	}
	if len(months) == 0 {
		return Selection{}, months, ErrNoData
	}
	if slices.Contains(months, requested) {
		return Selection{Month: requested}, months, nil
	}
	return Selection{Month: months[0]}, months, nil
}

// Report computes, or returns the cached, report of sel.Month. The returned
// report is shared and must not be modified.
func (s *DashboardService) Report(ctx context.Context, sel Selection) (analytics.Report, error) {
	if s.reports != nil {
		if r, ok := s.reports.Get(sel.Month); ok {
			s.metrics.ReportServed(true)
			return r, nil
		}
	}

	lease, err := s.data.Acquire(ctx)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("acquire dataset: %w", err)
	}
	defer lease.Release()

	table := lease.Table()
	if !table.HasMonth(sel.Month) {
		return analytics.Report{}, fmt.Errorf("%w: %d", ErrUnknownMonth, sel.Month)
	}

	r := analytics.Compute(table, sel.Month)
	if s.reports != nil {
		s.reports.Set(sel.Month, r)
	}
	s.metrics.ReportServed(false)
	s.logger.DebugContext(ctx, "Report computed", log.FieldMonth, sel.Month, log.FieldRows, r.Summary.Count)
	return r, nil
}
