package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"powerpulse/internal/analytics"
	"powerpulse/internal/cache"
	"powerpulse/internal/core"
	"powerpulse/internal/dataset"
	"powerpulse/internal/log"
	"powerpulse/internal/metrics"
	"powerpulse/internal/model"
	"powerpulse/internal/notify"
)

type staticSource struct {
	table *core.Table
	err   error
	loads int
}

func (s *staticSource) LoadTable(context.Context) (*core.Table, error) {
	s.loads++
	return s.table, s.err
}

func newHandle(rows ...core.Record) (*dataset.Handle, *staticSource) {
	src := &staticSource{table: core.NewTable(rows)}
	return dataset.New(src, dataset.WithLogger(log.Discard())), src
}

func row(month, day, hour int, power float64) core.Record {
	return core.Record{GlobalActivePower: power, Voltage: 240, Hour: hour, Day: day, Month: month, Weekday: 1}
}

func TestDashboardService_Report(t *testing.T) {
	h, _ := newHandle(row(3, 1, 5, 2.0), row(3, 1, 5, 4.0), row(7, 2, 9, 1.0))
	reports := cache.NewLRU[int, analytics.Report](4, 0)
	svc := NewDashboardService(h, reports, metrics.New(), log.Discard())
	ctx := context.Background()

	r, err := svc.Report(ctx, Selection{Month: 3})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(r.Hourly) != 1 || float64(r.Hourly[0].Value) != 3.0 {
		t.Fatalf("unexpected hourly series %+v", r.Hourly)
	}
	if h.Refs() != 0 {
		t.Fatalf("lease leaked, refs = %d", h.Refs())
	}

	if _, err := svc.Report(ctx, Selection{Month: 3}); err != nil {
		t.Fatal(err)
	}
	if s := reports.Stats(); s.Hits != 1 {
		t.Fatalf("second report should be cached, stats %+v", s)
	}

	if _, err := svc.Report(ctx, Selection{Month: 12}); !errors.Is(err, ErrUnknownMonth) {
		t.Fatalf("expected ErrUnknownMonth, got %v", err)
	}
}

func TestDashboardService_Resolve(t *testing.T) {
	h, _ := newHandle(row(7, 2, 9, 1.0), row(3, 1, 5, 2.0))
	svc := NewDashboardService(h, nil, nil, log.Discard())

	tests := []struct {
		requested, want int
	}{
		{requested: 7, want: 7},
		{requested: 0, want: 3},
		{requested: 11, want: 3},
	}
	for _, tt := range tests {
		sel, months, err := svc.Resolve(context.Background(), tt.requested)
		if err != nil {
			t.Fatalf("Resolve(%d) error = %v", tt.requested, err)
		}
		if sel.Month != tt.want {
			t.Fatalf("Resolve(%d) = %d, want %d", tt.requested, sel.Month, tt.want)
		}
		if len(months) != 2 || months[0] != 3 || months[1] != 7 {
			t.Fatalf("months = %v", months)
		}
	}
}

func TestDashboardService_EmptyAndUnavailable(t *testing.T) {
	empty, _ := newHandle()
	if _, _, err := NewDashboardService(empty, nil, nil, nil).Resolve(context.Background(), 1); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	boom := errors.New("store down")
	src := &staticSource{err: boom}
	broken := dataset.New(src, dataset.WithLogger(log.Discard()))
	svc := NewDashboardService(broken, nil, nil, log.Discard())
	for i := 0; i < 2; i++ {
		if _, err := svc.Report(context.Background(), Selection{Month: 1}); !errors.Is(err, boom) {
			t.Fatalf("expected load error, got %v", err)
		}
	}
	if src.loads != 1 {
		t.Fatalf("failed load must not be retried, loads = %d", src.loads)
	}
}

type fakePredictor struct {
	value float64
	err   error
}

func (f fakePredictor) Predict(_ context.Context, fv core.FeatureVector) (model.Prediction, error) {
	if f.err != nil {
		return model.Prediction{}, f.err
	}
	return model.Prediction{ID: "p-1", Value: f.value, Model: "fake", Features: fv, At: time.Now()}, nil
}

func (f fakePredictor) Describe() (model.Info, error) {
	return model.Info{Name: "fake", Kind: model.KindLinear}, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.PredictionEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e notify.PredictionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Backend() string { return notify.BackendAMQP }
func (r *recordingPublisher) Close() error    { return nil }

func TestPredictionService_Predict(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewPredictionService(fakePredictor{value: 1.25}, pub, metrics.New(), log.Discard())

	p, err := svc.Predict(context.Background(), core.DefaultFeatures())
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if p.Format() != "1.2500 kW" {
		t.Fatalf("Format() = %q", p.Format())
	}
	if len(pub.events) != 1 || pub.events[0].Type != notify.EventPredictionCompleted || pub.events[0].ValueKW != 1.25 {
		t.Fatalf("unexpected events %+v", pub.events)
	}
}

func TestPredictionService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker gone")}
	svc := NewPredictionService(fakePredictor{value: 2}, pub, nil, log.Discard())

	if _, err := svc.Predict(context.Background(), core.DefaultFeatures()); err != nil {
		t.Fatalf("publish failure must not fail the prediction: %v", err)
	}
}

func TestPredictionService_Errors(t *testing.T) {
	svc := NewPredictionService(fakePredictor{value: 1}, nil, nil, log.Discard())
	fv := core.DefaultFeatures()
	fv.Weekday = 9
	_, err := svc.Predict(context.Background(), fv)
	if !errors.Is(err, core.ErrInvalidWeekday) || !IsInvalidInput(err) {
		t.Fatalf("expected invalid weekday, got %v", err)
	}

	svc = NewPredictionService(fakePredictor{err: model.ErrSchemaMismatch}, nil, nil, log.Discard())
	_, err = svc.Predict(context.Background(), core.DefaultFeatures())
	if !errors.Is(err, model.ErrSchemaMismatch) || IsInvalidInput(err) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
