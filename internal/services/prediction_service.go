package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"powerpulse/internal/core"
	"powerpulse/internal/log"
	"powerpulse/internal/metrics"
	"powerpulse/internal/model"
	"powerpulse/internal/notify"
)

// Predictor runs the regression model.
type Predictor interface {
	Predict(ctx context.Context, fv core.FeatureVector) (model.Prediction, error)
	Describe() (model.Info, error)
}

// PredictionService validates prediction requests, runs the model and
// announces the result.
type PredictionService struct {
	predictor Predictor
	publisher notify.Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	events    *log.StructuredLogger
}

func NewPredictionService(p Predictor, pub notify.Publisher, m *metrics.Metrics, logger *log.Logger) *PredictionService {
	if pub == nil {
		pub = notify.Noop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PredictionService{
		predictor: p,
		publisher: pub,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentPredict),
		events:    log.NewStructuredLogger(logger),
	}
}

// IsInvalidInput reports whether err was caused by the feature vector rather
// than the model.
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		core.ErrInvalidHour,
		core.ErrInvalidWeekday,
		core.ErrInvalidWeekendFlag,
		core.ErrNonFinite,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Predict runs one prediction. A failed event publish is logged and never
// fails the prediction.
func (s *PredictionService) Predict(ctx context.Context, fv core.FeatureVector) (model.Prediction, error) {
	start := time.Now()
	if err := fv.Validate(); err != nil {
		s.metrics.PredictionObserved(metrics.ResultInvalid, time.Since(start))
		return model.Prediction{}, fmt.Errorf("invalid features: %w", err)
	}

	p, err := s.predictor.Predict(ctx, fv)
	if err != nil {
		result := metrics.ResultModelErr
		if IsInvalidInput(err) {
			result = metrics.ResultInvalid
		}
		s.metrics.PredictionObserved(result, time.Since(start))
		s.events.LogError(ctx, "Prediction failed", err, log.ComponentPredict, log.OpPredict, nil)
		return model.Prediction{}, err
	}
	s.metrics.PredictionObserved(metrics.ResultOK, time.Since(start))
	s.events.LogPrediction(ctx, p.ID, p.Model, p.Value)

	if err := s.publish(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish prediction event",
			log.FieldID, p.ID,
			log.FieldBackend, s.publisher.Backend(),
			log.FieldError, err)
	}
	return p, nil
}

func (s *PredictionService) publish(ctx context.Context, p model.Prediction) error {
	ev := notify.NewPredictionEvent(p.ID, p.Model, p.Value, p.Features, p.At)
	err := s.publisher.Publish(ctx, ev)
	if s.publisher.Backend() != notify.BackendNone {
		s.metrics.EventPublished(s.publisher.Backend(), err)
	}
	return err
}

// ModelInfo describes the configured artifact.
func (s *PredictionService) ModelInfo() (model.Info, error) {
	return s.predictor.Describe()
}

// Close releases the event publisher.
func (s *PredictionService) Close() error {
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close %s publisher: %w", s.publisher.Backend(), err)
	}
	return nil
}
