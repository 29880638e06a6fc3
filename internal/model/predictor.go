package model

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"powerpulse/internal/core"
	"powerpulse/internal/log"
)

// Prediction is the outcome of one prediction request.
type Prediction struct {
	ID       string             `json:"id"`
	Value    float64            `json:"value_kw"`
	Model    string             `json:"model"`
	Kind     string             `json:"kind"`
	Features core.FeatureVector `json:"features"`
	At       time.Time          `json:"at"`
}

// Format renders the value with four decimals and the kW unit.
func (p Prediction) Format() string {
	return FormatKW(p.Value)
}

func FormatKW(v float64) string {
	return fmt.Sprintf("%.4f kW", v)
}

// Info describes the configured artifact.
type Info struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	TrainedAt time.Time `json:"trained_at"`
	Metrics   *Metrics  `json:"metrics,omitempty"`
}

// Predictor evaluates feature vectors against the artifact at a fixed path.
// The artifact is read on every call.
type Predictor struct {
	path   string
	logger *log.Logger
	now    func() time.Time
}

func NewPredictor(path string, logger *log.Logger) *Predictor {
	if logger == nil {
		logger = log.Default()
	}
	return &Predictor{path: path, logger: logger.WithComponent(log.ComponentModel), now: time.Now}
}

// Path returns the artifact location.
func (p *Predictor) Path() string {
	return p.path
}

// Predict runs the model on a single feature vector.
func (p *Predictor) Predict(ctx context.Context, fv core.FeatureVector) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if err := fv.Validate(); err != nil {
		return Prediction{}, err
	}

	a, reg, err := Load(p.path)
	if err != nil {
		p.logger.ErrorContext(ctx, "Model artifact rejected", log.FieldError, err, log.FieldOperation, log.OpLoad)
		return Prediction{}, err
	}

	out, err := reg.Predict([][]float64{fv.Values()})
	if err != nil {
		return Prediction{}, fmt.Errorf("predict with %s: %w", a.Name, err)
	}
	if len(out) != 1 {
		return Prediction{}, fmt.Errorf("%w: %d outputs for one row", ErrInvalidOutput, len(out))
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		return Prediction{}, ErrInvalidOutput
	}

	return Prediction{
		ID:       uuid.NewString(),
		Value:    out[0],
		Model:    a.Name,
		Kind:     a.Kind,
		Features: fv,
		At:       p.now().UTC(),
	}, nil
}

// Describe loads the artifact metadata without running it.
func (p *Predictor) Describe() (Info, error) {
	a, _, err := Load(p.path)
	if err != nil {
		return Info{}, err
	}
	return Info{Name: a.Name, Kind: a.Kind, TrainedAt: a.TrainedAt, Metrics: a.Metrics}, nil
}
