// Package model runs the pre-trained consumption regressor.
//
// The artifact is a JSON document describing either a linear model or a
// random forest of regression trees. Its feature list must match
// core.FeatureNames exactly, in order.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"powerpulse/internal/core"
)

// Model kinds.
const (
	KindLinear       = "linear"
	KindRandomForest = "random_forest"
)

var (
	ErrArtifactUnavailable = errors.New("model artifact unavailable")
	ErrSchemaMismatch      = errors.New("model artifact does not match the feature schema")
	ErrUnknownKind         = errors.New("unknown model kind")
	ErrInvalidOutput       = errors.New("model produced a non-finite value")
)

// Metrics are the evaluation scores recorded at training time.
type Metrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Node is one node of a regression tree. Leaves have Left == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Artifact is the serialized model.
type Artifact struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Features  []string  `json:"features"`
	TrainedAt time.Time `json:"trained_at"`
	Metrics   *Metrics  `json:"metrics,omitempty"`

	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`

	Trees []Tree `json:"trees,omitempty"`
}

// Regressor maps feature rows to predictions, one per row.
type Regressor interface {
	Predict(rows [][]float64) ([]float64, error)
}

// Load reads the artifact at path and builds its regressor.
func Load(path string) (*Artifact, Regressor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, nil, fmt.Errorf("%w: decode %s: %v", ErrArtifactUnavailable, path, err)
	}
	reg, err := a.Regressor()
	if err != nil {
		return nil, nil, err
	}
	return &a, reg, nil
}

// Regressor validates a and returns the model it describes.
func (a *Artifact) Regressor() (Regressor, error) {
	if !slices.Equal(a.Features, core.FeatureNames) {
		return nil, fmt.Errorf("%w: features %v, want %v", ErrSchemaMismatch, a.Features, core.FeatureNames)
	}
	switch a.Kind {
	case KindLinear:
		return newLinear(a.Intercept, a.Coefficients, len(a.Features))
	case KindRandomForest:
		return newForest(a.Trees, len(a.Features))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
}

func checkRows(rows [][]float64, width int) error {
	for i, r := range rows {
		if len(r) != width {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrSchemaMismatch, i, len(r), width)
		}
	}
	return nil
}
