// Package notify describes the events PowerPulse emits and the publisher
// contract the broker adapters implement.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"powerpulse/internal/core"
)

// Backends.
const (
	BackendNone = "none"
	BackendAMQP = "amqp"
	BackendMQTT = "mqtt"
)

// EventPredictionCompleted is the type of PredictionEvent.
const EventPredictionCompleted = "prediction.completed"

// PredictionEvent announces a successful prediction.
type PredictionEvent struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	At       time.Time          `json:"at"`
	Model    string             `json:"model"`
	ValueKW  float64            `json:"value_kw"`
	Features core.FeatureVector `json:"features"`
}

// NewPredictionEvent builds the event for prediction id.
func NewPredictionEvent(id, model string, valueKW float64, features core.FeatureVector, at time.Time) PredictionEvent {
	return PredictionEvent{
		ID:       id,
		Type:     EventPredictionCompleted,
		At:       at,
		Model:    model,
		ValueKW:  valueKW,
		Features: features,
	}
}

// ToJSON converts the event to JSON bytes
func (e PredictionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e PredictionEvent) error
	Backend() string
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, PredictionEvent) error { return nil }
func (Noop) Backend() string                                { return BackendNone }
func (Noop) Close() error                                   { return nil }
