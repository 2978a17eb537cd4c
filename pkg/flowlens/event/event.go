package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published inside flowlens.
const (
	TypeFlowsChanged      = "flows.changed"
	TypeFlowsDeployed     = "flows.deployed"
	TypeAnalysisCompleted = "analysis.completed"
)

// Event is the core interface for all events on the bus.
// Events are immutable once created.
type Event interface {
	ID() string
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// Metadata contains common event metadata fields.
type Metadata struct {
	EventID     string    `json:"id"`
	EventType   string    `json:"type"`
	EventSource string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// BaseEvent provides a generic event implementation.
// T is the payload type for type-safe access.
type BaseEvent[T any] struct {
	Meta    Metadata `json:"metadata"`
	Payload T        `json:"payload"`
}

// ID returns the unique event identifier.
func (e *BaseEvent[T]) ID() string { return e.Meta.EventID }

// Type returns the event type.
func (e *BaseEvent[T]) Type() string { return e.Meta.EventType }

// Source returns the component that emitted the event.
func (e *BaseEvent[T]) Source() string { return e.Meta.EventSource }

// Timestamp returns when the event occurred.
func (e *BaseEvent[T]) Timestamp() time.Time { return e.Meta.Timestamp }

// Data returns the event payload.
func (e *BaseEvent[T]) Data() any { return e.Payload }

// TypedData returns the strongly-typed payload.
func (e *BaseEvent[T]) TypedData() T { return e.Payload }

// MarshalJSON implements json.Marshaler.
func (e *BaseEvent[T]) MarshalJSON() ([]byte, error) {
	type alias BaseEvent[T]
	return json.Marshal((*alias)(e))
}

// EventOption configures event creation.
type EventOption func(*eventConfig)

type eventConfig struct {
	id        string
	timestamp time.Time
}

// WithEventID sets a specific event ID (default: random UUID).
func WithEventID(id string) EventOption {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) EventOption {
	return func(cfg *eventConfig) {
		cfg.timestamp = t
	}
}

// New creates an event with the given type, source and payload.
func New[T any](eventType, source string, payload T, opts ...EventOption) *BaseEvent[T] {
	cfg := &eventConfig{
		id:        uuid.NewString(),
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &BaseEvent[T]{
		Meta: Metadata{
			EventID:     cfg.id,
			EventType:   eventType,
			EventSource: source,
			Timestamp:   cfg.timestamp,
		},
		Payload: payload,
	}
}

// Payload extracts a typed payload from evt.
// ok is false when evt carries a different payload type.
func Payload[T any](evt Event) (T, bool) {
	v, ok := evt.Data().(T)
	return v, ok
}

// FlowsChanged is the payload of TypeFlowsChanged.
type FlowsChanged struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// FlowsDeployed is the payload of TypeFlowsDeployed.
type FlowsDeployed struct {
	// DeployType mirrors the editor's deploy mode: full, flows or nodes.
	DeployType string `json:"deployType,omitempty"`
}

// AnalysisCompleted is the payload of TypeAnalysisCompleted.
type AnalysisCompleted struct {
	PassID        string `json:"passId"`
	FlowsAnalyzed int    `json:"flowsAnalyzed"`
	TotalIssues   int    `json:"totalIssues"`
	Status        string `json:"status"`
	AIEnhanced    bool   `json:"aiEnhanced"`
	DurationMs    int64  `json:"durationMs"`
}

// Handler processes events delivered by the bus.
type Handler interface {
	Handle(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}
