// Package event defines the typed envelope shared by the event bus, the
// base agent and every publisher/subscriber in the decision engine.
package event

import (
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-league/internal/platform/id"
)

var idGenerator id.Generator = id.NewRandomGenerator()

// Priority orders delivery relevance for consumers and logging; the bus
// itself does not reorder messages by priority.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// DefaultRetryCap is the number of re-publish attempts the bus grants an
// event before it is dropped (§4.1, §4.2 of the decision engine spec).
const DefaultRetryCap = 3

// Event is the immutable (save for its retry counter) unit of
// communication between agents. Payload is a free-form map; per-kind typed
// accessors live in payload.go.
type Event struct {
	Kind          Kind
	ID            string
	CreatedAt     time.Time
	Priority      Priority
	Source        string
	CorrelationID string
	RetryCount    int
	RetryCap      int
	Payload       map[string]any
}

// Option customizes Create.
type Option func(*Event)

// WithPriority overrides the default priority (normal).
func WithPriority(p Priority) Option {
	return func(e *Event) { e.Priority = p }
}

// WithSource stamps the originating agent/component name.
func WithSource(source string) Option {
	return func(e *Event) { e.Source = source }
}

// WithCorrelation links this event to a causal chain.
func WithCorrelation(correlationID string) Option {
	return func(e *Event) { e.CorrelationID = correlationID }
}

// WithRetryCap overrides the default retry cap of three.
func WithRetryCap(cap int) Option {
	return func(e *Event) { e.RetryCap = cap }
}

// Create builds a new Event with a fresh 128-bit random id, the current
// UTC timestamp, a zeroed retry counter and the default retry cap of three.
func Create(kind Kind, payload map[string]any, opts ...Option) (Event, error) {
	if !kind.Known() {
		return Event{}, crerr.Newf("%w: %q", ErrUnknownKind, kind)
	}

	eventID, err := idGenerator.NewID()
	if err != nil {
		return Event{}, crerr.Wrap(err, "generate event id")
	}

	if payload == nil {
		payload = map[string]any{}
	}

	e := Event{
		Kind:      kind,
		ID:        eventID,
		CreatedAt: time.Now().UTC(),
		Priority:  PriorityNormal,
		RetryCap:  DefaultRetryCap,
		Payload:   payload,
	}

	for _, opt := range opts {
		opt(&e)
	}

	if !e.Priority.valid() {
		e.Priority = PriorityNormal
	}
	if e.RetryCap <= 0 {
		e.RetryCap = DefaultRetryCap
	}

	return e, nil
}

// CanRetry reports whether this event may be re-published after a handler
// failure.
func (e Event) CanRetry() bool {
	return e.RetryCount < e.RetryCap
}

// IncrementRetry returns a copy of e with the retry counter bumped; the
// original is left untouched.
func (e Event) IncrementRetry() Event {
	next := e
	next.RetryCount = e.RetryCount + 1
	next.Payload = cloneMap(e.Payload)
	return next
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
