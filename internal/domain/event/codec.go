package event

import (
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// wireEvent fixes field ordering and string-tags enums, per §4.1: "a
// self-describing serialized form whose field ordering is fixed".
type wireEvent struct {
	Kind          string         `json:"kind"`
	ID            string         `json:"id"`
	CreatedAt     string         `json:"created_at"`
	Priority      string         `json:"priority"`
	Source        string         `json:"source,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	RetryCount    int            `json:"retry_count"`
	RetryCap      int            `json:"retry_cap"`
	Payload       map[string]any `json:"payload"`
}

// Encode serializes an Event to its wire form. Timestamps are ISO-8601 UTC;
// enums use their canonical string tags; unknown payload keys round-trip
// verbatim because Payload is carried as a raw map.
func Encode(e Event) ([]byte, error) {
	w := wireEvent{
		Kind:          string(e.Kind),
		ID:            e.ID,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339Nano),
		Priority:      string(e.Priority),
		Source:        e.Source,
		CorrelationID: e.CorrelationID,
		RetryCount:    e.RetryCount,
		RetryCap:      e.RetryCap,
		Payload:       e.Payload,
	}
	if w.Payload == nil {
		w.Payload = map[string]any{}
	}

	out, err := sonic.Marshal(w)
	if err != nil {
		return nil, crerr.Wrap(err, "encode event")
	}
	return out, nil
}

// Decode parses the wire form produced by Encode. Unknown kinds fail with
// ErrMalformedEvent; unknown payload keys are preserved verbatim.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := sonic.Unmarshal(data, &w); err != nil {
		return Event{}, crerr.Wrapf(ErrMalformedEvent, "%v", err)
	}

	kind := Kind(w.Kind)
	if !kind.Known() {
		return Event{}, crerr.Wrapf(ErrMalformedEvent, "unknown kind %q", w.Kind)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return Event{}, crerr.Wrapf(ErrMalformedEvent, "parse created_at: %v", err)
	}

	priority := Priority(w.Priority)
	if !priority.valid() {
		return Event{}, crerr.Wrapf(ErrMalformedEvent, "unknown priority %q", w.Priority)
	}

	payload := w.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	return Event{
		Kind:          kind,
		ID:            w.ID,
		CreatedAt:     createdAt,
		Priority:      priority,
		Source:        w.Source,
		CorrelationID: w.CorrelationID,
		RetryCount:    w.RetryCount,
		RetryCap:      w.RetryCap,
		Payload:       payload,
	}, nil
}
