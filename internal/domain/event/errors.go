package event

import crerr "github.com/cockroachdb/errors"

var (
	// ErrMalformedEvent is returned by Decode when bytes cannot be parsed
	// into a valid Event.
	ErrMalformedEvent = crerr.New("malformed event")
	// ErrUnknownKind is returned by Create for a kind outside the closed
	// set in kind.go; Decode reports such kinds as ErrMalformedEvent.
	ErrUnknownKind = crerr.New("unknown event kind")
)
