package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreate_DefaultsAndOverrides(t *testing.T) {
	e, err := Create(KindDataUpdated, map[string]any{"a": 1}, WithPriority(PriorityHigh), WithSource("gateway"))
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.Equal(t, PriorityHigh, e.Priority)
	require.Equal(t, "gateway", e.Source)
	require.Equal(t, DefaultRetryCap, e.RetryCap)
	require.Equal(t, 0, e.RetryCount)
}

func TestCreate_UnknownKindFails(t *testing.T) {
	_, err := Create(Kind("bogus.kind"), nil)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestCreate_IDsAreUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		e, err := Create(KindSystemStartup, nil)
		require.NoError(t, err)
		_, dup := seen[e.ID]
		require.False(t, dup, "duplicate id %s", e.ID)
		seen[e.ID] = struct{}{}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	e, err := Create(KindGameweekPlanning, NewGameweekPlanningPayload(8, "24h", time.Now().UTC()), WithCorrelation("corr-1"), WithPriority(PriorityHigh))
	require.NoError(t, err)

	encoded, err := Encode(e)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	require.Equal(t, e.Kind, decoded.Kind)
	require.Equal(t, e.ID, decoded.ID)
	require.True(t, e.CreatedAt.Equal(decoded.CreatedAt))
	require.Equal(t, e.Priority, decoded.Priority)
	require.Equal(t, e.Source, decoded.Source)
	require.Equal(t, e.CorrelationID, decoded.CorrelationID)
	require.Equal(t, e.RetryCount, decoded.RetryCount)
	require.Equal(t, e.RetryCap, decoded.RetryCap)
	require.EqualValues(t, e.Payload["gameweek"], decoded.Payload["gameweek"])
}

func TestEncodeDecode_StableReencode(t *testing.T) {
	e, err := Create(KindNotificationError, NewNotificationPayload("error", "boom"))
	require.NoError(t, err)

	first, err := Encode(e)
	require.NoError(t, err)
	decoded, err := Decode(first)
	require.NoError(t, err)
	second, err := Encode(decoded)
	require.NoError(t, err)

	require.JSONEq(t, string(first), string(second))
}

func TestDecode_UnknownKindFails(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"bogus.kind","id":"x","created_at":"2026-01-01T00:00:00Z","priority":"normal","retry_count":0,"retry_cap":3,"payload":{}}`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestDecode_MalformedBytesFails(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestDecode_PreservesUnknownPayloadKeys(t *testing.T) {
	raw := []byte(`{"kind":"system.startup","id":"x","created_at":"2026-01-01T00:00:00Z","priority":"normal","retry_count":0,"retry_cap":3,"payload":{"future_field":"kept"}}`)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "kept", decoded.Payload["future_field"])
}

func TestCanRetry_RetryCapBoundary(t *testing.T) {
	e, err := Create(KindSystemStartup, nil, WithRetryCap(3))
	require.NoError(t, err)

	for k := 0; k <= 3; k++ {
		require.Equal(t, k < 3, e.CanRetry(), "k=%d", k)
		e = e.IncrementRetry()
	}
}

func TestIncrementRetry_DoesNotMutateOriginal(t *testing.T) {
	e, err := Create(KindSystemStartup, map[string]any{"x": 1})
	require.NoError(t, err)

	next := e.IncrementRetry()
	require.Equal(t, 0, e.RetryCount)
	require.Equal(t, 1, next.RetryCount)
}

