// Package eventbus implements the pub/sub contract of spec §4.2 over a
// Redis channel-per-kind topology: publish encodes and fans out to
// "<prefix>:<kind>", records an audit entry in a capped sorted set, and a
// single listener goroutine dispatches to registered handlers.
package eventbus

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

var (
	// ErrBusUnavailable is returned by Connect when the broker refuses the
	// connection.
	ErrBusUnavailable = crerr.New("event bus unavailable")
	// ErrBusNotConnected is returned by Publish/Subscribe before Connect
	// has succeeded, and after Disconnect.
	ErrBusNotConnected = crerr.New("event bus not connected")
)

const historyMaxEntries = 10000

// Handler processes a single delivered event. A non-nil error triggers the
// wrapper's notification + retry path in the base agent (§4.3); the bus
// itself never fails a subscriber for a handler error.
type Handler func(context.Context, event.Event) error

// Health mirrors §4.2's Health() contract.
type Health struct {
	Connected         bool
	SubscriptionCount int
	Listening         bool
}

// Bus is the Redis-backed event bus. All exported methods are safe for
// concurrent use.
type Bus struct {
	client *redis.Client
	prefix string
	logger *logging.Logger
	tracer trace.Tracer

	mu            sync.Mutex
	connected     bool
	listening     bool
	subs          map[event.Kind][]Handler
	pubsub        *redis.PubSub
	channelToKind map[string]event.Kind
	cancelListen  context.CancelFunc
	listenDone    chan struct{}
}

// Config configures a new Bus.
type Config struct {
	RedisURL string
	Prefix   string
	Logger   *logging.Logger
}

// New constructs a Bus without connecting.
func New(cfg Config) (*Bus, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, crerr.Wrap(err, "parse redis url")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ron"
	}

	return &Bus{
		client:        redis.NewClient(opts),
		prefix:        prefix,
		logger:        logger,
		tracer:        otel.Tracer("eventbus"),
		subs:          make(map[event.Kind][]Handler),
		channelToKind: make(map[string]event.Kind),
	}, nil
}

// Connect establishes the connection to the broker. Idempotent.
func (b *Bus) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		return nil
	}

	if err := b.client.Ping(ctx).Err(); err != nil {
		return crerr.Wrapf(ErrBusUnavailable, "%v", err)
	}

	b.pubsub = b.client.Subscribe(ctx)
	b.connected = true
	return nil
}

// Disconnect tears down the listener and the broker connection. Subsequent
// Publish calls fail with ErrBusNotConnected.
func (b *Bus) Disconnect(ctx context.Context) error {
	b.stopListeningLocked()

	b.mu.Lock()
	pubsub := b.pubsub
	b.pubsub = nil
	b.connected = false
	b.subs = make(map[event.Kind][]Handler)
	b.channelToKind = make(map[string]event.Kind)
	b.mu.Unlock()

	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			return crerr.Wrap(err, "close pubsub")
		}
	}

	return b.client.Close()
}

// Publish encodes and publishes event e, records it in the audit history,
// and returns the number of subscribers that received it.
func (b *Bus) Publish(ctx context.Context, e event.Event) (int64, error) {
	b.mu.Lock()
	connected := b.connected
	b.mu.Unlock()
	if !connected {
		return 0, ErrBusNotConnected
	}

	ctx, span := b.tracer.Start(ctx, "eventbus.publish")
	defer span.End()
	span.SetAttributes(attribute.String("event.kind", string(e.Kind)), attribute.String("event.id", e.ID))

	encoded, err := event.Encode(e)
	if err != nil {
		return 0, crerr.Wrap(err, "encode event")
	}

	channel := e.Kind.Channel(b.prefix)
	count, err := b.client.Publish(ctx, channel, encoded).Result()
	if err != nil {
		return 0, crerr.Wrapf(err, "publish to %s", channel)
	}

	b.recordHistory(ctx, e, encoded)

	return count, nil
}

// recordHistory stores the encoded event in the capped sorted-set audit
// ring. Failures are logged, never propagated (§4.2).
func (b *Bus) recordHistory(ctx context.Context, e event.Event, encoded []byte) {
	key := b.prefix + ":events:history"
	score := float64(e.CreatedAt.UnixNano())

	if err := b.client.ZAdd(ctx, key, redis.Z{Score: score, Member: encoded}).Err(); err != nil {
		b.logger.WarnContext(ctx, "event history write failed", "error", err)
		return
	}
	if err := b.client.ZRemRangeByRank(ctx, key, 0, int64(-historyMaxEntries)-1).Err(); err != nil {
		b.logger.WarnContext(ctx, "event history trim failed", "error", err)
	}
}

// Subscribe registers handler for kind. The first handler for a kind opens
// the underlying broker channel subscription.
func (b *Bus) Subscribe(ctx context.Context, kind event.Kind, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return ErrBusNotConnected
	}

	if _, exists := b.subs[kind]; !exists {
		channel := kind.Channel(b.prefix)
		if err := b.pubsub.Subscribe(ctx, channel); err != nil {
			return crerr.Wrapf(err, "subscribe to %s", channel)
		}
		b.channelToKind[channel] = kind
	}
	b.subs[kind] = append(b.subs[kind], handler)

	return nil
}

// Unsubscribe removes all handlers registered for kind and closes the
// underlying channel subscription. Go func values carry no identity to
// compare against, so removal is whole-kind rather than per-handler; an
// agent that wants to re-subscribe with a different handler set just
// calls Subscribe again afterward. Unsubscribing a non-subscribed kind is
// a no-op.
func (b *Bus) Unsubscribe(ctx context.Context, kind event.Kind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[kind]; !ok {
		return nil
	}
	delete(b.subs, kind)

	channel := kind.Channel(b.prefix)
	if b.pubsub != nil {
		if err := b.pubsub.Unsubscribe(ctx, channel); err != nil {
			return crerr.Wrapf(err, "unsubscribe from %s", channel)
		}
	}
	delete(b.channelToKind, channel)

	return nil
}

// StartListening begins the background listener loop. Idempotent.
func (b *Bus) StartListening(ctx context.Context) {
	b.mu.Lock()
	if b.listening || b.pubsub == nil {
		b.mu.Unlock()
		return
	}
	listenCtx, cancel := context.WithCancel(ctx)
	b.cancelListen = cancel
	b.listening = true
	b.listenDone = make(chan struct{})
	b.mu.Unlock()

	go b.listenLoop(listenCtx)
}

// StopListening cancels the listener loop. Idempotent.
func (b *Bus) StopListening() {
	b.stopListeningLocked()
}

func (b *Bus) stopListeningLocked() {
	b.mu.Lock()
	if !b.listening {
		b.mu.Unlock()
		return
	}
	cancel := b.cancelListen
	done := b.listenDone
	b.listening = false
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (b *Bus) listenLoop(ctx context.Context) {
	b.mu.Lock()
	pubsub := b.pubsub
	done := b.listenDone
	b.mu.Unlock()
	defer close(done)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.dispatch(ctx, msg)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, msg *redis.Message) {
	decoded, err := event.Decode([]byte(msg.Payload))
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping malformed event", "channel", msg.Channel, "error", err)
		return
	}

	b.mu.Lock()
	handlers := append([]Handler(nil), b.subs[decoded.Kind]...)
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, decoded); err != nil {
			b.logger.ErrorContext(ctx, "handler failed", "kind", decoded.Kind, "event_id", decoded.ID, "error", err)
		}
	}
}

// History returns the most recent events, newest-first, optionally
// filtered by kind. Read errors yield an empty slice rather than an error,
// per §4.2.
func (b *Bus) History(ctx context.Context, limit int64, kind *event.Kind) []event.Event {
	key := b.prefix + ":events:history"

	raw, err := b.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		b.logger.WarnContext(ctx, "event history read failed", "error", err)
		return nil
	}

	out := make([]event.Event, 0, limit)
	for _, entry := range raw {
		decoded, err := event.Decode([]byte(entry))
		if err != nil {
			continue
		}
		if kind != nil && decoded.Kind != *kind {
			continue
		}
		out = append(out, decoded)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}

	return out
}

// Health reports the bus's self-assessed state. Connected reflects the
// last successful broker ping, taken now; it is not a subscriber liveness
// oracle (§4.2).
func (b *Bus) Health(ctx context.Context) Health {
	b.mu.Lock()
	listening := b.listening
	subCount := 0
	for _, handlers := range b.subs {
		subCount += len(handlers)
	}
	connectedBefore := b.connected
	b.mu.Unlock()

	connected := connectedBefore && b.client.Ping(ctx).Err() == nil

	return Health{
		Connected:         connected,
		SubscriptionCount: subCount,
		Listening:         listening,
	}
}

// backoffSchedule is the fixed reconnect backoff used by callers per §7:
// "reconnects are attempted with fixed backoff by the caller."
func backoffSchedule() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}
}

// Reconnect retries Connect against the fixed backoff schedule until it
// succeeds or the context is done.
func (b *Bus) Reconnect(ctx context.Context) error {
	var lastErr error
	for _, wait := range backoffSchedule() {
		if err := b.Connect(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return crerr.Wrap(lastErr, "reconnect exhausted backoff schedule")
}
