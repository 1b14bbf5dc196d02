// Package agent provides the lifecycle wrapper shared by every event-driven
// worker (§4.3): subscription bookkeeping, error containment around a
// handler, retry re-publication, and status/health reporting. Concrete
// agents embed Base and supply their own handler plus subscribed kinds.
package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/platform/eventbus"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// Bus is the subset of eventbus.Bus an agent needs. A narrow interface
// keeps agents testable against a fake bus.
type Bus interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
	Subscribe(ctx context.Context, kind event.Kind, handler eventbus.Handler) error
	Unsubscribe(ctx context.Context, kind event.Kind) error
}

// Worker is implemented by concrete agents. HandleEvent processes a single
// delivered event; SubscribedKinds declares what this agent listens for.
type Worker interface {
	Name() string
	SubscribedKinds() []event.Kind
	HandleEvent(ctx context.Context, e event.Event) error
}

// Lifecycle hooks a Worker may optionally implement, run on Start/Stop
// after subscriptions are established/before they are torn down.
type StartHook interface {
	OnStart(ctx context.Context) error
}

type StopHook interface {
	OnStop(ctx context.Context) error
}

// Status is the snapshot returned by GetStatus, mirroring §4.3's
// get_status contract.
type Status struct {
	Name             string
	Running          bool
	Healthy          bool
	EventsProcessed  int64
	EventsPublished  int64
	SubscribedKinds  []event.Kind
	StartedAt        time.Time
	UptimeSeconds    float64
	LastError        string
}

// Health is the lighter health_check projection of Status.
type Health struct {
	Name    string
	Healthy bool
	Status  Status
}

// Base implements the event-driven agent lifecycle described in §4.3. It
// is embedded by concrete agents, which supply a Worker.
type Base struct {
	worker Worker
	bus    Bus
	logger *logging.Logger

	mu               sync.Mutex
	running          bool
	healthy          bool
	startedAt        time.Time
	subscribedKinds  []event.Kind
	lastErr          string

	processed atomic.Int64
	published atomic.Int64
}

// New constructs a Base wrapping worker, communicating over bus.
func New(worker Worker, bus Bus, logger *logging.Logger) *Base {
	if logger == nil {
		logger = logging.Default()
	}
	return &Base{
		worker:  worker,
		bus:     bus,
		logger:  logger,
		healthy: true,
	}
}

// Start subscribes to the worker's declared kinds, runs its optional start
// hook, and publishes a startup notification. Calling Start on an already
// running agent is a no-op.
func (b *Base) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	kinds := b.worker.SubscribedKinds()
	for _, k := range kinds {
		if err := b.bus.Subscribe(ctx, k, b.wrappedHandler); err != nil {
			b.mu.Lock()
			b.healthy = false
			b.lastErr = err.Error()
			b.mu.Unlock()
			return crerr.Wrapf(err, "%s: subscribe to %s", b.worker.Name(), k)
		}
	}

	if hook, ok := b.worker.(StartHook); ok {
		if err := hook.OnStart(ctx); err != nil {
			b.mu.Lock()
			b.healthy = false
			b.lastErr = err.Error()
			b.mu.Unlock()
			return crerr.Wrapf(err, "%s: on start", b.worker.Name())
		}
	}

	b.mu.Lock()
	b.running = true
	b.startedAt = time.Now().UTC()
	b.subscribedKinds = kinds
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "agent started", "agent", b.worker.Name(), "subscriptions", len(kinds))

	_, _ = b.Publish(ctx, mustNotification(event.PriorityLow, "info", b.worker.Name()+" started"))

	return nil
}

// Stop runs the worker's optional stop hook, unsubscribes from every kind,
// logs the final counters, and publishes a shutdown notification. Calling
// Stop on a non-running agent is a no-op.
func (b *Base) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	kinds := b.subscribedKinds
	b.mu.Unlock()

	if hook, ok := b.worker.(StopHook); ok {
		if err := hook.OnStop(ctx); err != nil {
			b.logger.ErrorContext(ctx, "agent stop hook failed", "agent", b.worker.Name(), "error", err)
		}
	}

	for _, k := range kinds {
		if err := b.bus.Unsubscribe(ctx, k); err != nil {
			b.logger.ErrorContext(ctx, "agent unsubscribe failed", "agent", b.worker.Name(), "kind", k, "error", err)
		}
	}

	b.mu.Lock()
	b.running = false
	b.subscribedKinds = nil
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "agent stopped", "agent", b.worker.Name(),
		"events_processed", b.processed.Load(), "events_published", b.published.Load())

	_, _ = b.Publish(ctx, mustNotification(event.PriorityLow, "info", b.worker.Name()+" stopped"))

	return nil
}

// wrappedHandler is the function actually registered with the bus. It
// contains the error containment and retry logic of §4.3: a handler error
// is logged, turned into an error notification, and the event is
// re-published if it still has retry budget.
func (b *Base) wrappedHandler(ctx context.Context, e event.Event) error {
	if err := b.worker.HandleEvent(ctx, e); err != nil {
		b.mu.Lock()
		b.lastErr = err.Error()
		b.mu.Unlock()

		b.logger.ErrorContext(ctx, "agent failed to process event",
			"agent", b.worker.Name(), "kind", e.Kind, "event_id", e.ID, "error", err)

		notif, nerr := event.Create(event.KindNotificationError,
			event.NewNotificationPayload("error", b.worker.Name()+" failed to process event"),
			event.WithSource(b.worker.Name()), event.WithCorrelation(e.CorrelationID))
		if nerr == nil {
			_, _ = b.Publish(ctx, notif)
		}

		if e.CanRetry() {
			retried := e.IncrementRetry()
			b.logger.InfoContext(ctx, "retrying event", "agent", b.worker.Name(), "event_id", e.ID, "attempt", retried.RetryCount)
			if _, perr := b.bus.Publish(ctx, retried); perr != nil {
				b.logger.ErrorContext(ctx, "retry re-publish failed", "agent", b.worker.Name(), "event_id", e.ID, "error", perr)
			}
		}

		return err
	}

	b.processed.Add(1)
	return nil
}

// Publish sends e through the bus, stamping Source with the agent's name
// when unset, and tracks the publish counter.
func (b *Base) Publish(ctx context.Context, e event.Event) (int64, error) {
	if e.Source == "" {
		e.Source = b.worker.Name()
	}
	count, err := b.bus.Publish(ctx, e)
	if err != nil {
		return 0, crerr.Wrapf(err, "%s: publish %s", b.worker.Name(), e.Kind)
	}
	b.published.Add(1)
	return count, nil
}

// GetStatus returns a point-in-time snapshot of the agent's state.
func (b *Base) GetStatus() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{
		Name:            b.worker.Name(),
		Running:         b.running,
		Healthy:         b.healthy,
		EventsProcessed: b.processed.Load(),
		EventsPublished: b.published.Load(),
		SubscribedKinds: append([]event.Kind(nil), b.subscribedKinds...),
		StartedAt:       b.startedAt,
		LastError:       b.lastErr,
	}
	if !b.startedAt.IsZero() {
		s.UptimeSeconds = time.Since(b.startedAt).Seconds()
	}
	return s
}

// HealthCheck reports whether the agent is both running and healthy.
func (b *Base) HealthCheck() Health {
	status := b.GetStatus()
	return Health{
		Name:    status.Name,
		Healthy: status.Healthy && status.Running,
		Status:  status,
	}
}

func mustNotification(priority event.Priority, level, message string) event.Event {
	e, err := event.Create(event.KindNotificationInfo, event.NewNotificationPayload(level, message), event.WithPriority(priority))
	if err != nil {
		// KindNotificationInfo is a closed-set constant; Create only fails
		// on an unknown kind or invalid priority, neither reachable here.
		panic(crerr.Wrap(err, "build notification event"))
	}
	return e
}
