package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/riskibarqy/fantasy-league/external/fpl"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// planningWindow is the tolerance around a trigger offset within which
// PlanningStatus considers the trigger active (§4.4).
const planningWindow = 1 * time.Hour

// schedulerDataSource is the subset of DataGatewayService the scheduler
// needs. NextDeadline consults "the cached upstream gameweek list" by
// calling FetchBootstrap with force=false, which rides the Data
// Gateway's own 6-hour bootstrap TTL — the exact cache lifetime §4.4
// calls for, so the scheduler carries no cache of its own.
type schedulerDataSource interface {
	FetchBootstrap(ctx context.Context, force bool) fpl.Bootstrap
}

// schedulerPublisher is the subset of eventbus.Bus the scheduler needs.
type schedulerPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// NextDeadlineResult is the outcome of NextDeadline.
type NextDeadlineResult struct {
	Gameweek   int
	DeadlineAt time.Time
	HoursUntil float64
}

// PlanningStatusResult is the outcome of PlanningStatus.
type PlanningStatusResult struct {
	Gameweek              int
	Active                map[gameweek.DeadlineTrigger]bool
	HoursUntilNextTrigger float64
}

// SchedulerService converts calendar time into bus events (§4.4). It owns
// no mutable domain state: every operation is a pure function of "now"
// plus whatever the data gateway's cache currently holds.
type SchedulerService struct {
	dataSource schedulerDataSource
	publisher  schedulerPublisher
	logger     *logging.Logger
}

func NewSchedulerService(dataSource schedulerDataSource, publisher schedulerPublisher, logger *logging.Logger) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulerService{
		dataSource: dataSource,
		publisher:  publisher,
		logger:     logger.With("component", "SchedulerService"),
	}
}

// NextDeadline returns the nearest gameweek deadline that has not yet
// passed, preferring the upstream "is_next" flag and falling back to the
// earliest unfinished deadline in the cached gameweek list.
func (s *SchedulerService) NextDeadline(ctx context.Context, now time.Time) (NextDeadlineResult, bool) {
	gameweeks := s.loadGameweeks(ctx)
	gw, ok := nextGameweek(gameweeks, now)
	if !ok {
		return NextDeadlineResult{}, false
	}

	return NextDeadlineResult{
		Gameweek:   gw.Number,
		DeadlineAt: gw.DeadlineAt,
		HoursUntil: gw.DeadlineAt.Sub(now).Hours(),
	}, true
}

// PlanningStatus reports, for each of the three deadline triggers, whether
// now falls within ±1h of that trigger's fire time for the next deadline.
func (s *SchedulerService) PlanningStatus(ctx context.Context, now time.Time) (PlanningStatusResult, bool) {
	gameweeks := s.loadGameweeks(ctx)
	gw, ok := nextGameweek(gameweeks, now)
	if !ok {
		return PlanningStatusResult{}, false
	}

	active := make(map[gameweek.DeadlineTrigger]bool, len(gameweek.AllTriggers()))
	nextTriggerHours := math.Inf(1)
	for _, trigger := range gameweek.AllTriggers() {
		triggerTime := gw.TriggerTime(trigger)
		delta := now.Sub(triggerTime)
		if delta < 0 {
			delta = -delta
		}
		active[trigger] = delta <= planningWindow

		if hoursUntil := triggerTime.Sub(now).Hours(); hoursUntil >= 0 && hoursUntil < nextTriggerHours {
			nextTriggerHours = hoursUntil
		}
	}
	if math.IsInf(nextTriggerHours, 1) {
		nextTriggerHours = 0
	}

	return PlanningStatusResult{
		Gameweek:              gw.Number,
		Active:                active,
		HoursUntilNextTrigger: nextTriggerHours,
	}, true
}

// CheckDeadlines publishes a gameweek-planning event for every trigger
// PlanningStatus reports active. Priority is high for the 6h trigger,
// normal otherwise. Deduplicating repeated emissions within a trigger's
// ±1h window is the consumer's responsibility (§4.4, §9 Open Questions).
func (s *SchedulerService) CheckDeadlines(ctx context.Context, now time.Time) error {
	status, ok := s.PlanningStatus(ctx, now)
	if !ok {
		return nil
	}

	for _, trigger := range gameweek.AllTriggers() {
		if !status.Active[trigger] {
			continue
		}

		priority := event.PriorityNormal
		if trigger == gameweek.Trigger6h {
			priority = event.PriorityHigh
		}

		deadline := s.deadlineFor(ctx, status.Gameweek, now)
		payload := event.NewGameweekPlanningPayload(status.Gameweek, string(trigger), deadline)
		evt, err := event.Create(event.KindGameweekPlanning, payload, event.WithSource("SchedulerService"), event.WithPriority(priority))
		if err != nil {
			return fmt.Errorf("build gameweek-planning event for trigger %s: %w", trigger, err)
		}
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			return fmt.Errorf("publish gameweek-planning event for trigger %s: %w", trigger, err)
		}
	}

	return nil
}

// DailyRefresh publishes a data-refresh-requested event tagged
// "scheduled-daily-refresh".
func (s *SchedulerService) DailyRefresh(ctx context.Context) error {
	evt, err := event.Create(event.KindDataRefreshRequested,
		event.NewDataRefreshRequestedPayload("scheduled-daily-refresh"),
		event.WithSource("SchedulerService"))
	if err != nil {
		return fmt.Errorf("build data-refresh-requested event: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish data-refresh-requested event: %w", err)
	}
	return nil
}

// PricePulse publishes a price-check event tagged "pre" or "post".
func (s *SchedulerService) PricePulse(ctx context.Context, prePost string) error {
	evt, err := event.Create(event.KindPriceCheck, event.NewPriceCheckPayload(prePost), event.WithSource("SchedulerService"))
	if err != nil {
		return fmt.Errorf("build price-check event: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish price-check event: %w", err)
	}
	return nil
}

// WeeklyReview publishes a gameweek-completed event for the most recently
// finished gameweek, once its expected completion time has passed.
func (s *SchedulerService) WeeklyReview(ctx context.Context, now time.Time) error {
	gameweeks := s.loadGameweeks(ctx)
	gw, ok := lastFinishedGameweek(gameweeks, now)
	if !ok {
		return nil
	}

	evt, err := event.Create(event.KindGameweekCompleted, event.NewGameweekCompletedPayload(gw.Number), event.WithSource("SchedulerService"))
	if err != nil {
		return fmt.Errorf("build gameweek-completed event: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish gameweek-completed event: %w", err)
	}
	return nil
}

func (s *SchedulerService) loadGameweeks(ctx context.Context) []gameweek.Gameweek {
	bootstrap := s.dataSource.FetchBootstrap(ctx, false)
	return mapBootstrapEventsToDomain(bootstrap.Events)
}

// deadlineFor re-resolves the deadline for a specific gameweek number,
// used so CheckDeadlines always reports the actual upstream timestamp
// rather than recomputing it from the trigger.
func (s *SchedulerService) deadlineFor(ctx context.Context, number int, now time.Time) time.Time {
	gameweeks := s.loadGameweeks(ctx)
	for _, gw := range gameweeks {
		if gw.Number == number {
			return gw.DeadlineAt
		}
	}
	return now
}

// nextGameweek picks the upstream-flagged "next" gameweek if present,
// otherwise the earliest unfinished gameweek whose deadline has not yet
// passed.
func nextGameweek(gameweeks []gameweek.Gameweek, now time.Time) (gameweek.Gameweek, bool) {
	for _, gw := range gameweeks {
		if gw.IsNext {
			return gw, true
		}
	}

	var best gameweek.Gameweek
	found := false
	for _, gw := range gameweeks {
		if gw.Finished || !gw.DeadlineAt.After(now) {
			continue
		}
		if !found || gw.DeadlineAt.Before(best.DeadlineAt) {
			best = gw
			found = true
		}
	}
	return best, found
}

// lastFinishedGameweek picks the most recently finished gameweek whose
// deadline has already passed by now.
func lastFinishedGameweek(gameweeks []gameweek.Gameweek, now time.Time) (gameweek.Gameweek, bool) {
	var best gameweek.Gameweek
	found := false
	for _, gw := range gameweeks {
		if !gw.Finished || gw.DeadlineAt.After(now) {
			continue
		}
		if !found || gw.DeadlineAt.After(best.DeadlineAt) {
			best = gw
			found = true
		}
	}
	return best, found
}
