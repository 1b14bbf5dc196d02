package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-league/external/fpl"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/gameweek"
)

type stubSchedulerDataSource struct {
	bootstrap fpl.Bootstrap
}

func (s stubSchedulerDataSource) FetchBootstrap(_ context.Context, _ bool) fpl.Bootstrap {
	return s.bootstrap
}

type stubSchedulerPublisher struct {
	published []event.Event
}

func (s *stubSchedulerPublisher) Publish(_ context.Context, e event.Event) (int64, error) {
	s.published = append(s.published, e)
	return 1, nil
}

func bootstrapEventsFixture(deadline time.Time) fpl.Bootstrap {
	return fpl.Bootstrap{
		Events: []fpl.BootstrapEvent{
			{ID: 7, DeadlineAt: deadline.Add(-7 * 24 * time.Hour).Format(time.RFC3339), Finished: true},
			{ID: 8, DeadlineAt: deadline.Format(time.RFC3339), IsNext: true},
		},
	}
}

func TestSchedulerService_NextDeadline_PrefersIsNextFlag(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, time.March, 6, 17, 30, 0, 0, time.UTC)
	now := deadline.Add(-50 * time.Hour)

	svc := NewSchedulerService(stubSchedulerDataSource{bootstrap: bootstrapEventsFixture(deadline)}, &stubSchedulerPublisher{}, nil)

	result, ok := svc.NextDeadline(context.Background(), now)
	if !ok {
		t.Fatalf("expected a next deadline")
	}
	if result.Gameweek != 8 {
		t.Fatalf("expected gameweek 8, got=%d", result.Gameweek)
	}
	if !result.DeadlineAt.Equal(deadline) {
		t.Fatalf("expected deadline %v, got=%v", deadline, result.DeadlineAt)
	}
}

func TestSchedulerService_PlanningStatus_ActiveWithinOneHourWindow(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, time.March, 6, 17, 30, 0, 0, time.UTC)
	now := deadline.Add(-24 * time.Hour).Add(10 * time.Minute)

	svc := NewSchedulerService(stubSchedulerDataSource{bootstrap: bootstrapEventsFixture(deadline)}, &stubSchedulerPublisher{}, nil)

	status, ok := svc.PlanningStatus(context.Background(), now)
	if !ok {
		t.Fatalf("expected planning status")
	}
	if !status.Active[gameweek.Trigger24h] {
		t.Fatalf("expected 24h trigger active at now=%v", now)
	}
	if status.Active[gameweek.Trigger48h] {
		t.Fatalf("did not expect 48h trigger active at now=%v", now)
	}
	if status.Active[gameweek.Trigger6h] {
		t.Fatalf("did not expect 6h trigger active at now=%v", now)
	}
}

func TestSchedulerService_CheckDeadlines_PublishesHighPriorityFor6h(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, time.March, 6, 17, 30, 0, 0, time.UTC)
	now := deadline.Add(-6 * time.Hour)

	publisher := &stubSchedulerPublisher{}
	svc := NewSchedulerService(stubSchedulerDataSource{bootstrap: bootstrapEventsFixture(deadline)}, publisher, nil)

	if err := svc.CheckDeadlines(context.Background(), now); err != nil {
		t.Fatalf("CheckDeadlines error: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got=%d", len(publisher.published))
	}
	got := publisher.published[0]
	if got.Kind != event.KindGameweekPlanning {
		t.Fatalf("expected gameweek-planning event, got=%s", got.Kind)
	}
	if got.Priority != event.PriorityHigh {
		t.Fatalf("expected high priority for 6h trigger, got=%s", got.Priority)
	}
	if got.AsGameweekPlanning().Trigger != string(gameweek.Trigger6h) {
		t.Fatalf("expected 6h trigger, got=%s", got.AsGameweekPlanning().Trigger)
	}
}

func TestSchedulerService_CheckDeadlines_NoneActiveNoPublish(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, time.March, 6, 17, 30, 0, 0, time.UTC)
	now := deadline.Add(-36 * time.Hour)

	publisher := &stubSchedulerPublisher{}
	svc := NewSchedulerService(stubSchedulerDataSource{bootstrap: bootstrapEventsFixture(deadline)}, publisher, nil)

	if err := svc.CheckDeadlines(context.Background(), now); err != nil {
		t.Fatalf("CheckDeadlines error: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no published events, got=%d", len(publisher.published))
	}
}

func TestSchedulerService_DailyRefresh_PublishesTaggedEvent(t *testing.T) {
	t.Parallel()

	publisher := &stubSchedulerPublisher{}
	svc := NewSchedulerService(stubSchedulerDataSource{}, publisher, nil)

	if err := svc.DailyRefresh(context.Background()); err != nil {
		t.Fatalf("DailyRefresh error: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got=%d", len(publisher.published))
	}
	if got := publisher.published[0]; got.Kind != event.KindDataRefreshRequested || got.AsDataRefreshRequested().Trigger != "scheduled-daily-refresh" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestSchedulerService_PricePulse_TagsPhase(t *testing.T) {
	t.Parallel()

	publisher := &stubSchedulerPublisher{}
	svc := NewSchedulerService(stubSchedulerDataSource{}, publisher, nil)

	if err := svc.PricePulse(context.Background(), "pre"); err != nil {
		t.Fatalf("PricePulse error: %v", err)
	}
	if got := publisher.published[0]; got.AsPriceCheck().Phase != "pre" {
		t.Fatalf("expected phase=pre, got=%s", got.AsPriceCheck().Phase)
	}
}

func TestSchedulerService_WeeklyReview_PublishesMostRecentFinishedGameweek(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, time.March, 6, 17, 30, 0, 0, time.UTC)
	now := deadline.Add(48 * time.Hour)

	publisher := &stubSchedulerPublisher{}
	bootstrap := fpl.Bootstrap{
		Events: []fpl.BootstrapEvent{
			{ID: 7, DeadlineAt: deadline.Add(-7 * 24 * time.Hour).Format(time.RFC3339), Finished: true},
			{ID: 8, DeadlineAt: deadline.Format(time.RFC3339), Finished: true},
		},
	}
	svc := NewSchedulerService(stubSchedulerDataSource{bootstrap: bootstrap}, publisher, nil)

	if err := svc.WeeklyReview(context.Background(), now); err != nil {
		t.Fatalf("WeeklyReview error: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got=%d", len(publisher.published))
	}
	if got := publisher.published[0].AsGameweekCompleted().Gameweek; got != 8 {
		t.Fatalf("expected gameweek 8, got=%d", got)
	}
}

func TestSchedulerService_WeeklyReview_NoFinishedGameweekNoPublish(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, time.March, 6, 17, 30, 0, 0, time.UTC)
	now := deadline.Add(-1 * time.Hour)

	publisher := &stubSchedulerPublisher{}
	bootstrap := fpl.Bootstrap{
		Events: []fpl.BootstrapEvent{
			{ID: 8, DeadlineAt: deadline.Format(time.RFC3339), IsNext: true},
		},
	}
	svc := NewSchedulerService(stubSchedulerDataSource{bootstrap: bootstrap}, publisher, nil)

	if err := svc.WeeklyReview(context.Background(), now); err != nil {
		t.Fatalf("WeeklyReview error: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no published events, got=%d", len(publisher.published))
	}
}
