package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/infrastructure/notify"
)

type fakeNotifierSink struct {
	text string
	err  error
	sent int
}

func (f *fakeNotifierSink) Send(ctx context.Context, text string, blocks ...notify.Block) error {
	f.sent++
	f.text = text
	return f.err
}

func TestNotifierService_TeamSelectedUsesAnnouncement(t *testing.T) {
	sink := &fakeNotifierSink{}
	svc := NewNotifierService(sink, nil)

	e, err := event.Create(event.KindTeamSelected,
		event.NewTeamSelectedPayload(12, "team-1", "p2", "p1", "", "", "", "Gameweek 12 locked, captain p2."))
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if sink.sent != 1 {
		t.Fatalf("expected one send, got %d", sink.sent)
	}
	if sink.text != "Gameweek 12 locked, captain p2." {
		t.Fatalf("unexpected text: %s", sink.text)
	}
}

func TestNotifierService_TeamSelectedFallsBackWithoutAnnouncement(t *testing.T) {
	sink := &fakeNotifierSink{}
	svc := NewNotifierService(sink, nil)

	e, err := event.Create(event.KindTeamSelected,
		event.NewTeamSelectedPayload(12, "team-1", "p2", "p1", "", "", "", ""))
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if sink.text == "" {
		t.Fatalf("expected a fallback announcement text")
	}
}

func TestNotifierService_NotificationEventsForwardLevelAndMessage(t *testing.T) {
	sink := &fakeNotifierSink{}
	svc := NewNotifierService(sink, nil)

	e, err := event.Create(event.KindNotificationWarning, event.NewNotificationPayload("warning", "circuit opened"))
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if sink.text != "[warning] circuit opened" {
		t.Fatalf("unexpected text: %s", sink.text)
	}
}

func TestNotifierService_SendFailureIsSwallowed(t *testing.T) {
	sink := &fakeNotifierSink{err: errors.New("boom")}
	svc := NewNotifierService(sink, nil)

	e, err := event.Create(event.KindNotificationError, event.NewNotificationPayload("error", "something broke"))
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("expected HandleEvent to swallow sink errors, got %v", err)
	}
}

func TestNotifierService_UnsubscribedKindIsIgnored(t *testing.T) {
	sink := &fakeNotifierSink{}
	svc := NewNotifierService(sink, nil)

	e, err := event.Create(event.KindSystemHealthCheck, map[string]any{})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("handle event failed: %v", err)
	}
	if sink.sent != 0 {
		t.Fatalf("expected no send for an unrelated event kind, got %d", sink.sent)
	}
}
