package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
)

type fakeSynthesisEngine struct {
	rankings decision.Rankings
	err      error
	gotCtx   decision.CompetitiveContext
	gotChip  *ChipRecommendation
}

func (f *fakeSynthesisEngine) Synthesize(ctx context.Context, gameweek int, competitive decision.CompetitiveContext, chipRec *ChipRecommendation) (decision.Rankings, error) {
	f.gotCtx = competitive
	f.gotChip = chipRec
	return f.rankings, f.err
}

type fakeSynthesisChipSource struct {
	rec ChipRecommendation
	ok  bool
}

func (f *fakeSynthesisChipSource) Latest(gameweek int) (ChipRecommendation, bool) { return f.rec, f.ok }

type fakeSynthesisStandingsSource struct {
	ctxv decision.CompetitiveContext
	err  error
}

func (f *fakeSynthesisStandingsSource) CompetitiveContext(ctx context.Context, teamID string) (decision.CompetitiveContext, error) {
	return f.ctxv, f.err
}

type fakeSynthesisPublisher struct {
	events []event.Event
}

func (f *fakeSynthesisPublisher) Publish(ctx context.Context, e event.Event) (int64, error) {
	f.events = append(f.events, e)
	return int64(len(f.events)), nil
}

func TestSynthesisReporterService_PublishesNotificationWithSummary(t *testing.T) {
	engine := &fakeSynthesisEngine{rankings: decision.Rankings{
		Gameweek: 12,
		Strategy: decision.StrategyBalanced,
		Captain:  decision.CaptainPick{PrimaryPlayerID: "p1", DifferentialPlayerID: "p9"},
	}}
	standings := &fakeSynthesisStandingsSource{ctxv: decision.CompetitiveContext{CurrentRank: 2, GapToLeader: -30}}
	publisher := &fakeSynthesisPublisher{}
	svc := NewSynthesisReporterService(engine, &fakeSynthesisChipSource{}, standings, publisher, "team-1", nil)

	if err := svc.Report(context.Background(), 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	if publisher.events[0].Kind != event.KindNotificationInfo {
		t.Fatalf("expected a notification.info event, got %s", publisher.events[0].Kind)
	}
	if engine.gotCtx.CurrentRank != 2 {
		t.Fatalf("expected the standings context to reach the engine, got %+v", engine.gotCtx)
	}
}

func TestSynthesisReporterService_StandingsFailureFallsBackToNeutralContext(t *testing.T) {
	engine := &fakeSynthesisEngine{}
	standings := &fakeSynthesisStandingsSource{err: errors.New("upstream down")}
	publisher := &fakeSynthesisPublisher{}
	svc := NewSynthesisReporterService(engine, &fakeSynthesisChipSource{}, standings, publisher, "team-1", nil)

	if err := svc.Report(context.Background(), 12); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if engine.gotCtx != (decision.CompetitiveContext{}) {
		t.Fatalf("expected a neutral fallback context, got %+v", engine.gotCtx)
	}
}

func TestSynthesisReporterService_SynthesisFailureIsSwallowed(t *testing.T) {
	engine := &fakeSynthesisEngine{err: errors.New("no cached analyses")}
	publisher := &fakeSynthesisPublisher{}
	svc := NewSynthesisReporterService(engine, &fakeSynthesisChipSource{}, nil, publisher, "team-1", nil)

	if err := svc.Report(context.Background(), 12); err != nil {
		t.Fatalf("expected Report to swallow synthesis errors, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no event published on synthesis failure, got %d", len(publisher.events))
	}
}

func TestSynthesisReporterService_HandleEventUsesTeamSelectedGameweek(t *testing.T) {
	engine := &fakeSynthesisEngine{rankings: decision.Rankings{Gameweek: 7}}
	publisher := &fakeSynthesisPublisher{}
	svc := NewSynthesisReporterService(engine, &fakeSynthesisChipSource{}, nil, publisher, "team-1", nil)

	e, err := event.Create(event.KindTeamSelected, event.NewTeamSelectedPayload(7, "team-1", "p1", "p2", "", "", "", ""))
	if err != nil {
		t.Fatalf("build event: %v", err)
	}

	if err := svc.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
}
