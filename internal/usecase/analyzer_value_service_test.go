package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
)

type stubValuePlayerSource struct {
	players []player.Player
}

func (s stubValuePlayerSource) ListByLeague(_ context.Context, _ string) ([]player.Player, error) {
	return s.players, nil
}

type stubDCLatest struct {
	analysis DCAnalysis
	ok       bool
}

func (s stubDCLatest) Latest() (DCAnalysis, bool) { return s.analysis, s.ok }

type stubFixtureLatest struct {
	analysis FixtureAnalysis
	ok       bool
}

func (s stubFixtureLatest) Latest() (FixtureAnalysis, bool) { return s.analysis, s.ok }

type stubXGLatest struct {
	analysis XGAnalysis
	ok       bool
}

func (s stubXGLatest) Latest() (XGAnalysis, bool) { return s.analysis, s.ok }

func TestValueAnalyzer_Observe_PublishesOnceAllThreeArrive(t *testing.T) {
	t.Parallel()

	players := []player.Player{
		{ID: "p1", Position: player.PositionMidfielder, Price: 80, TotalPoints: 40, TeamID: "home"},
	}
	dc := DCAnalysis{Gameweek: 9, Rankings: []DCPlayerRanking{{PlayerID: "p1", ConsistencyScore: 0.8}}}
	fx := FixtureAnalysis{Gameweek: 9, Teams: map[string]TeamFixtureSummary{"home": {TeamID: "home", MeanDifficulty: 2.0}}}
	xg := XGAnalysis{Gameweek: 9, Rankings: []XGPlayerRanking{{PlayerID: "p1", ExpectedInvolvementP90: 0.7}}}

	publisher := &stubPublisher{}
	analyzer := NewValueAnalyzer(
		stubValuePlayerSource{players: players},
		stubDCLatest{analysis: dc, ok: true},
		stubFixtureLatest{analysis: fx, ok: true},
		stubXGLatest{analysis: xg, ok: true},
		publisher,
		"L",
		nil,
	)

	ctx := context.Background()
	dcEvt, _ := event.Create(event.KindAnalysisDCCompleted, event.NewAnalysisCompletedPayload(9, "a1"))
	fxEvt, _ := event.Create(event.KindAnalysisFixtureCompleted, event.NewAnalysisCompletedPayload(9, "a2"))
	xgEvt, _ := event.Create(event.KindAnalysisXGCompleted, event.NewAnalysisCompletedPayload(9, "a3"))

	if err := analyzer.HandleEvent(ctx, dcEvt); err != nil {
		t.Fatalf("handle dc event: %v", err)
	}
	if err := analyzer.HandleEvent(ctx, fxEvt); err != nil {
		t.Fatalf("handle fixture event: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no publish before all three analyses arrive, got=%d", len(publisher.published))
	}

	if err := analyzer.HandleEvent(ctx, xgEvt); err != nil {
		t.Fatalf("handle xg event: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected exactly one publish once the set is complete, got=%d", len(publisher.published))
	}
	if publisher.published[0].Kind != event.KindAnalysisValueRankingsCompleted {
		t.Fatalf("expected analysis.value_rankings_completed, got=%s", publisher.published[0].Kind)
	}

	analysis, ok := analyzer.Latest()
	if !ok {
		t.Fatalf("expected cached analysis")
	}
	rankings := analysis.ByPosition[player.PositionMidfielder]
	if len(rankings) != 1 || rankings[0].PlayerID != "p1" {
		t.Fatalf("expected p1 ranked under midfielders, got=%+v", rankings)
	}
	if rankings[0].CompositeScore <= 0 {
		t.Fatalf("expected a positive composite score, got=%v", rankings[0].CompositeScore)
	}
}

func TestClamp01_BoundsToUnitRange(t *testing.T) {
	t.Parallel()

	if clamp01(-1) != 0 {
		t.Fatalf("expected clamp01(-1) == 0")
	}
	if clamp01(2) != 1 {
		t.Fatalf("expected clamp01(2) == 1")
	}
	if clamp01(0.5) != 0.5 {
		t.Fatalf("expected clamp01(0.5) == 0.5")
	}
}
