package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-league/internal/domain/statvalue"
)

type stubXGPlayerSource struct {
	players []player.Player
}

func (s stubXGPlayerSource) ListByLeague(_ context.Context, _ string) ([]player.Player, error) {
	return s.players, nil
}

type stubXGStatsSource struct {
	season map[string]playerstats.SeasonStats
}

func (s stubXGStatsSource) GetSeasonStatsByLeagueAndPlayer(_ context.Context, _, playerID string) (playerstats.SeasonStats, error) {
	return s.season[playerID], nil
}

type stubXGValueSource struct {
	values []statvalue.PlayerValue
}

func (s stubXGValueSource) ListPlayerValuesByStatKey(_ context.Context, _, _ string) ([]statvalue.PlayerValue, error) {
	return s.values, nil
}

func TestXGAnalyzer_Refresh_FlagsOverAndUnderPerformers(t *testing.T) {
	t.Parallel()

	players := []player.Player{
		{ID: "clinical", Position: player.PositionForward, MinutesPlayed: 900, ExpectedGoalsPer90: 0.3},
		{ID: "wasteful", Position: player.PositionForward, MinutesPlayed: 900, ExpectedGoalsPer90: 0.6},
		{ID: "bench", Position: player.PositionForward, MinutesPlayed: 100, ExpectedGoalsPer90: 0.5},
	}
	season := map[string]playerstats.SeasonStats{
		"clinical": {Goals: 8}, // expected = 0.3*10 = 3.0, gap = 5.0
		"wasteful": {Goals: 1}, // expected = 0.6*10 = 6.0, gap = -5.0
	}

	analyzer := NewXGAnalyzer(
		stubXGPlayerSource{players: players},
		stubXGStatsSource{season: season},
		nil,
		stubGameweekSource{gw: gameweek.Gameweek{Number: 12}, ok: true},
		&stubPublisher{},
		"L",
		nil,
	)

	if err := analyzer.refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	analysis, ok := analyzer.Latest()
	if !ok {
		t.Fatalf("expected cached analysis")
	}
	if len(analysis.Rankings) != 2 {
		t.Fatalf("expected the sub-270-minute player excluded, got %d", len(analysis.Rankings))
	}

	byID := map[string]XGPlayerRanking{}
	for _, r := range analysis.Rankings {
		byID[r.PlayerID] = r
	}
	if !byID["clinical"].OverPerforming {
		t.Fatalf("expected clinical to be flagged an over-performer, gap=%v", byID["clinical"].PerformanceGap)
	}
	if !byID["wasteful"].UnderPerforming {
		t.Fatalf("expected wasteful to be flagged an under-performer, gap=%v", byID["wasteful"].PerformanceGap)
	}
}

func TestXGAnalyzer_Refresh_CrossChecksAgainstStatValueWhenWired(t *testing.T) {
	t.Parallel()

	players := []player.Player{{ID: "p1", Position: player.PositionMidfielder, MinutesPlayed: 900, ExpectedGoalsPer90: 0.4}}
	values := []statvalue.PlayerValue{
		{PlayerID: "p1", ValueNum: floatPtr(0.3)},
		{PlayerID: "p1", ValueNum: floatPtr(0.5)},
	}

	publisher := &stubPublisher{}
	analyzer := NewXGAnalyzer(
		stubXGPlayerSource{players: players},
		stubXGStatsSource{season: map[string]playerstats.SeasonStats{}},
		stubXGValueSource{values: values},
		stubGameweekSource{gw: gameweek.Gameweek{Number: 12}, ok: true},
		publisher,
		"L",
		nil,
	)

	if err := analyzer.refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	analysis, _ := analyzer.Latest()
	if len(analysis.Rankings) != 1 {
		t.Fatalf("expected one ranking, got %d", len(analysis.Rankings))
	}
	if got := analysis.Rankings[0].CrossCheckedGoalsPer90; got != 0.4 {
		t.Fatalf("expected cross-checked average 0.4, got=%v", got)
	}
	if analysis.Rankings[0].ExpectedGoalsTotal == 0 {
		t.Fatalf("expected a nonzero expected-goals total")
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected one published event, got=%d", len(publisher.published))
	}
}

func floatPtr(v float64) *float64 { return &v }
