package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/chip"
	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
)

type stubSynthesisPlayerSource struct {
	players []player.Player
}

func (s stubSynthesisPlayerSource) ListByLeague(_ context.Context, _ string) ([]player.Player, error) {
	return s.players, nil
}

type stubSynthesisPredictionSource struct {
	predictions map[string]float64
}

func (s stubSynthesisPredictionSource) PredictAll(_ context.Context, _ int, _ bool) (map[string]float64, error) {
	return s.predictions, nil
}

type stubValueLatest struct {
	analysis ValueAnalysis
	ok       bool
}

func (s stubValueLatest) Latest() (ValueAnalysis, bool) { return s.analysis, s.ok }

func TestSynthesisEngine_Synthesize_RanksAndPicksCaptain(t *testing.T) {
	t.Parallel()

	players := []player.Player{
		{ID: "p1", Position: player.PositionMidfielder, TeamID: "home", OwnershipPercent: 40, Status: player.StatusAvailable},
		{ID: "p2", Position: player.PositionForward, TeamID: "away", OwnershipPercent: 5, Status: player.StatusAvailable},
		{ID: "p3", Position: player.PositionDefender, TeamID: "home", OwnershipPercent: 50, Status: player.StatusAvailable},
	}
	predictions := map[string]float64{"p1": 6.0, "p2": 9.0, "p3": 3.0}
	value := ValueAnalysis{
		Gameweek: 9,
		ByPosition: map[player.Position][]ValueRanking{
			player.PositionMidfielder: {{PlayerID: "p1", Position: player.PositionMidfielder, CompositeScore: 0.8}},
			player.PositionForward:    {{PlayerID: "p2", Position: player.PositionForward, CompositeScore: 0.9}},
			player.PositionDefender:   {{PlayerID: "p3", Position: player.PositionDefender, CompositeScore: 0.4}},
		},
	}

	engine := NewSynthesisEngine(
		stubSynthesisPlayerSource{players: players},
		stubSynthesisPredictionSource{predictions: predictions},
		stubValueLatest{analysis: value, ok: true},
		stubFixtureLatest{ok: false},
		"L",
		nil,
	)

	rankings, err := engine.Synthesize(context.Background(), 9, decision.CompetitiveContext{GapToLeader: -300}, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if rankings.Strategy != decision.StrategyAggressiveDifferentials {
		t.Fatalf("expected aggressive-differentials strategy, got=%s", rankings.Strategy)
	}
	if len(rankings.TopValue) != 3 {
		t.Fatalf("expected all three ranked players surfaced, got=%d", len(rankings.TopValue))
	}
	if rankings.TopValue[0].PlayerID != "p2" {
		t.Fatalf("expected p2 (highest composite score) ranked first, got=%s", rankings.TopValue[0].PlayerID)
	}
	if rankings.Captain.PrimaryPlayerID != "p2" {
		t.Fatalf("expected p2 (highest predicted points) as primary captain, got=%s", rankings.Captain.PrimaryPlayerID)
	}
	if rankings.Captain.DifferentialPlayerID != "p2" {
		t.Fatalf("expected p2 (low ownership, high points) as differential captain, got=%s", rankings.Captain.DifferentialPlayerID)
	}
	if len(rankings.TemplateRisks) != 2 {
		t.Fatalf("expected p1 and p3 flagged as template risks, got=%+v", rankings.TemplateRisks)
	}
	if len(rankings.TransferTargets) != 3 {
		t.Fatalf("expected transfer targets grouped by position, got=%+v", rankings.TransferTargets)
	}
}

func TestSynthesisEngine_Synthesize_DefensiveStrategyHasNoDifferentialCaptain(t *testing.T) {
	t.Parallel()

	players := []player.Player{
		{ID: "p1", Position: player.PositionMidfielder, OwnershipPercent: 5, Status: player.StatusAvailable},
	}
	predictions := map[string]float64{"p1": 5.0}

	engine := NewSynthesisEngine(
		stubSynthesisPlayerSource{players: players},
		stubSynthesisPredictionSource{predictions: predictions},
		stubValueLatest{ok: false},
		stubFixtureLatest{ok: false},
		"L",
		nil,
	)

	rankings, err := engine.Synthesize(context.Background(), 9, decision.CompetitiveContext{GapToLeader: 10}, nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rankings.Strategy != decision.StrategyDefensive {
		t.Fatalf("expected defensive strategy for a positive gap, got=%s", rankings.Strategy)
	}
	if rankings.Captain.DifferentialPlayerID != "" {
		t.Fatalf("expected no differential captain for a defensive strategy, got=%s", rankings.Captain.DifferentialPlayerID)
	}
}

func TestSynthesisEngine_Synthesize_ChipRecommendationSuppressesTransferTargets(t *testing.T) {
	t.Parallel()

	players := []player.Player{
		{ID: "p1", Position: player.PositionMidfielder, OwnershipPercent: 5, Status: player.StatusAvailable},
	}
	value := ValueAnalysis{
		Gameweek: 9,
		ByPosition: map[player.Position][]ValueRanking{
			player.PositionMidfielder: {{PlayerID: "p1", Position: player.PositionMidfielder, CompositeScore: 0.5}},
		},
	}

	engine := NewSynthesisEngine(
		stubSynthesisPlayerSource{players: players},
		stubSynthesisPredictionSource{predictions: map[string]float64{"p1": 5.0}},
		stubValueLatest{analysis: value, ok: true},
		stubFixtureLatest{ok: false},
		"L",
		nil,
	)

	rankings, err := engine.Synthesize(context.Background(), 9, decision.CompetitiveContext{}, &ChipRecommendation{ChipName: chip.KindWildcard, DeferTransfers: true})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(rankings.TransferTargets) != 0 {
		t.Fatalf("expected transfer targets suppressed when a chip is recommended, got=%+v", rankings.TransferTargets)
	}
}
