package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
	"github.com/riskibarqy/fantasy-league/internal/domain/transfer"
)

type stubTransferSquadSource struct {
	squad squad.Squad
	ok    bool
}

func (s stubTransferSquadSource) GetLatestByTeam(_ context.Context, _ string) (squad.Squad, bool, error) {
	return s.squad, s.ok, nil
}

type stubTransferPlayerSource struct {
	players []player.Player
}

func (s stubTransferPlayerSource) ListByLeague(_ context.Context, _ string) ([]player.Player, error) {
	return s.players, nil
}

// stubTransferPredictionSource returns a fixed per-player expected score
// regardless of gameweek, so tests can reason about TotalGain directly.
type stubTransferPredictionSource struct {
	byPlayer map[string]float64
}

func (s stubTransferPredictionSource) PredictPoints(_ context.Context, playerIDs []string, _ int, _ bool) (map[string]float64, error) {
	out := make(map[string]float64, len(playerIDs))
	for _, id := range playerIDs {
		out[id] = s.byPlayer[id]
	}
	return out, nil
}

type stubTransferPriceSource struct {
	changes map[string]prediction.PriceChangePrediction
}

func (s stubTransferPriceSource) PredictPriceChanges(_ context.Context, ids []string) (map[string]prediction.PriceChangePrediction, error) {
	out := make(map[string]prediction.PriceChangePrediction, len(ids))
	for _, id := range ids {
		if c, ok := s.changes[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type stubTransferRepository struct {
	saved []transfer.Record
}

func (s *stubTransferRepository) Save(_ context.Context, r transfer.Record) error {
	s.saved = append(s.saved, r)
	return nil
}

func TestTransferOptimizerService_Optimize_NoSquadReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc := NewTransferOptimizerService(
		stubTransferSquadSource{ok: false},
		stubTransferPlayerSource{},
		stubTransferPredictionSource{},
		stubTransferPriceSource{},
		&stubTransferRepository{},
		"L",
		nil,
	)

	_, _, err := svc.Optimize(context.Background(), "team1", 10, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
}

func TestTransferOptimizerService_Optimize_ranksBestReplacementFirst(t *testing.T) {
	t.Parallel()

	sq := squad.Squad{
		TeamID: "team1",
		Picks: []squad.Pick{
			{PlayerID: "out1", Position: player.PositionMidfielder, Price: 70},
		},
		Budget:        10,
		FreeTransfers: 1,
	}

	pool := []player.Player{
		{ID: "out1", Position: player.PositionMidfielder, Price: 70, Status: player.StatusAvailable},
		{ID: "good", Position: player.PositionMidfielder, Price: 75, Status: player.StatusAvailable, TotalPoints: 50},
		{ID: "bad", Position: player.PositionMidfielder, Price: 75, Status: player.StatusAvailable, TotalPoints: 10},
		{ID: "tooExpensive", Position: player.PositionMidfielder, Price: 200, Status: player.StatusAvailable, TotalPoints: 99},
	}

	predictions := stubTransferPredictionSource{byPlayer: map[string]float64{
		"out1": 3.0,
		"good": 8.0,
		"bad":  3.5,
	}}

	svc := NewTransferOptimizerService(
		stubTransferSquadSource{squad: sq, ok: true},
		stubTransferPlayerSource{players: pool},
		predictions,
		stubTransferPriceSource{},
		&stubTransferRepository{},
		"L",
		nil,
	)

	decision, options, err := svc.Optimize(context.Background(), "team1", 10, nil)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 affordable options (tooExpensive excluded), got=%d", len(options))
	}
	if options[0].PlayerInID != "good" {
		t.Fatalf("expected the higher-gain replacement ranked first, got=%s", options[0].PlayerInID)
	}
	if decision.Action != transfer.ActionMake {
		t.Fatalf("expected MAKE given a free transfer and a strong gain, got=%s", decision.Action)
	}
}

func TestTransferOptimizerService_Execute_PersistsRecordWithHitCost(t *testing.T) {
	t.Parallel()

	repo := &stubTransferRepository{}
	svc := NewTransferOptimizerService(
		stubTransferSquadSource{},
		stubTransferPlayerSource{},
		stubTransferPredictionSource{},
		stubTransferPriceSource{},
		repo,
		"L",
		nil,
	)

	err := svc.Execute(context.Background(), "team1", 10, transfer.Option{PlayerOutID: "out1", PlayerInID: "good"}, transfer.ActionMake)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected one record saved, got=%d", len(repo.saved))
	}
	if repo.saved[0].PointsHit != transfer.HitCostPoints {
		t.Fatalf("expected the hit cost recorded for a MAKE decision, got=%d", repo.saved[0].PointsHit)
	}
}
