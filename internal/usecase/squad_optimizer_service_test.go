package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
)

type stubSquadOptimizerPlayerSource struct {
	players []player.Player
}

func (s stubSquadOptimizerPlayerSource) ListByLeague(_ context.Context, _ string) ([]player.Player, error) {
	return s.players, nil
}

type stubSquadOptimizerPredictionSource struct {
	byGameweek map[int]map[string]float64
}

func (s stubSquadOptimizerPredictionSource) PredictPoints(_ context.Context, ids []string, gameweek int, _ bool) (map[string]float64, error) {
	out := make(map[string]float64, len(ids))
	preds := s.byGameweek[gameweek]
	for _, id := range ids {
		out[id] = preds[id]
	}
	return out, nil
}

func buildTestPool() []player.Player {
	pool := []player.Player{}
	teams := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	add := func(id string, pos player.Position, team string, price int64) {
		pool = append(pool, player.Player{ID: id, Position: pos, TeamID: team, Price: price, Status: player.StatusAvailable})
	}
	for i, team := range teams {
		add(team+"-gk", player.PositionGoalkeeper, team, int64(40+i))
		add(team+"-def1", player.PositionDefender, team, int64(40+i))
		add(team+"-def2", player.PositionDefender, team, int64(45+i))
		add(team+"-mid1", player.PositionMidfielder, team, int64(50+i))
		add(team+"-mid2", player.PositionMidfielder, team, int64(55+i))
		add(team+"-fwd1", player.PositionForward, team, int64(60+i))
	}
	return pool
}

func TestSquadOptimizerService_BuildFreeHit_FillsFullSquadWithinBudget(t *testing.T) {
	t.Parallel()

	pool := buildTestPool()
	preds := map[string]float64{}
	for i, p := range pool {
		preds[p.ID] = float64(10 + i)
	}

	svc := NewSquadOptimizerService(
		stubSquadOptimizerPlayerSource{players: pool},
		stubSquadOptimizerPredictionSource{byGameweek: map[int]map[string]float64{9: preds}},
		"L",
		nil,
	)

	result, err := svc.BuildFreeHit(context.Background(), 9)
	if err != nil {
		t.Fatalf("BuildFreeHit: %v", err)
	}

	if len(result.Picks) != 15 {
		t.Fatalf("expected a full 15-player squad, got=%d", len(result.Picks))
	}

	counts := map[player.Position]int{}
	var spent int64
	teamCounts := map[string]int{}
	for _, pick := range result.Picks {
		counts[pick.Position]++
		spent += pick.Price
		teamCounts[pick.TeamID]++
		if teamCounts[pick.TeamID] > 3 {
			t.Fatalf("team %s exceeds max-3 cap", pick.TeamID)
		}
	}
	if counts[player.PositionGoalkeeper] != 2 || counts[player.PositionDefender] != 5 ||
		counts[player.PositionMidfielder] != 5 || counts[player.PositionForward] != 3 {
		t.Fatalf("unexpected position composition: %+v", counts)
	}
	if spent > freeHitBudget {
		t.Fatalf("spent %d exceeds free hit budget %d", spent, freeHitBudget)
	}
}

func TestSquadOptimizerService_BuildWildcard_AppliesHorizonDecay(t *testing.T) {
	t.Parallel()

	pool := buildTestPool()
	gw9 := map[string]float64{}
	gw10 := map[string]float64{}
	for i, p := range pool {
		gw9[p.ID] = float64(10 + i)
		gw10[p.ID] = float64(10 + i)
	}

	svc := NewSquadOptimizerService(
		stubSquadOptimizerPlayerSource{players: pool},
		stubSquadOptimizerPredictionSource{byGameweek: map[int]map[string]float64{9: gw9, 10: gw10}},
		"L",
		nil,
	)

	result, err := svc.BuildWildcard(context.Background(), 9, 2, 1200)
	if err != nil {
		t.Fatalf("BuildWildcard: %v", err)
	}
	if len(result.Picks) != 15 {
		t.Fatalf("expected a full 15-player squad, got=%d", len(result.Picks))
	}
	if result.Objective <= 0 {
		t.Fatalf("expected a positive decayed objective, got=%v", result.Objective)
	}
}

func TestChooseFormation_PicksMaxSumValidFormation(t *testing.T) {
	t.Parallel()

	picks := []squad.Pick{
		{PlayerID: "gk1", Position: player.PositionGoalkeeper},
		{PlayerID: "gk2", Position: player.PositionGoalkeeper},
		{PlayerID: "d1", Position: player.PositionDefender},
		{PlayerID: "d2", Position: player.PositionDefender},
		{PlayerID: "d3", Position: player.PositionDefender},
		{PlayerID: "d4", Position: player.PositionDefender},
		{PlayerID: "d5", Position: player.PositionDefender},
		{PlayerID: "m1", Position: player.PositionMidfielder},
		{PlayerID: "m2", Position: player.PositionMidfielder},
		{PlayerID: "m3", Position: player.PositionMidfielder},
		{PlayerID: "m4", Position: player.PositionMidfielder},
		{PlayerID: "m5", Position: player.PositionMidfielder},
		{PlayerID: "f1", Position: player.PositionForward},
		{PlayerID: "f2", Position: player.PositionForward},
		{PlayerID: "f3", Position: player.PositionForward},
	}
	expected := map[string]float64{
		"gk1": 5, "gk2": 1,
		"d1": 6, "d2": 5, "d3": 4, "d4": 1, "d5": 1,
		"m1": 8, "m2": 7, "m3": 6, "m4": 1, "m5": 1,
		"f1": 9, "f2": 8, "f3": 1,
	}

	xi, bench, formation := ChooseFormation(picks, expected)
	if len(xi) != 11 {
		t.Fatalf("expected 11 starters, got=%d", len(xi))
	}
	if len(bench) != 4 {
		t.Fatalf("expected 4 bench players, got=%d", len(bench))
	}
	if formation.Defenders+formation.Midfielders+formation.Forwards != 10 {
		t.Fatalf("expected a valid outfield formation, got=%+v", formation)
	}
	for _, weak := range []string{"d4", "d5", "m4", "m5", "f3"} {
		for _, id := range xi {
			if id == weak {
				t.Fatalf("did not expect weak player %s in the starting XI", weak)
			}
		}
	}
}

func TestChooseCaptain_PicksTopTwoByExpectedPoints(t *testing.T) {
	t.Parallel()

	xi := []string{"a", "b", "c"}
	expected := map[string]float64{"a": 4.0, "b": 9.0, "c": 6.0}

	captain, vice := ChooseCaptain(xi, expected)
	if captain != "b" {
		t.Fatalf("expected b as captain, got=%s", captain)
	}
	if vice != "c" {
		t.Fatalf("expected c as vice-captain, got=%s", vice)
	}
}
