package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/rules"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// freeHitBudget is the fresh budget a free hit rebuild works with,
// independent of the manager's actual bank (§4.11 free-hit build).
const freeHitBudget int64 = rules.NewTeamBudget

// wildcardHorizonDecay is the per-gameweek decay applied to a wildcard
// build's time-decayed objective (§4.11 wildcard build: "decay 0.85ⁿ
// for the n-th gameweek after the target").
const wildcardHorizonDecay = 0.85

// squadBuildPositionOrder is the greedy fill order (§4.11 step 2:
// "starting with positions having fewer strong options").
var squadBuildPositionOrder = []player.Position{
	player.PositionGoalkeeper, player.PositionForward, player.PositionDefender, player.PositionMidfielder,
}

// squadBuildTargetCounts is how many of each position a full 15-player
// squad needs.
var squadBuildTargetCounts = map[player.Position]int{
	player.PositionGoalkeeper: rules.SquadGoalkeepers,
	player.PositionDefender:   rules.SquadDefenders,
	player.PositionMidfielder: rules.SquadMidfielders,
	player.PositionForward:    rules.SquadForwards,
}

// floorPriceByPosition is the cheapest plausible price floor reserved
// per remaining position slot when budgeting for the positions not yet
// filled (§4.11 step 3). These mirror the teacher's own minimum-price
// assumption for budget squads.
var floorPriceByPosition = map[player.Position]int64{
	player.PositionGoalkeeper: 40,
	player.PositionDefender:   40,
	player.PositionMidfielder: 45,
	player.PositionForward:    45,
}

type squadOptimizerPlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type squadOptimizerPredictionSource interface {
	PredictPoints(ctx context.Context, playerIDs []string, gameweek int, applyAdjustments bool) (map[string]float64, error)
}

// BuildResult is a full 15-player squad assembled by the greedy builder,
// plus the objective value it achieved.
type BuildResult struct {
	Picks     []squad.Pick
	Objective float64
}

// SquadOptimizerService builds free-hit and wildcard squads and chooses
// formation/captaincy for an existing squad (§4.11).
type SquadOptimizerService struct {
	players     squadOptimizerPlayerSource
	predictions squadOptimizerPredictionSource
	leagueID    string
	logger      *logging.Logger
}

func NewSquadOptimizerService(
	players squadOptimizerPlayerSource,
	predictions squadOptimizerPredictionSource,
	leagueID string,
	logger *logging.Logger,
) *SquadOptimizerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SquadOptimizerService{
		players:     players,
		predictions: predictions,
		leagueID:    leagueID,
		logger:      logger.With("component", "SquadOptimizerService"),
	}
}

// BuildFreeHit assembles a fresh 15-player squad maximizing predicted
// points for a single target gameweek, on a fresh 1000-tenths budget.
func (s *SquadOptimizerService) BuildFreeHit(ctx context.Context, gameweek int) (BuildResult, error) {
	pool, err := s.players.ListByLeague(ctx, s.leagueID)
	if err != nil {
		return BuildResult{}, fmt.Errorf("squad optimizer: list players: %w", err)
	}

	predictions, err := s.predictions.PredictPoints(ctx, playerIDs(pool), gameweek, true)
	if err != nil {
		return BuildResult{}, fmt.Errorf("squad optimizer: predict points: %w", err)
	}

	objective := make(map[string]float64, len(pool))
	for _, p := range pool {
		objective[p.ID] = predictions[p.ID]
	}

	return greedyBuild(pool, objective, freeHitBudget), nil
}

// BuildWildcard assembles a fresh 15-player squad maximizing a
// time-decayed sum of predicted points over a horizon, on a budget equal
// to the sum of the current squad's selling prices plus bank.
func (s *SquadOptimizerService) BuildWildcard(ctx context.Context, gameweek, horizon int, budget int64) (BuildResult, error) {
	pool, err := s.players.ListByLeague(ctx, s.leagueID)
	if err != nil {
		return BuildResult{}, fmt.Errorf("squad optimizer: list players: %w", err)
	}

	ids := playerIDs(pool)
	objective := make(map[string]float64, len(pool))
	for offset := 0; offset < horizon; offset++ {
		preds, err := s.predictions.PredictPoints(ctx, ids, gameweek+offset, true)
		if err != nil {
			s.logger.WarnContext(ctx, "predict points failed for gameweek offset, skipping", "offset", offset, "error", err)
			continue
		}
		decay := math.Pow(wildcardHorizonDecay, float64(offset))
		for id, points := range preds {
			objective[id] += points * decay
		}
	}

	return greedyBuild(pool, objective, budget), nil
}

// playerIDs extracts the id list from a player slice.
func playerIDs(pool []player.Player) []string {
	out := make([]string, len(pool))
	for i, p := range pool {
		out[i] = p.ID
	}
	return out
}

// greedyBuild fills the squad position by position in
// squadBuildPositionOrder, reserving a floor-price budget for whatever
// positions remain unfilled (§4.11 steps 1-4). If a position cannot be
// filled at target quality within its remaining budget, it relaxes to
// the cheapest available candidate that still respects the per-team and
// duplicate constraints.
func greedyBuild(pool []player.Player, objective map[string]float64, budget int64) BuildResult {
	byPos := make(map[player.Position][]player.Player, len(squadBuildTargetCounts))
	for _, p := range pool {
		if !p.IsAvailable() {
			continue
		}
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for pos, candidates := range byPos {
		sort.SliceStable(candidates, func(i, j int) bool {
			return objective[candidates[i].ID] > objective[candidates[j].ID]
		})
		byPos[pos] = candidates
	}

	remainingBudget := budget
	teamCounts := map[string]int{}
	picked := map[string]bool{}
	var picks []squad.Pick

	remainingPositions := func() int {
		remaining := 0
		for pos, want := range squadBuildTargetCounts {
			have := 0
			for _, pick := range picks {
				if pick.Position == pos {
					have++
				}
			}
			remaining += want - have
		}
		return remaining
	}

	for _, pos := range squadBuildPositionOrder {
		target := squadBuildTargetCounts[pos]
		for filled := 0; filled < target; filled++ {
			otherPositionSlotsLeft := remainingPositions() - 1 // excluding the slot we're about to fill
			reserve := int64(otherPositionSlotsLeft) * floorPriceByPosition[pos]

			var chosen *player.Player
			for i := range byPos[pos] {
				cand := byPos[pos][i]
				if picked[cand.ID] || teamCounts[cand.TeamID] >= rules.MaxPlayersPerTeam {
					continue
				}
				if cand.Price > remainingBudget-reserve {
					continue
				}
				chosen = &byPos[pos][i]
				break
			}
			if chosen == nil {
				// Relax to the cheapest available candidate that still
				// fits and respects the per-team cap (§4.11 step 4).
				cheapest := cheapestAvailable(byPos[pos], picked, teamCounts, remainingBudget-reserve)
				chosen = cheapest
			}
			if chosen == nil {
				continue
			}

			picks = append(picks, squad.Pick{PlayerID: chosen.ID, TeamID: chosen.TeamID, Position: chosen.Position, Price: chosen.Price})
			picked[chosen.ID] = true
			teamCounts[chosen.TeamID]++
			remainingBudget -= chosen.Price
		}
	}

	total := 0.0
	for _, pick := range picks {
		total += objective[pick.PlayerID]
	}

	return BuildResult{Picks: picks, Objective: total}
}

func cheapestAvailable(candidates []player.Player, picked map[string]bool, teamCounts map[string]int, maxPrice int64) *player.Player {
	var cheapest *player.Player
	for i := range candidates {
		cand := candidates[i]
		if picked[cand.ID] || teamCounts[cand.TeamID] >= rules.MaxPlayersPerTeam {
			continue
		}
		if cand.Price > maxPrice {
			continue
		}
		if cheapest == nil || cand.Price < cheapest.Price {
			cheapest = &candidates[i]
		}
	}
	return cheapest
}

// ChooseFormation enumerates the closed set of valid formations and
// returns the starting XI (and bench) maximizing total expected points
// (§4.11 Formation chooser).
func ChooseFormation(picks []squad.Pick, expectedPoints map[string]float64) (startingXI, bench []string, formation rules.Formation) {
	byPos := make(map[player.Position][]squad.Pick, 4)
	for _, p := range picks {
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for pos, ps := range byPos {
		sort.SliceStable(ps, func(i, j int) bool { return expectedPoints[ps[i].PlayerID] > expectedPoints[ps[j].PlayerID] })
		byPos[pos] = ps
	}

	bestTotal := math.Inf(-1)
	var bestXI []string

	for _, f := range rules.ValidFormations() {
		gk := topN(byPos[player.PositionGoalkeeper], 1)
		def := topN(byPos[player.PositionDefender], f.Defenders)
		mid := topN(byPos[player.PositionMidfielder], f.Midfielders)
		fwd := topN(byPos[player.PositionForward], f.Forwards)
		if len(gk) < 1 || len(def) < f.Defenders || len(mid) < f.Midfielders || len(fwd) < f.Forwards {
			continue
		}

		xi := append(append(append(gk, def...), mid...), fwd...)
		total := 0.0
		for _, id := range xi {
			total += expectedPoints[id]
		}
		if total > bestTotal {
			bestTotal = total
			bestXI = xi
			formation = f
		}
	}

	xiSet := make(map[string]bool, len(bestXI))
	for _, id := range bestXI {
		xiSet[id] = true
	}
	for _, p := range picks {
		if !xiSet[p.PlayerID] {
			bench = append(bench, p.PlayerID)
		}
	}

	return bestXI, bench, formation
}

func topN(picks []squad.Pick, n int) []string {
	if len(picks) < n {
		return nil
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = picks[i].PlayerID
	}
	return out
}

// ChooseCaptain selects the captain as the starting XI's highest
// expected-points player and the vice-captain as the next highest;
// ordering by expected points (ties broken by slice order) guarantees
// distinctness (§4.11 Captain selector).
func ChooseCaptain(startingXI []string, expectedPoints map[string]float64) (captainID, viceCaptainID string) {
	ordered := append([]string(nil), startingXI...)
	sort.SliceStable(ordered, func(i, j int) bool { return expectedPoints[ordered[i]] > expectedPoints[ordered[j]] })
	if len(ordered) > 0 {
		captainID = ordered[0]
	}
	if len(ordered) > 1 {
		viceCaptainID = ordered[1]
	}
	return captainID, viceCaptainID
}
