package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/fantasy-league/internal/domain/chip"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// chipAdvisorMinExpectedValue is the smallest expected-value edge worth
// surfacing as a recommendation at all; below it a chip is left unused
// rather than spent for a marginal gain.
const chipAdvisorMinExpectedValue = 4.0

type chipAdvisorSquadSource interface {
	GetLatestByTeam(ctx context.Context, teamID string) (squad.Squad, bool, error)
}

type chipAdvisorPlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type chipAdvisorPredictionSource interface {
	PredictAll(ctx context.Context, gameweek int, excludeUnavailable bool) (map[string]float64, error)
}

type chipAdvisorInventorySource interface {
	GetInventory(ctx context.Context, teamID string) (chip.Inventory, error)
}

type chipAdvisorPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// ChipRecommendation is one chip kind's evaluated expected value for a
// gameweek, cached for the transfer optimizer to consult.
type ChipRecommendation struct {
	Gameweek       int
	ChipName       chip.Kind
	ExpectedValue  float64
	DeferTransfers bool
}

// ChipAdvisor evaluates bench-boost, triple-captain, free-hit and wildcard
// value (the wildcard is scored with the free-hit estimate) against the
// current squad and publishes the best recommendation found,
// grounded on the original implementation's chip-timing heuristics:
// bench-boost value is the bench's predicted points sum, triple-captain
// value is the captain's predicted points (the marginal gain of a third
// multiplier), and free-hit value is a theoretical-best XI's predicted
// points minus the current starting XI's. It is an analyzer agent rather
// than part of the transfer optimizer itself because it reacts to the
// same analysis.value_rankings_completed trigger the other analyzers do
// and caches per-gameweek like them, rather than being called
// synchronously mid-optimization.
type ChipAdvisor struct {
	squads      chipAdvisorSquadSource
	players     chipAdvisorPlayerSource
	predictions chipAdvisorPredictionSource
	inventory   chipAdvisorInventorySource
	publisher   chipAdvisorPublisher
	teamID      string
	leagueID    string
	logger      *logging.Logger

	mu       sync.Mutex
	cached   map[int]ChipRecommendation
	hasCache map[int]bool
}

func NewChipAdvisor(
	squads chipAdvisorSquadSource,
	players chipAdvisorPlayerSource,
	predictions chipAdvisorPredictionSource,
	inventory chipAdvisorInventorySource,
	publisher chipAdvisorPublisher,
	teamID, leagueID string,
	logger *logging.Logger,
) *ChipAdvisor {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChipAdvisor{
		squads:      squads,
		players:     players,
		predictions: predictions,
		inventory:   inventory,
		publisher:   publisher,
		teamID:      teamID,
		leagueID:    leagueID,
		logger:      logger.With("component", "ChipAdvisor"),
		cached:      map[int]ChipRecommendation{},
		hasCache:    map[int]bool{},
	}
}

func (a *ChipAdvisor) Name() string { return "ChipAdvisor" }

func (a *ChipAdvisor) SubscribedKinds() []event.Kind {
	return []event.Kind{event.KindAnalysisValueRankingsCompleted}
}

func (a *ChipAdvisor) HandleEvent(ctx context.Context, e event.Event) error {
	if e.Kind != event.KindAnalysisValueRankingsCompleted {
		return nil
	}
	gw := e.AsAnalysisCompleted().Gameweek
	return a.evaluate(ctx, gw)
}

func (a *ChipAdvisor) evaluate(ctx context.Context, gameweek int) error {
	sq, ok, err := a.squads.GetLatestByTeam(ctx, a.teamID)
	if err != nil {
		return fmt.Errorf("chip advisor: get squad: %w", err)
	}
	if !ok {
		a.logger.WarnContext(ctx, "no squad found, skipping chip evaluation", "team", a.teamID, "gameweek", gameweek)
		return nil
	}

	inv, err := a.inventory.GetInventory(ctx, a.teamID)
	if err != nil {
		return fmt.Errorf("chip advisor: get inventory: %w", err)
	}

	predictions, err := a.predictions.PredictAll(ctx, gameweek, true)
	if err != nil {
		return fmt.Errorf("chip advisor: predict all: %w", err)
	}

	pool, err := a.players.ListByLeague(ctx, a.leagueID)
	if err != nil {
		return fmt.Errorf("chip advisor: list players: %w", err)
	}

	best := a.bestRecommendation(gameweek, sq, inv, predictions, pool)

	a.mu.Lock()
	a.cached[gameweek] = best
	a.hasCache[gameweek] = true
	a.mu.Unlock()

	if best.ExpectedValue < chipAdvisorMinExpectedValue {
		return nil
	}

	payload := event.NewChipRecommendationPayload(gameweek, string(best.ChipName), best.ExpectedValue, best.DeferTransfers)
	evt, err := event.Create(event.KindChipRecommendation, payload, event.WithSource("ChipAdvisor"))
	if err != nil {
		return fmt.Errorf("chip advisor: create event: %w", err)
	}
	if _, err := a.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("chip advisor: publish chip recommendation: %w", err)
	}
	return nil
}

func (a *ChipAdvisor) bestRecommendation(gameweek int, sq squad.Squad, inv chip.Inventory, predictions map[string]float64, pool []player.Player) ChipRecommendation {
	candidates := []ChipRecommendation{
		{Gameweek: gameweek, ChipName: chip.KindBenchBoost, ExpectedValue: benchBoostValue(sq, predictions), DeferTransfers: false},
		{Gameweek: gameweek, ChipName: chip.KindTripleCaptain, ExpectedValue: tripleCaptainValue(sq, predictions), DeferTransfers: false},
		{Gameweek: gameweek, ChipName: chip.KindFreeHit, ExpectedValue: freeHitValue(sq, predictions, pool), DeferTransfers: true},
		{Gameweek: gameweek, ChipName: chip.KindWildcard, ExpectedValue: freeHitValue(sq, predictions, pool), DeferTransfers: true},
	}

	best := ChipRecommendation{Gameweek: gameweek}
	for _, c := range candidates {
		if _, usable := inv.Available(c.ChipName, gameweek); !usable {
			continue
		}
		if c.ExpectedValue > best.ExpectedValue {
			best = c
		}
	}
	return best
}

// benchBoostValue is the sum of the bench's predicted points: the points
// a bench boost adds on top of the starting XI's own score.
func benchBoostValue(sq squad.Squad, predictions map[string]float64) float64 {
	total := 0.0
	for _, id := range sq.Bench {
		total += predictions[id]
	}
	return total
}

// tripleCaptainValue is the captain's predicted points: a normal
// captaincy already doubles that score, so a third multiplier adds
// exactly one more copy of it.
func tripleCaptainValue(sq squad.Squad, predictions map[string]float64) float64 {
	return predictions[sq.CaptainID]
}

// freeHitValue estimates the gain from a full rebuild: a theoretical-best
// XI assembled from the whole pool (ignoring budget, since the real
// squad optimizer enforces that constraint when actually building the
// squad) minus the current starting XI's predicted points.
func freeHitValue(sq squad.Squad, predictions map[string]float64, pool []player.Player) float64 {
	current := 0.0
	for _, id := range sq.StartingXI {
		current += predictions[id]
	}
	return theoreticalBestXI(predictions, pool) - current
}

func theoreticalBestXI(predictions map[string]float64, pool []player.Player) float64 {
	byPos := make(map[player.Position][]float64)
	for _, p := range pool {
		if !p.IsAvailable() {
			continue
		}
		byPos[p.Position] = append(byPos[p.Position], predictions[p.ID])
	}
	for pos := range byPos {
		sort.Sort(sort.Reverse(sort.Float64Slice(byPos[pos])))
	}

	take := func(pos player.Position, n int) float64 {
		scores := byPos[pos]
		if len(scores) > n {
			scores = scores[:n]
		}
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		return sum
	}

	const startingGK, startingDef, startingMid, startingFwd = 1, 4, 4, 2
	return take(player.PositionGoalkeeper, startingGK) +
		take(player.PositionDefender, startingDef) +
		take(player.PositionMidfielder, startingMid) +
		take(player.PositionForward, startingFwd)
}

// Latest returns the cached recommendation for gameweek, if evaluated.
func (a *ChipAdvisor) Latest(gameweek int) (ChipRecommendation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.hasCache[gameweek]
	return a.cached[gameweek], r && ok
}
