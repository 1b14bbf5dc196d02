package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// Value-analyzer composite weights (§4.7 value analyzer): base points,
// defensive-contribution consistency, fixture ease and expected-goal
// involvement, in that order, summing to 1.0.
const (
	valueWeightBasePoints = 0.35
	valueWeightDefensive  = 0.25
	valueWeightFixture    = 0.20
	valueWeightXG         = 0.20
)

// valueAnalyzerJoinTimeout bounds how long the value analyzer waits for
// all three upstream analyses of a gameweek before publishing with
// whatever has arrived (§5 Concurrency & Resource Model: analyzer joins
// time out after 60s).
const valueAnalyzerJoinTimeout = 60 * time.Second

type valueAnalyzerPlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

// The three upstream sources the value analyzer joins. Each mirrors the
// Latest() accessor the corresponding analyzer already exposes, so the
// join is direct in-process lookups rather than re-deriving state from
// event payloads that only carry a gameweek and an opaque analysis id.
type valueAnalyzerDCSource interface {
	Latest() (DCAnalysis, bool)
}

type valueAnalyzerFixtureSource interface {
	Latest() (FixtureAnalysis, bool)
}

type valueAnalyzerXGSource interface {
	Latest() (XGAnalysis, bool)
}

type valueAnalyzerPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// ValueRanking is one player's composite value score (§4.7 value
// analyzer).
type ValueRanking struct {
	PlayerID       string
	Position       player.Position
	CompositeScore float64
}

// ValueAnalysis is the cached output of the value analyzer for one
// gameweek, keyed by position.
type ValueAnalysis struct {
	Gameweek   int
	AnalysisID string
	ByPosition map[player.Position][]ValueRanking
}

// valueJoinState tracks which upstream analyses have arrived for the
// gameweek currently being joined.
type valueJoinState struct {
	gameweek  int
	firstSeen time.Time
	have      map[event.Kind]bool
}

// ValueAnalyzer composes the defensive-contribution, fixture and
// expected-goals analyses with price-per-point into a single ranking
// (§4.7). It waits for all three upstream analyses for a gameweek before
// publishing analysis.value_rankings_completed, with a bounded wait so a
// missing analyzer cannot stall it forever.
type ValueAnalyzer struct {
	players   valueAnalyzerPlayerSource
	dc        valueAnalyzerDCSource
	fixtures  valueAnalyzerFixtureSource
	xg        valueAnalyzerXGSource
	publisher valueAnalyzerPublisher
	leagueID  string
	logger    *logging.Logger

	mu       sync.Mutex
	join     *valueJoinState
	cached   ValueAnalysis
	hasCache bool
}

func NewValueAnalyzer(
	players valueAnalyzerPlayerSource,
	dc valueAnalyzerDCSource,
	fixtures valueAnalyzerFixtureSource,
	xg valueAnalyzerXGSource,
	publisher valueAnalyzerPublisher,
	leagueID string,
	logger *logging.Logger,
) *ValueAnalyzer {
	if logger == nil {
		logger = logging.Default()
	}
	return &ValueAnalyzer{
		players:   players,
		dc:        dc,
		fixtures:  fixtures,
		xg:        xg,
		publisher: publisher,
		leagueID:  leagueID,
		logger:    logger.With("component", "ValueAnalyzer"),
	}
}

func (a *ValueAnalyzer) Name() string { return "ValueAnalyzer" }

func (a *ValueAnalyzer) SubscribedKinds() []event.Kind {
	return []event.Kind{event.KindAnalysisDCCompleted, event.KindAnalysisFixtureCompleted, event.KindAnalysisXGCompleted}
}

func (a *ValueAnalyzer) HandleEvent(ctx context.Context, e event.Event) error {
	switch e.Kind {
	case event.KindAnalysisDCCompleted, event.KindAnalysisFixtureCompleted, event.KindAnalysisXGCompleted:
		return a.observe(ctx, e)
	default:
		return nil
	}
}

// observe records which analyzer reported for which gameweek and, once
// the set is complete (or the join has timed out), composes and publishes
// the ranking.
func (a *ValueAnalyzer) observe(ctx context.Context, e event.Event) error {
	gw := e.AsAnalysisCompleted().Gameweek

	a.mu.Lock()
	if a.join == nil || a.join.gameweek != gw {
		a.join = &valueJoinState{gameweek: gw, firstSeen: time.Now().UTC(), have: map[event.Kind]bool{}}
	}
	a.join.have[e.Kind] = true
	complete := len(a.join.have) == 3
	timedOut := !complete && time.Since(a.join.firstSeen) >= valueAnalyzerJoinTimeout
	ready := complete || timedOut
	if ready {
		a.join = nil
	}
	a.mu.Unlock()

	if !ready {
		return nil
	}
	if timedOut {
		a.logger.WarnContext(ctx, "value analyzer join timed out, publishing partial rankings", "gameweek", gw)
	}

	return a.compose(ctx, gw)
}

func (a *ValueAnalyzer) compose(ctx context.Context, gw int) error {
	players, err := a.players.ListByLeague(ctx, a.leagueID)
	if err != nil {
		return fmt.Errorf("value analyzer: list players: %w", err)
	}

	dcAnalysis, haveDC := a.dc.Latest()
	fixtureAnalysis, haveFixture := a.fixtures.Latest()
	xgAnalysis, haveXG := a.xg.Latest()

	dcByPlayer := make(map[string]DCPlayerRanking, len(dcAnalysis.Rankings))
	if haveDC {
		for _, r := range dcAnalysis.Rankings {
			dcByPlayer[r.PlayerID] = r
		}
	}
	xgByPlayer := make(map[string]XGPlayerRanking, len(xgAnalysis.Rankings))
	if haveXG {
		for _, r := range xgAnalysis.Rankings {
			xgByPlayer[r.PlayerID] = r
		}
	}

	byPosition := make(map[player.Position][]ValueRanking)
	for _, p := range players {
		basePointsPerCost := 0.0
		if p.Price > 0 {
			basePointsPerCost = float64(p.TotalPoints) / (float64(p.Price) / 10.0)
		}

		defensiveScore := 0.0
		if dc, ok := dcByPlayer[p.ID]; ok {
			defensiveScore = dc.ConsistencyScore
		}

		fixtureScore := 0.5
		if haveFixture {
			if summary, ok := fixtureAnalysis.Teams[p.TeamID]; ok {
				fixtureScore = clamp01((5.0 - summary.MeanDifficulty) / 4.0)
			}
		}

		xgScore := 0.0
		if xg, ok := xgByPlayer[p.ID]; ok {
			xgScore = xg.ExpectedInvolvementP90
		}

		composite := valueWeightBasePoints*basePointsPerCost +
			valueWeightDefensive*defensiveScore +
			valueWeightFixture*fixtureScore +
			valueWeightXG*xgScore

		byPosition[p.Position] = append(byPosition[p.Position], ValueRanking{
			PlayerID:       p.ID,
			Position:       p.Position,
			CompositeScore: composite,
		})
	}

	for pos := range byPosition {
		rankings := byPosition[pos]
		sort.Slice(rankings, func(i, j int) bool { return rankings[i].CompositeScore > rankings[j].CompositeScore })
		byPosition[pos] = rankings
	}

	evt, err := event.Create(event.KindAnalysisValueRankingsCompleted,
		event.NewAnalysisCompletedPayload(gw, ""),
		event.WithSource(a.Name()))
	if err != nil {
		return fmt.Errorf("value analyzer: build analysis.value_rankings_completed event: %w", err)
	}
	evt.Payload["analysis_id"] = evt.ID

	a.mu.Lock()
	a.cached = ValueAnalysis{Gameweek: gw, AnalysisID: evt.ID, ByPosition: byPosition}
	a.hasCache = true
	a.mu.Unlock()

	if _, err := a.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("value analyzer: publish analysis.value_rankings_completed: %w", err)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Latest returns the most recently computed analysis, if any.
func (a *ValueAnalyzer) Latest() (ValueAnalysis, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cached, a.hasCache
}
