package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-league/internal/domain/statvalue"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// xgAnalyzerPerformanceThreshold is the |actual - expected| goals gap
// past which a player is flagged an over- or under-performer (§4.7).
const xgAnalyzerPerformanceThreshold = 2.0

// xgAnalyzerStatKey is the SportMonks stat key used as a supplementary
// cross-check against the upstream per-90 figures.
const xgAnalyzerStatKey = "expected_goals"

type xgAnalyzerPlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type xgAnalyzerStatsSource interface {
	GetSeasonStatsByLeagueAndPlayer(ctx context.Context, leagueID, playerID string) (playerstats.SeasonStats, error)
}

// xgAnalyzerValueSource is an optional supplementary signal: the
// SportMonks-sourced advanced stats the sync path writes but nothing else
// reads back (see statvalue.Repository.ListPlayerValuesByStatKey). A nil
// source disables the cross-check without affecting the primary ranking.
type xgAnalyzerValueSource interface {
	ListPlayerValuesByStatKey(ctx context.Context, leagueID, statKey string) ([]statvalue.PlayerValue, error)
}

type xgAnalyzerGameweekSource interface {
	GetCurrent(ctx context.Context) (gameweek.Gameweek, bool, error)
}

type xgAnalyzerPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// XGPlayerRanking is one attacking player's expected-goal-involvement
// profile (§4.7 expected-goals analyzer).
type XGPlayerRanking struct {
	PlayerID               string
	ExpectedGoalsPer90     float64
	ExpectedAssistsPer90   float64
	ExpectedInvolvementP90 float64
	ActualGoals            int
	ExpectedGoalsTotal     float64
	PerformanceGap         float64 // actual - expected, over the season so far
	OverPerforming         bool
	UnderPerforming        bool
	CrossCheckedGoalsPer90 float64 // 0 when no SportMonks value was available
}

// XGAnalysis is the cached output of the expected-goals analyzer for one
// gameweek.
type XGAnalysis struct {
	Gameweek   int
	AnalysisID string
	Rankings   []XGPlayerRanking
}

// XGAnalyzer ranks attacking players by expected goal involvement and
// flags over/under-performers relative to it (§4.7).
type XGAnalyzer struct {
	players   xgAnalyzerPlayerSource
	stats     xgAnalyzerStatsSource
	values    xgAnalyzerValueSource
	gameweeks xgAnalyzerGameweekSource
	publisher xgAnalyzerPublisher
	leagueID  string
	logger    *logging.Logger

	mu       sync.Mutex
	cached   XGAnalysis
	hasCache bool
}

func NewXGAnalyzer(
	players xgAnalyzerPlayerSource,
	stats xgAnalyzerStatsSource,
	values xgAnalyzerValueSource,
	gameweeks xgAnalyzerGameweekSource,
	publisher xgAnalyzerPublisher,
	leagueID string,
	logger *logging.Logger,
) *XGAnalyzer {
	if logger == nil {
		logger = logging.Default()
	}
	return &XGAnalyzer{
		players:   players,
		stats:     stats,
		values:    values,
		gameweeks: gameweeks,
		publisher: publisher,
		leagueID:  leagueID,
		logger:    logger.With("component", "XGAnalyzer"),
	}
}

func (a *XGAnalyzer) Name() string { return "XGAnalyzer" }

func (a *XGAnalyzer) SubscribedKinds() []event.Kind {
	return []event.Kind{event.KindDataUpdated, event.KindAnalysisRequested}
}

func (a *XGAnalyzer) HandleEvent(ctx context.Context, e event.Event) error {
	switch e.Kind {
	case event.KindDataUpdated, event.KindAnalysisRequested:
		return a.refresh(ctx)
	default:
		return nil
	}
}

func (a *XGAnalyzer) refresh(ctx context.Context) error {
	current, ok, err := a.gameweeks.GetCurrent(ctx)
	if err != nil {
		return fmt.Errorf("xg analyzer: get current gameweek: %w", err)
	}
	if !ok {
		return nil
	}

	players, err := a.players.ListByLeague(ctx, a.leagueID)
	if err != nil {
		return fmt.Errorf("xg analyzer: list players: %w", err)
	}

	crossCheck := a.loadCrossCheck(ctx)

	rankings := make([]XGPlayerRanking, 0, len(players))
	for _, p := range players {
		if p.Position != player.PositionMidfielder && p.Position != player.PositionForward {
			continue
		}
		if p.MinutesPlayed < player.MinMinutesForExpectedGoals {
			continue
		}

		season, err := a.stats.GetSeasonStatsByLeagueAndPlayer(ctx, a.leagueID, p.ID)
		if err != nil {
			a.logger.WarnContext(ctx, "get season stats failed", "player", p.ID, "error", err)
			continue
		}

		expectedTotal := p.ExpectedGoalsPer90 * float64(p.MinutesPlayed) / 90.0
		gap := float64(season.Goals) - expectedTotal

		ranking := XGPlayerRanking{
			PlayerID:               p.ID,
			ExpectedGoalsPer90:     p.ExpectedGoalsPer90,
			ExpectedAssistsPer90:   p.ExpectedAssistsPer90,
			ExpectedInvolvementP90: p.ExpectedGoalsPer90 + p.ExpectedAssistsPer90,
			ActualGoals:            season.Goals,
			ExpectedGoalsTotal:     expectedTotal,
			PerformanceGap:         gap,
			OverPerforming:         gap >= xgAnalyzerPerformanceThreshold,
			UnderPerforming:        gap <= -xgAnalyzerPerformanceThreshold,
			CrossCheckedGoalsPer90: crossCheck[p.ID],
		}
		rankings = append(rankings, ranking)
	}

	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].ExpectedInvolvementP90 > rankings[j].ExpectedInvolvementP90
	})

	evt, err := event.Create(event.KindAnalysisXGCompleted,
		event.NewAnalysisCompletedPayload(current.Number, ""),
		event.WithSource(a.Name()))
	if err != nil {
		return fmt.Errorf("xg analyzer: build analysis.xg_completed event: %w", err)
	}
	evt.Payload["analysis_id"] = evt.ID

	a.mu.Lock()
	a.cached = XGAnalysis{Gameweek: current.Number, AnalysisID: evt.ID, Rankings: rankings}
	a.hasCache = true
	a.mu.Unlock()

	if _, err := a.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("xg analyzer: publish analysis.xg_completed: %w", err)
	}
	return nil
}

// loadCrossCheck reads the SportMonks-sourced expected-goals values, when
// a value source was wired, keyed by player id. Per-match values are
// averaged into a per-90-equivalent figure for comparison against the
// upstream per-90 field; a disabled or empty source yields an empty map,
// leaving CrossCheckedGoalsPer90 at its zero value.
func (a *XGAnalyzer) loadCrossCheck(ctx context.Context) map[string]float64 {
	out := map[string]float64{}
	if a.values == nil {
		return out
	}

	values, err := a.values.ListPlayerValuesByStatKey(ctx, a.leagueID, xgAnalyzerStatKey)
	if err != nil {
		a.logger.WarnContext(ctx, "list player stat values failed", "stat_key", xgAnalyzerStatKey, "error", err)
		return out
	}

	totals := map[string]float64{}
	counts := map[string]int{}
	for _, v := range values {
		if v.PlayerID == "" || v.ValueNum == nil {
			continue
		}
		totals[v.PlayerID] += *v.ValueNum
		counts[v.PlayerID]++
	}
	for id, count := range counts {
		if count > 0 {
			out[id] = totals[id] / float64(count)
		}
	}
	return out
}

// Latest returns the most recently computed analysis, if any.
func (a *XGAnalyzer) Latest() (XGAnalysis, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cached, a.hasCache
}
