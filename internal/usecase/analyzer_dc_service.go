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
	"github.com/riskibarqy/fantasy-league/internal/domain/rules"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// dcAnalyzerMinGames is the minimum recent-games sample before a player's
// consistency score is trusted (§4.7).
const dcAnalyzerMinGames = 3

// dcAnalyzerRecentGames caps how far back the consistency score looks.
const dcAnalyzerRecentGames = 10

type dcAnalyzerPlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type dcAnalyzerStatsSource interface {
	ListMatchHistoryByLeagueAndPlayer(ctx context.Context, leagueID, playerID string, limit int) ([]playerstats.MatchHistory, error)
}

type dcAnalyzerGameweekSource interface {
	GetCurrent(ctx context.Context) (gameweek.Gameweek, bool, error)
}

type dcAnalyzerPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// DCPlayerRanking is one defender or midfielder's defensive-contribution
// profile (§4.7 DC analyzer).
type DCPlayerRanking struct {
	PlayerID         string
	Position         player.Position
	GamesPlayed      int
	ConsistencyScore float64 // fraction of recent games earning DC points
	PointsPerGame    float64
	PointsPerPrice   float64 // total DC points over the sample / price in millions
}

// DCAnalysis is the cached output of the DC analyzer for one gameweek.
type DCAnalysis struct {
	Gameweek   int
	AnalysisID string
	Rankings   []DCPlayerRanking
}

// DCAnalyzer ranks defenders and midfielders by how reliably they earn
// the 2025/26 defensive-contribution bonus (§4.7).
type DCAnalyzer struct {
	players   dcAnalyzerPlayerSource
	stats     dcAnalyzerStatsSource
	gameweeks dcAnalyzerGameweekSource
	publisher dcAnalyzerPublisher
	leagueID  string
	logger    *logging.Logger

	mu       sync.Mutex
	cached   DCAnalysis
	hasCache bool
}

func NewDCAnalyzer(
	players dcAnalyzerPlayerSource,
	stats dcAnalyzerStatsSource,
	gameweeks dcAnalyzerGameweekSource,
	publisher dcAnalyzerPublisher,
	leagueID string,
	logger *logging.Logger,
) *DCAnalyzer {
	if logger == nil {
		logger = logging.Default()
	}
	return &DCAnalyzer{
		players:   players,
		stats:     stats,
		gameweeks: gameweeks,
		publisher: publisher,
		leagueID:  leagueID,
		logger:    logger.With("component", "DCAnalyzer"),
	}
}

func (a *DCAnalyzer) Name() string { return "DCAnalyzer" }

func (a *DCAnalyzer) SubscribedKinds() []event.Kind {
	return []event.Kind{event.KindDataUpdated, event.KindAnalysisRequested}
}

func (a *DCAnalyzer) HandleEvent(ctx context.Context, e event.Event) error {
	switch e.Kind {
	case event.KindDataUpdated, event.KindAnalysisRequested:
		return a.refresh(ctx)
	default:
		return nil
	}
}

func (a *DCAnalyzer) refresh(ctx context.Context) error {
	current, ok, err := a.gameweeks.GetCurrent(ctx)
	if err != nil {
		return fmt.Errorf("dc analyzer: get current gameweek: %w", err)
	}
	if !ok {
		return nil
	}

	players, err := a.players.ListByLeague(ctx, a.leagueID)
	if err != nil {
		return fmt.Errorf("dc analyzer: list players: %w", err)
	}

	rankings := make([]DCPlayerRanking, 0, len(players))
	for _, p := range players {
		if p.Position != player.PositionDefender && p.Position != player.PositionMidfielder {
			continue
		}

		history, err := a.stats.ListMatchHistoryByLeagueAndPlayer(ctx, a.leagueID, p.ID, dcAnalyzerRecentGames)
		if err != nil {
			a.logger.WarnContext(ctx, "list match history failed", "player", p.ID, "error", err)
			continue
		}
		if len(history) < dcAnalyzerMinGames {
			continue
		}

		ranking := buildDCRanking(p, history)
		rankings = append(rankings, ranking)
	}

	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].ConsistencyScore != rankings[j].ConsistencyScore {
			return rankings[i].ConsistencyScore > rankings[j].ConsistencyScore
		}
		return rankings[i].PointsPerPrice > rankings[j].PointsPerPrice
	})

	evt, err := event.Create(event.KindAnalysisDCCompleted,
		event.NewAnalysisCompletedPayload(current.Number, ""),
		event.WithSource(a.Name()))
	if err != nil {
		return fmt.Errorf("dc analyzer: build analysis.dc_completed event: %w", err)
	}
	evt.Payload["analysis_id"] = evt.ID

	a.mu.Lock()
	a.cached = DCAnalysis{Gameweek: current.Number, AnalysisID: evt.ID, Rankings: rankings}
	a.hasCache = true
	a.mu.Unlock()

	if _, err := a.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("dc analyzer: publish analysis.dc_completed: %w", err)
	}
	return nil
}

func buildDCRanking(p player.Player, history []playerstats.MatchHistory) DCPlayerRanking {
	gamesEarning := 0
	totalPoints := 0
	for _, m := range history {
		stats := rules.GameweekStats{
			ClearancesBlocksInterceptions: statInt(m.AdvancedStats, "clearances_blocks_interceptions"),
			Tackles:                       statInt(m.AdvancedStats, "tackles"),
			Recoveries:                    statInt(m.AdvancedStats, "recoveries"),
		}
		points := rules.CalculateDefensiveContributionPoints(p.Position, stats)
		totalPoints += points
		if points > 0 {
			gamesEarning++
		}
	}

	ranking := DCPlayerRanking{
		PlayerID:      p.ID,
		Position:      p.Position,
		GamesPlayed:   len(history),
		PointsPerGame: float64(totalPoints) / float64(len(history)),
	}
	ranking.ConsistencyScore = float64(gamesEarning) / float64(len(history))
	if priceMillions := float64(p.Price) / 10.0; priceMillions > 0 {
		ranking.PointsPerPrice = float64(totalPoints) / priceMillions
	}
	return ranking
}

func statInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Latest returns the most recently computed analysis, if any.
func (a *DCAnalyzer) Latest() (DCAnalysis, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cached, a.hasCache
}
