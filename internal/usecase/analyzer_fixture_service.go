package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/elo"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-league/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-league/internal/domain/team"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// Fixture-difficulty classification thresholds (§4.7).
const (
	fixtureDifficultyEasyMax = 2.5
	fixtureDifficultyHardMin = 3.5
	fixtureSwingDeltaMin     = 1.0
	fixtureHorizonGameweeks  = 6
)

type fixtureAnalyzerFixtureSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]fixture.Fixture, error)
}

type fixtureAnalyzerTeamSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]team.Team, error)
}

// fixtureAnalyzerEloStore is the subset of elo.Repository the analyzer
// needs: read the latest rating to derive difficulty, write it back after
// folding in a finished fixture's result.
type fixtureAnalyzerEloStore interface {
	GetLatest(ctx context.Context, teamID string) (elo.TeamRating, bool, error)
	Save(ctx context.Context, rating elo.TeamRating) error
}

type fixtureAnalyzerGameweekSource interface {
	GetCurrent(ctx context.Context) (gameweek.Gameweek, bool, error)
}

// fixtureAnalyzerPublisher is the subset of eventbus.Bus the analyzer
// needs.
type fixtureAnalyzerPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// TeamFixtureSummary is one team's rolled-up fixture outlook over the
// horizon (§4.7 fixture analyzer).
type TeamFixtureSummary struct {
	TeamID         string
	MeanDifficulty float64
	Classification string // easy, hard, neutral
	SwingDelta     float64
	HasSwing       bool
	FixtureCount   int
}

// FixtureAnalysis is the cached output of the fixture analyzer for one
// gameweek.
type FixtureAnalysis struct {
	Gameweek    int
	AnalysisID  string
	Teams       map[string]TeamFixtureSummary
	GeneratedAt time.Time
}

// FixtureAnalyzer computes, for every team, the mean fixture difficulty
// over the next six gameweeks (§4.7), classifying each as easy, hard or
// neutral and flagging a fixture swing where the second half of the
// horizon diverges sharply from the first.
//
// It doubles as the sole consumer of the Elo model (§ SUPPLEMENTED
// FEATURES): gameweek.completed triggers UpdateFromMatch for every
// fixture that finished, so the next data.updated recomputes difficulty
// against ratings that reflect the latest results.
type FixtureAnalyzer struct {
	fixtures  fixtureAnalyzerFixtureSource
	teams     fixtureAnalyzerTeamSource
	eloStore  fixtureAnalyzerEloStore
	gameweeks fixtureAnalyzerGameweekSource
	publisher fixtureAnalyzerPublisher
	leagueID  string
	logger    *logging.Logger

	mu       sync.Mutex
	cached   FixtureAnalysis
	hasCache bool
}

func NewFixtureAnalyzer(
	fixtures fixtureAnalyzerFixtureSource,
	teams fixtureAnalyzerTeamSource,
	eloStore fixtureAnalyzerEloStore,
	gameweeks fixtureAnalyzerGameweekSource,
	publisher fixtureAnalyzerPublisher,
	leagueID string,
	logger *logging.Logger,
) *FixtureAnalyzer {
	if logger == nil {
		logger = logging.Default()
	}
	return &FixtureAnalyzer{
		fixtures:  fixtures,
		teams:     teams,
		eloStore:  eloStore,
		gameweeks: gameweeks,
		publisher: publisher,
		leagueID:  leagueID,
		logger:    logger.With("component", "FixtureAnalyzer"),
	}
}

func (a *FixtureAnalyzer) Name() string { return "FixtureAnalyzer" }

// SubscribedKinds: data.updated refreshes the difficulty outlook;
// gameweek.completed rolls Elo ratings forward from the results that just
// came in.
func (a *FixtureAnalyzer) SubscribedKinds() []event.Kind {
	return []event.Kind{event.KindDataUpdated, event.KindGameweekCompleted}
}

func (a *FixtureAnalyzer) HandleEvent(ctx context.Context, e event.Event) error {
	switch e.Kind {
	case event.KindGameweekCompleted:
		return a.updateEloRatings(ctx, e.AsGameweekCompleted().Gameweek)
	case event.KindDataUpdated:
		return a.refreshDifficulty(ctx)
	default:
		return nil
	}
}

// updateEloRatings folds every finished fixture of the completed gameweek
// into both sides' Elo ratings.
func (a *FixtureAnalyzer) updateEloRatings(ctx context.Context, completedGW int) error {
	fixtures, err := a.fixtures.ListByLeague(ctx, a.leagueID)
	if err != nil {
		return fmt.Errorf("fixture analyzer: list fixtures: %w", err)
	}

	for _, f := range fixtures {
		if f.Gameweek != completedGW || !f.HasResult() {
			continue
		}

		homeRating := a.latestRating(ctx, f.HomeTeamID)
		awayRating := a.latestRating(ctx, f.AwayTeamID)

		newHome, newAway, _, _ := elo.UpdateFromMatch(homeRating, awayRating, *f.HomeScore, *f.AwayScore)

		if err := a.eloStore.Save(ctx, elo.TeamRating{TeamID: f.HomeTeamID, Gameweek: completedGW, Ratings: newHome}); err != nil {
			a.logger.WarnContext(ctx, "save home elo rating failed", "team", f.HomeTeamID, "error", err)
		}
		if err := a.eloStore.Save(ctx, elo.TeamRating{TeamID: f.AwayTeamID, Gameweek: completedGW, Ratings: newAway}); err != nil {
			a.logger.WarnContext(ctx, "save away elo rating failed", "team", f.AwayTeamID, "error", err)
		}
	}

	return nil
}

func (a *FixtureAnalyzer) latestRating(ctx context.Context, teamID string) elo.Ratings {
	rating, ok, err := a.eloStore.GetLatest(ctx, teamID)
	if err != nil || !ok {
		return elo.NewRatings()
	}
	return rating.Ratings
}

// refreshDifficulty recomputes the horizon outlook for every team and
// publishes analysis.fixture_completed.
func (a *FixtureAnalyzer) refreshDifficulty(ctx context.Context) error {
	current, ok, err := a.gameweeks.GetCurrent(ctx)
	if err != nil {
		return fmt.Errorf("fixture analyzer: get current gameweek: %w", err)
	}
	if !ok {
		return nil
	}

	teams, err := a.teams.ListByLeague(ctx, a.leagueID)
	if err != nil {
		return fmt.Errorf("fixture analyzer: list teams: %w", err)
	}
	fixtures, err := a.fixtures.ListByLeague(ctx, a.leagueID)
	if err != nil {
		return fmt.Errorf("fixture analyzer: list fixtures: %w", err)
	}

	horizonEnd := current.Number + fixtureHorizonGameweeks - 1
	ratings := make(map[string]elo.Ratings, len(teams))
	for _, t := range teams {
		ratings[t.ID] = a.latestRating(ctx, t.ID)
	}

	byTeam := make(map[string][]fixture.Fixture)
	for _, f := range fixtures {
		if f.Gameweek < current.Number || f.Gameweek > horizonEnd {
			continue
		}
		byTeam[f.HomeTeamID] = append(byTeam[f.HomeTeamID], f)
		byTeam[f.AwayTeamID] = append(byTeam[f.AwayTeamID], f)
	}

	summaries := make(map[string]TeamFixtureSummary, len(teams))
	for _, t := range teams {
		ownFixtures := byTeam[t.ID]
		sort.Slice(ownFixtures, func(i, j int) bool { return ownFixtures[i].Gameweek < ownFixtures[j].Gameweek })

		difficulties := make([]float64, 0, len(ownFixtures))
		for _, f := range ownFixtures {
			isHome := f.HomeTeamID == t.ID
			opponentID := f.AwayTeamID
			if !isHome {
				opponentID = f.HomeTeamID
			}
			difficulties = append(difficulties, elo.FixtureDifficulty(ratings[opponentID], isHome, true))
		}

		summaries[t.ID] = summarizeDifficulty(t.ID, difficulties)
	}

	evt, err := event.Create(event.KindAnalysisFixtureCompleted,
		event.NewAnalysisCompletedPayload(current.Number, ""),
		event.WithSource(a.Name()))
	if err != nil {
		return fmt.Errorf("fixture analyzer: build analysis.fixture_completed event: %w", err)
	}
	evt.Payload["analysis_id"] = evt.ID

	a.mu.Lock()
	a.cached = FixtureAnalysis{Gameweek: current.Number, AnalysisID: evt.ID, Teams: summaries, GeneratedAt: time.Now().UTC()}
	a.hasCache = true
	a.mu.Unlock()

	if _, err := a.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("fixture analyzer: publish analysis.fixture_completed: %w", err)
	}
	return nil
}

func summarizeDifficulty(teamID string, difficulties []float64) TeamFixtureSummary {
	summary := TeamFixtureSummary{TeamID: teamID, FixtureCount: len(difficulties)}
	if len(difficulties) == 0 {
		summary.Classification = "neutral"
		return summary
	}

	var total float64
	for _, d := range difficulties {
		total += d
	}
	summary.MeanDifficulty = total / float64(len(difficulties))

	switch {
	case summary.MeanDifficulty <= fixtureDifficultyEasyMax:
		summary.Classification = "easy"
	case summary.MeanDifficulty >= fixtureDifficultyHardMin:
		summary.Classification = "hard"
	default:
		summary.Classification = "neutral"
	}

	if len(difficulties) >= 2 {
		mid := len(difficulties) / 2
		firstHalf, secondHalf := difficulties[:mid], difficulties[mid:]
		summary.SwingDelta = mean(secondHalf) - mean(firstHalf)
		if summary.SwingDelta < 0 {
			summary.SwingDelta = -summary.SwingDelta
		}
		summary.HasSwing = summary.SwingDelta >= fixtureSwingDeltaMin
	}

	return summary
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// Latest returns the most recently computed analysis, if any.
func (a *FixtureAnalyzer) Latest() (FixtureAnalysis, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cached, a.hasCache
}
