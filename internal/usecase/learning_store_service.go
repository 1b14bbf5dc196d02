package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/learning"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// learningStoreName is the agent name stamped on its performance
// rollups (§6.3 agent_performance).
const learningStoreName = "LearningStore"

type learningStorePredictionRepo interface {
	ListUnresolved(ctx context.Context, gameweek int) ([]prediction.Record, error)
	Save(ctx context.Context, r prediction.Record) error
	GetBiasCorrections(ctx context.Context) ([]prediction.BiasCorrection, error)
	SaveBiasCorrection(ctx context.Context, b prediction.BiasCorrection) error
}

type learningStorePlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type learningStoreOutcomeSource interface {
	GetFantasyPointsByLeagueAndGameweek(ctx context.Context, leagueID string, gameweek int) (map[string]int, error)
}

type learningStoreRepo interface {
	SavePlayerErrors(ctx context.Context, errs []learning.PlayerError) error
	SaveAgentPerformance(ctx context.Context, perf learning.AgentPerformance) error
}

// LearningStoreService consumes team-selected, transfer-executed,
// captain-selected, chip-used, and gameweek-completed events (§4.13): it
// saves a running per-event-kind count for all five and, on
// gameweek-completed, resolves the gameweek's predictions against
// observed outcomes to update the bias correction tables the prediction
// service consults.
//
// Decision records themselves (team-selection, transfer, captain-choice)
// are written by the decision coordinator at the point of decision
// (§4.12 step 9). Prediction records are first written by
// PredictionService; this store re-saves them as it resolves them and
// writes the per-player error / agent performance tables that back
// §4.13's aggregate bias correction.
type LearningStoreService struct {
	predictions learningStorePredictionRepo
	players     learningStorePlayerSource
	outcomes    learningStoreOutcomeSource
	repo        learningStoreRepo
	leagueID    string
	logger      *logging.Logger

	counts map[event.Kind]int
}

func NewLearningStoreService(
	predictions learningStorePredictionRepo,
	players learningStorePlayerSource,
	outcomes learningStoreOutcomeSource,
	repo learningStoreRepo,
	leagueID string,
	logger *logging.Logger,
) *LearningStoreService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LearningStoreService{
		predictions: predictions,
		players:     players,
		outcomes:    outcomes,
		repo:        repo,
		leagueID:    leagueID,
		logger:      logger.With("component", "LearningStoreService"),
		counts:      map[event.Kind]int{},
	}
}

func (s *LearningStoreService) Name() string { return learningStoreName }

func (s *LearningStoreService) SubscribedKinds() []event.Kind {
	return []event.Kind{
		event.KindTeamSelected,
		event.KindTransferExecuted,
		event.KindCaptainSelected,
		event.KindChipUsed,
		event.KindGameweekCompleted,
	}
}

func (s *LearningStoreService) HandleEvent(ctx context.Context, e event.Event) error {
	s.counts[e.Kind]++

	if e.Kind == event.KindGameweekCompleted {
		gameweek := e.AsGameweekCompleted().Gameweek
		if err := s.resolveGameweek(ctx, gameweek); err != nil {
			return fmt.Errorf("learning store: resolve gameweek %d: %w", gameweek, err)
		}
	}

	perf := learning.AgentPerformance{
		AgentName:       string(e.Kind),
		Gameweek:        e.GetInt("gameweek"),
		EventsProcessed: s.counts[e.Kind],
	}
	if err := s.repo.SaveAgentPerformance(ctx, perf); err != nil {
		s.logger.WarnContext(ctx, "failed to save agent performance rollup", "kind", e.Kind, "error", err)
	}
	return nil
}

// resolveGameweek joins the gameweek's unresolved predictions with the
// observed fantasy points, fills in each record's actual/error, and
// rolls the errors up into the position/price-bracket bias correction
// table (§4.13).
func (s *LearningStoreService) resolveGameweek(ctx context.Context, gameweek int) error {
	unresolved, err := s.predictions.ListUnresolved(ctx, gameweek)
	if err != nil {
		return fmt.Errorf("list unresolved predictions: %w", err)
	}
	if len(unresolved) == 0 {
		return nil
	}

	actuals, err := s.outcomes.GetFantasyPointsByLeagueAndGameweek(ctx, s.leagueID, gameweek)
	if err != nil {
		return fmt.Errorf("fetch observed fantasy points: %w", err)
	}

	players, err := s.players.ListByLeague(ctx, s.leagueID)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	byID := make(map[string]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	now := time.Now().UTC()
	resolved := make([]learning.ResolvedPrediction, 0, len(unresolved))

	for _, rec := range unresolved {
		actual, ok := actuals[rec.PlayerID]
		if !ok {
			continue
		}
		p := byID[rec.PlayerID]

		updated := rec.WithActual(float64(actual))
		if err := s.predictions.Save(ctx, updated); err != nil {
			s.logger.WarnContext(ctx, "failed to save resolved prediction", "player_id", rec.PlayerID, "error", err)
			continue
		}

		resolved = append(resolved, learning.ResolvedPrediction{
			PlayerID:  rec.PlayerID,
			Position:  string(p.Position),
			Price:     p.Price,
			Predicted: rec.PredictedPoints,
			Actual:    float64(actual),
		})
	}

	if len(resolved) == 0 {
		return nil
	}

	playerErrors := learning.ComputePlayerErrors(gameweek, resolved)
	if err := s.repo.SavePlayerErrors(ctx, playerErrors); err != nil {
		s.logger.WarnContext(ctx, "failed to save player errors", "error", err)
	}

	fresh := learning.AggregateBiasCorrections(resolved, now)
	existing, err := s.predictions.GetBiasCorrections(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load existing bias corrections, proceeding with fresh only", "error", err)
	}
	merged := learning.MergeBiasCorrections(existing, fresh)

	for _, c := range merged {
		if err := s.predictions.SaveBiasCorrection(ctx, c); err != nil {
			s.logger.WarnContext(ctx, "failed to save bias correction", "key", c.Key(), "error", err)
		}
	}

	return nil
}
