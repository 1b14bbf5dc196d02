package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/learning"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
)

type stubLearningPredictionRepo struct {
	unresolved  []prediction.Record
	existing    []prediction.BiasCorrection
	saved       []prediction.Record
	corrections []prediction.BiasCorrection
}

func (s *stubLearningPredictionRepo) ListUnresolved(_ context.Context, _ int) ([]prediction.Record, error) {
	return s.unresolved, nil
}

func (s *stubLearningPredictionRepo) Save(_ context.Context, r prediction.Record) error {
	s.saved = append(s.saved, r)
	return nil
}

func (s *stubLearningPredictionRepo) GetBiasCorrections(_ context.Context) ([]prediction.BiasCorrection, error) {
	return s.existing, nil
}

func (s *stubLearningPredictionRepo) SaveBiasCorrection(_ context.Context, b prediction.BiasCorrection) error {
	s.corrections = append(s.corrections, b)
	return nil
}

type stubLearningPlayerSource struct {
	players []player.Player
}

func (s stubLearningPlayerSource) ListByLeague(_ context.Context, _ string) ([]player.Player, error) {
	return s.players, nil
}

type stubLearningOutcomeSource struct {
	points map[string]int
}

func (s stubLearningOutcomeSource) GetFantasyPointsByLeagueAndGameweek(_ context.Context, _ string, _ int) (map[string]int, error) {
	return s.points, nil
}

type stubLearningRepo struct {
	playerErrors []learning.PlayerError
	performance  []learning.AgentPerformance
}

func (s *stubLearningRepo) SavePlayerErrors(_ context.Context, errs []learning.PlayerError) error {
	s.playerErrors = append(s.playerErrors, errs...)
	return nil
}

func (s *stubLearningRepo) SaveAgentPerformance(_ context.Context, perf learning.AgentPerformance) error {
	s.performance = append(s.performance, perf)
	return nil
}

func TestLearningStoreService_HandleEvent_GameweekCompletedResolvesAndAggregates(t *testing.T) {
	t.Parallel()

	unresolved := []prediction.Record{
		{PlayerID: "p1", Gameweek: 9, PredictedPoints: 5, CreatedAt: time.Now()},
		{PlayerID: "p2", Gameweek: 9, PredictedPoints: 4, CreatedAt: time.Now()},
	}
	players := []player.Player{
		{ID: "p1", Position: player.PositionForward, Price: 120},
		{ID: "p2", Position: player.PositionForward, Price: 110},
	}
	outcomes := map[string]int{"p1": 8, "p2": 2}

	predictionsRepo := &stubLearningPredictionRepo{unresolved: unresolved}
	repo := &stubLearningRepo{}

	svc := NewLearningStoreService(
		predictionsRepo,
		stubLearningPlayerSource{players: players},
		stubLearningOutcomeSource{points: outcomes},
		repo,
		"L",
		nil,
	)

	evt, err := event.Create(event.KindGameweekCompleted, event.NewGameweekCompletedPayload(9))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), evt); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(predictionsRepo.saved) != 2 {
		t.Fatalf("expected both predictions resolved, got=%d", len(predictionsRepo.saved))
	}
	for _, r := range predictionsRepo.saved {
		if r.ActualPoints == nil {
			t.Fatalf("expected actual points filled in for %s", r.PlayerID)
		}
	}

	if len(repo.playerErrors) != 2 {
		t.Fatalf("expected a per-player error record for each resolved prediction, got=%d", len(repo.playerErrors))
	}

	if len(predictionsRepo.corrections) != 1 {
		t.Fatalf("expected one bias correction bucket (both FWD:premium), got=%d", len(predictionsRepo.corrections))
	}
	correction := predictionsRepo.corrections[0]
	if correction.Position != "FWD" || correction.Bracket != prediction.BracketPremium {
		t.Fatalf("expected FWD premium bucket, got=%+v", correction)
	}
	if correction.SampleCount != 2 {
		t.Fatalf("expected both players pooled into one bucket, got sample count=%d", correction.SampleCount)
	}

	if len(repo.performance) != 1 || repo.performance[0].EventsProcessed != 1 {
		t.Fatalf("expected an agent performance rollup recorded, got=%+v", repo.performance)
	}
}

func TestLearningStoreService_HandleEvent_NonCompletionEventsOnlyRollUpPerformance(t *testing.T) {
	t.Parallel()

	predictionsRepo := &stubLearningPredictionRepo{}
	repo := &stubLearningRepo{}
	svc := NewLearningStoreService(predictionsRepo, stubLearningPlayerSource{}, stubLearningOutcomeSource{}, repo, "L", nil)

	evt, err := event.Create(event.KindTeamSelected, event.NewTeamSelectedPayload(9, "team1", "c1", "v1", "", "", "", ""))
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), evt); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(predictionsRepo.saved) != 0 {
		t.Fatalf("expected no prediction resolution on a non-completion event")
	}
	if len(repo.performance) != 1 {
		t.Fatalf("expected one performance rollup, got=%d", len(repo.performance))
	}
}
