package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/chip"
	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
	"github.com/riskibarqy/fantasy-league/internal/domain/transfer"
)

type stubDCSquadSource struct {
	squad    squad.Squad
	ok       bool
	upserted []squad.Squad
}

func (s *stubDCSquadSource) GetLatestByTeam(_ context.Context, _ string) (squad.Squad, bool, error) {
	return s.squad, s.ok, nil
}

func (s *stubDCSquadSource) Upsert(_ context.Context, sq squad.Squad) error {
	s.upserted = append(s.upserted, sq)
	return nil
}

type stubDCPlayerSource struct {
	byID map[string]player.Player
}

func (s stubDCPlayerSource) GetByIDs(_ context.Context, _ string, ids []string) ([]player.Player, error) {
	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubDCPredictionSource struct {
	predictions map[string]float64
}

func (s stubDCPredictionSource) PredictAll(_ context.Context, _ int, _ bool) (map[string]float64, error) {
	return s.predictions, nil
}

type stubDCTransferOptimizer struct {
	decision transfer.Decision
	options  []transfer.Option
}

func (s stubDCTransferOptimizer) Optimize(_ context.Context, _ string, _ int, _ *transfer.ChipAlternative) (transfer.Decision, []transfer.Option, error) {
	return s.decision, s.options, nil
}

func (s stubDCTransferOptimizer) Execute(_ context.Context, _ string, _ int, _ transfer.Option, _ transfer.Action) error {
	return nil
}

type stubDCSquadOptimizer struct {
	freeHit  BuildResult
	wildcard BuildResult
}

func (s stubDCSquadOptimizer) BuildFreeHit(_ context.Context, _ int) (BuildResult, error) {
	return s.freeHit, nil
}

func (s stubDCSquadOptimizer) BuildWildcard(_ context.Context, _, _ int, _ int64) (BuildResult, error) {
	return s.wildcard, nil
}

type stubDCChipSource struct {
	rec ChipRecommendation
	ok  bool
}

func (s stubDCChipSource) Latest(_ int) (ChipRecommendation, bool) { return s.rec, s.ok }

type stubDCDecisionRepo struct {
	saved []decision.Record
}

func (s *stubDCDecisionRepo) Save(_ context.Context, r decision.Record) error {
	s.saved = append(s.saved, r)
	return nil
}

type stubDCAnnouncer struct {
	text string
	err  error
}

func (s stubDCAnnouncer) Generate(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

func squadFor(picks []squad.Pick) squad.Squad {
	return squad.Squad{TeamID: "team1", Picks: picks, Budget: 20, FreeTransfers: 1}
}

func fifteenPicks() []squad.Pick {
	picks := make([]squad.Pick, 0, 15)
	teams := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	add := func(id string, pos player.Position, team string, price int64) {
		picks = append(picks, squad.Pick{PlayerID: id, Position: pos, TeamID: team, Price: price})
	}
	for i, team := range teams {
		add(team+"-gk", player.PositionGoalkeeper, team, int64(40+i))
		add(team+"-def1", player.PositionDefender, team, int64(40+i))
		add(team+"-def2", player.PositionDefender, team, int64(45+i))
		add(team+"-mid1", player.PositionMidfielder, team, int64(50+i))
		add(team+"-mid2", player.PositionMidfielder, team, int64(55+i))
		add(team+"-fwd1", player.PositionForward, team, int64(60+i))
	}
	return picks[:15]
}

func predictionsFor(picks []squad.Pick) map[string]float64 {
	out := make(map[string]float64, len(picks))
	for i, p := range picks {
		out[p.PlayerID] = float64(len(picks) - i)
	}
	return out
}

func TestDecisionCoordinatorService_Decide_NoSquadFailsClosed(t *testing.T) {
	t.Parallel()

	squads := &stubDCSquadSource{ok: false}
	publisher := &stubPublisher{}
	coordinator := NewDecisionCoordinatorService(
		squads, stubDCPlayerSource{}, stubDCPredictionSource{}, stubDCTransferOptimizer{},
		stubDCSquadOptimizer{}, stubDCChipSource{}, &stubDCDecisionRepo{}, publisher, nil,
		"team1", "L", nil,
	)

	err := coordinator.Decide(context.Background(), "team1", 9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
	if len(publisher.published) != 1 || publisher.published[0].Kind != event.KindNotificationError {
		t.Fatalf("expected an error notification published, got=%+v", publisher.published)
	}
}

func TestDecisionCoordinatorService_Decide_AppliesTransferPersistsDraftAndRecords(t *testing.T) {
	t.Parallel()

	picks := fifteenPicks()
	predictions := predictionsFor(picks)

	squads := &stubDCSquadSource{squad: squadFor(picks), ok: true}
	players := stubDCPlayerSource{byID: map[string]player.Player{
		"newp": {ID: "newp", TeamID: "t1", Position: player.PositionMidfielder, Price: 80},
	}}
	opt := transfer.Option{
		Position:    player.PositionMidfielder,
		PlayerOutID: picks[3].PlayerID,
		PlayerInID:  "newp",
		Predictions: []transfer.GWPrediction{{Gameweek: 9, ExpectedOut: 2, ExpectedIn: 8}},
	}
	transferOpt := stubDCTransferOptimizer{
		decision: transfer.Decision{Action: transfer.ActionMake, Reasoning: "best option clears threshold"},
		options:  []transfer.Option{opt},
	}
	decisions := &stubDCDecisionRepo{}
	publisher := &stubPublisher{}

	coordinator := NewDecisionCoordinatorService(
		squads, players, stubDCPredictionSource{predictions: predictions}, transferOpt,
		stubDCSquadOptimizer{}, stubDCChipSource{}, decisions, publisher,
		stubDCAnnouncer{text: "Big week ahead."},
		"team1", "L", nil,
	)

	if err := coordinator.Decide(context.Background(), "team1", 9); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if len(squads.upserted) != 1 {
		t.Fatalf("expected exactly one draft persisted, got=%d", len(squads.upserted))
	}
	draft := squads.upserted[0]
	foundNew := false
	for _, p := range draft.Picks {
		if p.PlayerID == "newp" {
			foundNew = true
		}
		if p.PlayerID == opt.PlayerOutID {
			t.Fatalf("expected outgoing player removed from the draft")
		}
	}
	if !foundNew {
		t.Fatalf("expected incoming player in the draft squad")
	}
	if len(draft.StartingXI) != 11 {
		t.Fatalf("expected an 11-player starting lineup, got=%d", len(draft.StartingXI))
	}

	if len(publisher.published) != 1 || publisher.published[0].Kind != event.KindTeamSelected {
		t.Fatalf("expected a single team.selected event, got=%+v", publisher.published)
	}
	payload := publisher.published[0].AsTeamSelected()
	if payload.TransferInID != "newp" {
		t.Fatalf("expected team-selected payload to name the incoming player, got=%+v", payload)
	}
	if payload.Announcement != "Big week ahead." {
		t.Fatalf("expected the announcer's text to be used, got=%q", payload.Announcement)
	}

	kinds := map[decision.Kind]int{}
	for _, r := range decisions.saved {
		kinds[r.Kind]++
	}
	if kinds[decision.KindTeamSelection] != 1 || kinds[decision.KindTransfer] != 1 || kinds[decision.KindCaptainChoice] != 1 {
		t.Fatalf("expected one team-selection, one transfer and one captain-choice record, got=%+v", kinds)
	}
}

func TestDecisionCoordinatorService_Decide_ChipDeferralRebuildsSquad(t *testing.T) {
	t.Parallel()

	picks := fifteenPicks()
	predictions := predictionsFor(picks)

	squads := &stubDCSquadSource{squad: squadFor(picks), ok: true}
	transferOpt := stubDCTransferOptimizer{
		decision: transfer.Decision{Action: transfer.ActionChip, Reasoning: "chip recommended over transfer"},
	}
	wildcardPicks := fifteenPicks() // stand-in rebuilt squad
	squadBuilder := stubDCSquadOptimizer{wildcard: BuildResult{Picks: wildcardPicks, Objective: 123}}
	chips := stubDCChipSource{rec: ChipRecommendation{Gameweek: 9, ChipName: chip.KindWildcard, ExpectedValue: 30, DeferTransfers: true}, ok: true}
	publisher := &stubPublisher{}

	coordinator := NewDecisionCoordinatorService(
		squads, stubDCPlayerSource{}, stubDCPredictionSource{predictions: predictions}, transferOpt,
		squadBuilder, chips, &stubDCDecisionRepo{}, publisher, nil,
		"team1", "L", nil,
	)

	if err := coordinator.Decide(context.Background(), "team1", 9); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if len(squads.upserted) != 1 {
		t.Fatalf("expected a draft persisted, got=%d", len(squads.upserted))
	}
	if squads.upserted[0].ActiveChip != string(chip.KindWildcard) {
		t.Fatalf("expected wildcard recorded as the active chip, got=%q", squads.upserted[0].ActiveChip)
	}
}
