package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/chip"
	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
	"github.com/riskibarqy/fantasy-league/internal/domain/transfer"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// decisionCoordinatorName is stamped on every decision record this
// coordinator produces (§4.12 step 9: "the producing agent").
const decisionCoordinatorName = "DecisionCoordinator"

// fallbackAnnouncementTemplate is used when the text-generation endpoint
// is unavailable (§4.12 step 7).
const fallbackAnnouncementTemplate = "Gameweek %d squad locked in. %s Captain: %s."

type decisionCoordinatorSquadSource interface {
	GetLatestByTeam(ctx context.Context, teamID string) (squad.Squad, bool, error)
	Upsert(ctx context.Context, s squad.Squad) error
}

type decisionCoordinatorPlayerSource interface {
	GetByIDs(ctx context.Context, leagueID string, playerIDs []string) ([]player.Player, error)
}

type decisionCoordinatorPredictionSource interface {
	PredictAll(ctx context.Context, gameweek int, excludeUnavailable bool) (map[string]float64, error)
}

type decisionCoordinatorTransferOptimizer interface {
	Optimize(ctx context.Context, teamID string, gameweek int, chipAlt *transfer.ChipAlternative) (transfer.Decision, []transfer.Option, error)
	Execute(ctx context.Context, teamID string, gameweek int, opt transfer.Option, decidedBy transfer.Action) error
}

type decisionCoordinatorSquadOptimizer interface {
	BuildFreeHit(ctx context.Context, gameweek int) (BuildResult, error)
	BuildWildcard(ctx context.Context, gameweek, horizon int, budget int64) (BuildResult, error)
}

type decisionCoordinatorChipSource interface {
	Latest(gameweek int) (ChipRecommendation, bool)
}

type decisionCoordinatorDecisionRepo interface {
	Save(ctx context.Context, r decision.Record) error
}

type decisionCoordinatorPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

type decisionCoordinatorAnnouncer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DecisionCoordinatorService orchestrates the full weekly decision
// procedure (§4.12): load squad, optimize transfers, arbitrate chips,
// pick formation and captain, persist the draft, announce, and record.
type DecisionCoordinatorService struct {
	squads      decisionCoordinatorSquadSource
	players     decisionCoordinatorPlayerSource
	predictions decisionCoordinatorPredictionSource
	transfers   decisionCoordinatorTransferOptimizer
	squadBuild  decisionCoordinatorSquadOptimizer
	chips       decisionCoordinatorChipSource
	decisions   decisionCoordinatorDecisionRepo
	publisher   decisionCoordinatorPublisher
	announcer   decisionCoordinatorAnnouncer
	teamID      string
	leagueID    string
	logger      *logging.Logger
}

func NewDecisionCoordinatorService(
	squads decisionCoordinatorSquadSource,
	players decisionCoordinatorPlayerSource,
	predictions decisionCoordinatorPredictionSource,
	transfers decisionCoordinatorTransferOptimizer,
	squadBuild decisionCoordinatorSquadOptimizer,
	chips decisionCoordinatorChipSource,
	decisions decisionCoordinatorDecisionRepo,
	publisher decisionCoordinatorPublisher,
	announcer decisionCoordinatorAnnouncer,
	teamID, leagueID string,
	logger *logging.Logger,
) *DecisionCoordinatorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DecisionCoordinatorService{
		squads:      squads,
		players:     players,
		predictions: predictions,
		transfers:   transfers,
		squadBuild:  squadBuild,
		chips:       chips,
		decisions:   decisions,
		publisher:   publisher,
		announcer:   announcer,
		teamID:      teamID,
		leagueID:    leagueID,
		logger:      logger.With("component", "DecisionCoordinatorService"),
	}
}

func (c *DecisionCoordinatorService) Name() string { return decisionCoordinatorName }

func (c *DecisionCoordinatorService) SubscribedKinds() []event.Kind {
	return []event.Kind{event.KindGameweekPlanning, event.KindTeamSelectionRequested}
}

func (c *DecisionCoordinatorService) HandleEvent(ctx context.Context, e event.Event) error {
	return c.Decide(ctx, c.teamID, e.GetInt("gameweek"))
}

// Decide runs the nine-step weekly procedure for teamID and gameweek.
func (c *DecisionCoordinatorService) Decide(ctx context.Context, teamID string, gameweek int) error {
	// Step 1: load squad and bank, fail closed.
	sq, ok, err := c.squads.GetLatestByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("decision coordinator: load squad: %w", err)
	}
	if !ok {
		c.logger.ErrorContext(ctx, "no squad on file, cannot make a weekly decision", "team_id", teamID, "gameweek", gameweek)
		c.publishNotification(ctx, "no squad on file for "+teamID)
		return fmt.Errorf("%w: no squad for team %s", ErrNotFound, teamID)
	}

	// Step 2: predict points for gameweek G.
	predictions, err := c.predictions.PredictAll(ctx, gameweek, true)
	if err != nil {
		return fmt.Errorf("decision coordinator: predict all: %w", err)
	}

	// Step 3: optimize transfers, informed by any cached chip recommendation.
	var chipAlt *transfer.ChipAlternative
	rec, haveRec := c.chips.Latest(gameweek)
	if haveRec {
		chipAlt = &transfer.ChipAlternative{
			Wins:           true,
			DeferTransfers: rec.ChipName == chip.KindWildcard || rec.ChipName == chip.KindFreeHit,
			ExpectedValue:  rec.ExpectedValue,
		}
	}
	transferDecision, options, err := c.transfers.Optimize(ctx, teamID, gameweek, chipAlt)
	if err != nil {
		return fmt.Errorf("decision coordinator: optimize transfers: %w", err)
	}

	// Step 4: act on a chip, or apply the selected transfer.
	resultSquad := sq
	var appliedTransfer *transfer.Option
	chipUsed := ""
	if transferDecision.Action == transfer.ActionChip && haveRec {
		chipUsed = string(rec.ChipName)
		built, err := c.buildChipSquad(ctx, rec.ChipName, gameweek, sq)
		if err != nil {
			return fmt.Errorf("decision coordinator: build chip squad: %w", err)
		}
		resultSquad.Picks = built.Picks
	} else if transferDecision.Action == transfer.ActionMake && len(options) > 0 {
		best := options[0]
		appliedTransfer = &best
		resultSquad.Picks, err = applyTransfer(ctx, c.players, c.leagueID, sq.Picks, best)
		if err != nil {
			return fmt.Errorf("decision coordinator: apply transfer: %w", err)
		}
		if err := c.transfers.Execute(ctx, teamID, gameweek, best, transferDecision.Action); err != nil {
			c.logger.WarnContext(ctx, "failed to persist executed transfer record", "error", err)
		}
	}

	// Step 5: re-run formation and captain/vice selection.
	startingXI, bench, formation := ChooseFormation(resultSquad.Picks, predictions)
	captainID, viceCaptainID := ChooseCaptain(startingXI, predictions)
	resultSquad.Gameweek = gameweek
	resultSquad.StartingXI = startingXI
	resultSquad.Bench = bench
	resultSquad.CaptainID = captainID
	resultSquad.ViceCaptainID = viceCaptainID
	resultSquad.ActiveChip = chipUsed
	resultSquad.UpdatedAt = time.Now().UTC()
	_ = formation

	// Step 6: persist the draft, overwriting any existing one for G.
	if err := c.squads.Upsert(ctx, resultSquad); err != nil {
		return fmt.Errorf("decision coordinator: persist draft: %w", err)
	}

	// Step 7: generate the announcement, falling back to a fixed template.
	announcement := c.announce(ctx, gameweek, transferDecision, appliedTransfer, captainID)

	// Step 8: publish team-selected.
	transferOutID, transferInID := "", ""
	if appliedTransfer != nil {
		transferOutID, transferInID = appliedTransfer.PlayerOutID, appliedTransfer.PlayerInID
	}
	evt, err := event.Create(
		event.KindTeamSelected,
		event.NewTeamSelectedPayload(gameweek, teamID, captainID, viceCaptainID, chipUsed, transferOutID, transferInID, announcement),
		event.WithSource(decisionCoordinatorName),
	)
	if err != nil {
		return fmt.Errorf("decision coordinator: build team-selected event: %w", err)
	}
	if _, err := c.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("decision coordinator: publish team-selected: %w", err)
	}

	// Step 9: write decision records.
	c.recordDecisions(ctx, gameweek, transferDecision, appliedTransfer, captainID, viceCaptainID)

	return nil
}

func (c *DecisionCoordinatorService) buildChipSquad(ctx context.Context, kind chip.Kind, gameweek int, current squad.Squad) (BuildResult, error) {
	switch kind {
	case chip.KindWildcard:
		budget := current.Budget
		for _, p := range current.Picks {
			budget += p.Price
		}
		return c.squadBuild.BuildWildcard(ctx, gameweek, transfer.DefaultHorizon, budget)
	case chip.KindFreeHit:
		return c.squadBuild.BuildFreeHit(ctx, gameweek)
	default:
		return BuildResult{Picks: current.Picks}, nil
	}
}

// applyTransfer replaces the outgoing player's pick with the incoming
// player's, looking up the incoming player's team and price.
func applyTransfer(ctx context.Context, players decisionCoordinatorPlayerSource, leagueID string, picks []squad.Pick, opt transfer.Option) ([]squad.Pick, error) {
	incoming, err := players.GetByIDs(ctx, leagueID, []string{opt.PlayerInID})
	if err != nil {
		return nil, fmt.Errorf("look up incoming player: %w", err)
	}
	if len(incoming) == 0 {
		return nil, fmt.Errorf("%w: incoming player %s", ErrNotFound, opt.PlayerInID)
	}
	in := incoming[0]

	out := make([]squad.Pick, 0, len(picks))
	for _, p := range picks {
		if p.PlayerID == opt.PlayerOutID {
			out = append(out, squad.Pick{PlayerID: in.ID, TeamID: in.TeamID, Position: in.Position, Price: in.Price})
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *DecisionCoordinatorService) announce(ctx context.Context, gameweek int, td transfer.Decision, opt *transfer.Option, captainID string) string {
	transferSummary := "No transfers this week."
	if opt != nil {
		transferSummary = fmt.Sprintf("Transfer: %s out, %s in.", opt.PlayerOutID, opt.PlayerInID)
	}

	if c.announcer != nil {
		prompt := fmt.Sprintf(
			"Write a short, factual weekly fantasy football update for gameweek %d. %s Captain is %s. Reasoning: %s",
			gameweek, transferSummary, captainID, td.Reasoning,
		)
		text, err := c.announcer.Generate(ctx, prompt)
		if err == nil && text != "" {
			return text
		}
		c.logger.WarnContext(ctx, "announcement endpoint failed, falling back to template", "error", err)
	}

	return fmt.Sprintf(fallbackAnnouncementTemplate, gameweek, transferSummary, captainID)
}

func (c *DecisionCoordinatorService) recordDecisions(ctx context.Context, gameweek int, td transfer.Decision, opt *transfer.Option, captainID, viceCaptainID string) {
	now := time.Now().UTC()

	team := decision.Record{
		Gameweek:   gameweek,
		Kind:       decision.KindTeamSelection,
		Reasoning:  td.Reasoning,
		ProducedBy: decisionCoordinatorName,
		CreatedAt:  now,
		Data:       map[string]any{"action": string(td.Action)},
	}
	if err := c.decisions.Save(ctx, team); err != nil {
		c.logger.WarnContext(ctx, "failed to save team-selection decision record", "error", err)
	}

	if opt != nil {
		transferRec := decision.Record{
			Gameweek:   gameweek,
			Kind:       decision.KindTransfer,
			Reasoning:  td.Reasoning,
			ProducedBy: decisionCoordinatorName,
			CreatedAt:  now,
			Data: map[string]any{
				"player_out": opt.PlayerOutID,
				"player_in":  opt.PlayerInID,
			},
		}
		if err := c.decisions.Save(ctx, transferRec); err != nil {
			c.logger.WarnContext(ctx, "failed to save transfer decision record", "error", err)
		}
	}

	captainRec := decision.Record{
		Gameweek:   gameweek,
		Kind:       decision.KindCaptainChoice,
		Reasoning:  "highest expected points in the starting eleven",
		ProducedBy: decisionCoordinatorName,
		CreatedAt:  now,
		Data:       map[string]any{"captain": captainID, "vice_captain": viceCaptainID},
	}
	if err := c.decisions.Save(ctx, captainRec); err != nil {
		c.logger.WarnContext(ctx, "failed to save captain-choice decision record", "error", err)
	}
}

func (c *DecisionCoordinatorService) publishNotification(ctx context.Context, message string) {
	evt, err := event.Create(event.KindNotificationError, event.NewNotificationPayload("error", message), event.WithSource(decisionCoordinatorName))
	if err != nil {
		return
	}
	_, _ = c.publisher.Publish(ctx, evt)
}
