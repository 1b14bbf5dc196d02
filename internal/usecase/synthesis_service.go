package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// Synthesis tuning constants (§4.9).
const (
	synthesisTopValueCount           = 20
	synthesisTransferTargetsPerPos   = 5
	synthesisTemplateOwnershipMin    = 30.0 // percent: "high-ownership" threshold for template risk
	synthesisDifferentialOwnershipMax = 10.0 // percent: captain differential eligibility ceiling
)

type synthesisPlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type synthesisPredictionSource interface {
	PredictAll(ctx context.Context, gameweek int, excludeUnavailable bool) (map[string]float64, error)
}

type synthesisValueSource interface {
	Latest() (ValueAnalysis, bool)
}

type synthesisFixtureSource interface {
	Latest() (FixtureAnalysis, bool)
}

// SynthesisEngine joins the analyzer outputs with the prediction service
// to produce a structured recommendation record for a target gameweek
// (§4.9). Unlike the analyzers it is a synchronous facade, not an agent:
// it is called directly by whatever needs a point-in-time rankings view
// - today that is SynthesisReporterService, which turns the result into
// an operator-facing notification once a gameweek's team has been
// selected.
type SynthesisEngine struct {
	players     synthesisPlayerSource
	predictions synthesisPredictionSource
	value       synthesisValueSource
	fixtures    synthesisFixtureSource
	leagueID    string
	logger      *logging.Logger
}

func NewSynthesisEngine(
	players synthesisPlayerSource,
	predictions synthesisPredictionSource,
	value synthesisValueSource,
	fixtures synthesisFixtureSource,
	leagueID string,
	logger *logging.Logger,
) *SynthesisEngine {
	if logger == nil {
		logger = logging.Default()
	}
	return &SynthesisEngine{
		players:     players,
		predictions: predictions,
		value:       value,
		fixtures:    fixtures,
		leagueID:    leagueID,
		logger:      logger.With("component", "SynthesisEngine"),
	}
}

// Synthesize joins the value rankings, fixture summary and point
// predictions into a decision.Rankings record for gameweek. competitive
// supplies the manager's standing; chipRec, when non-nil and recommends
// deferring transfers, suppresses per-position transfer targets since a
// wildcard or free hit supersedes discrete transfer picks that week.
func (s *SynthesisEngine) Synthesize(ctx context.Context, gameweek int, competitive decision.CompetitiveContext, chipRec *ChipRecommendation) (decision.Rankings, error) {
	strategy := decision.ClassifyStrategy(competitive)

	players, err := s.players.ListByLeague(ctx, s.leagueID)
	if err != nil {
		return decision.Rankings{}, fmt.Errorf("synthesis engine: list players: %w", err)
	}
	byID := make(map[string]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	predictions, err := s.predictions.PredictAll(ctx, gameweek, true)
	if err != nil {
		return decision.Rankings{}, fmt.Errorf("synthesis engine: predict all: %w", err)
	}

	valueAnalysis, haveValue := s.value.Latest()
	if !haveValue {
		s.logger.WarnContext(ctx, "no cached value analysis, synthesis proceeding on raw predictions only", "gameweek", gameweek)
	}
	_, haveFixture := s.fixtures.Latest()
	if !haveFixture {
		s.logger.WarnContext(ctx, "no cached fixture analysis available", "gameweek", gameweek)
	}

	topValue := s.topValueRanked(valueAnalysis, byID, predictions)
	captain := s.pickCaptain(strategy, byID, predictions)
	templateRisks := s.templateRisks(players)
	transferTargets := map[string][]decision.PlayerPrediction{}
	if chipRec == nil || !chipRec.DeferTransfers {
		transferTargets = s.transferTargets(valueAnalysis, byID, predictions)
	}

	return decision.Rankings{
		Gameweek:        gameweek,
		Strategy:        strategy,
		TopValue:        topValue,
		Captain:         captain,
		TemplateRisks:   templateRisks,
		TransferTargets: transferTargets,
	}, nil
}

func (s *SynthesisEngine) topValueRanked(analysis ValueAnalysis, byID map[string]player.Player, predictions map[string]float64) []decision.PlayerPrediction {
	type scored struct {
		playerID string
		score    float64
	}
	flat := make([]scored, 0)
	for _, rankings := range analysis.ByPosition {
		for _, r := range rankings {
			flat = append(flat, scored{playerID: r.PlayerID, score: r.CompositeScore})
		}
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].score > flat[j].score })

	limit := synthesisTopValueCount
	if len(flat) < limit {
		limit = len(flat)
	}

	out := make([]decision.PlayerPrediction, 0, limit)
	for _, item := range flat[:limit] {
		out = append(out, toPlayerPrediction(item.playerID, byID, predictions))
	}
	return out
}

func (s *SynthesisEngine) pickCaptain(strategy decision.Strategy, byID map[string]player.Player, predictions map[string]float64) decision.CaptainPick {
	var primary, differential string
	var primaryPoints, differentialPoints float64

	for id, points := range predictions {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if primary == "" || points > primaryPoints {
			primary, primaryPoints = id, points
		}
		if strategy.WantsDifferentialCaptain() && p.OwnershipPercent < synthesisDifferentialOwnershipMax {
			if differential == "" || points > differentialPoints {
				differential, differentialPoints = id, points
			}
		}
	}

	return decision.CaptainPick{PrimaryPlayerID: primary, DifferentialPlayerID: differential}
}

// templateRisks lists high-ownership players who are not flagged by any
// bad-news status: their risk is widespread ownership, not a known issue
// (§4.9 "high-ownership players not on any predicted bad-news list").
func (s *SynthesisEngine) templateRisks(players []player.Player) []string {
	out := make([]string, 0)
	for _, p := range players {
		if p.OwnershipPercent >= synthesisTemplateOwnershipMin && p.IsAvailable() {
			out = append(out, p.ID)
		}
	}
	sort.Strings(out)
	return out
}

func (s *SynthesisEngine) transferTargets(analysis ValueAnalysis, byID map[string]player.Player, predictions map[string]float64) map[string][]decision.PlayerPrediction {
	out := make(map[string][]decision.PlayerPrediction, len(analysis.ByPosition))
	for pos, rankings := range analysis.ByPosition {
		limit := synthesisTransferTargetsPerPos
		if len(rankings) < limit {
			limit = len(rankings)
		}
		targets := make([]decision.PlayerPrediction, 0, limit)
		for _, r := range rankings[:limit] {
			targets = append(targets, toPlayerPrediction(r.PlayerID, byID, predictions))
		}
		out[string(pos)] = targets
	}
	return out
}

func toPlayerPrediction(playerID string, byID map[string]player.Player, predictions map[string]float64) decision.PlayerPrediction {
	p := byID[playerID]
	return decision.PlayerPrediction{
		PlayerID:         playerID,
		Position:         string(p.Position),
		TeamID:           p.TeamID,
		ExpectedPoints:   predictions[playerID],
		OwnershipPercent: p.OwnershipPercent,
	}
}
