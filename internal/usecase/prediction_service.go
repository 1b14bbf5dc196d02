package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// PositionModel is the opaque features→score function the prediction
// service invokes per position (§4.8: "the service accepts opaque
// functions ... it does not train").
type PositionModel func(features map[string]float64) float64

// PriceClassifier is the separate opaque classifier PredictPriceChanges
// invokes (§4.8 "uses a separate classifier").
type PriceClassifier func(features map[string]float64) (label prediction.PriceChangeLabel, confidence float64)

type predictionPlayerSource interface {
	GetByIDs(ctx context.Context, leagueID string, playerIDs []string) ([]player.Player, error)
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type predictionStatsSource interface {
	GetSeasonStatsByLeagueAndPlayer(ctx context.Context, leagueID, playerID string) (playerstats.SeasonStats, error)
}

type predictionRepository interface {
	Save(ctx context.Context, r prediction.Record) error
	GetBiasCorrections(ctx context.Context) ([]prediction.BiasCorrection, error)
	SavePriceChangePrediction(ctx context.Context, p prediction.PriceChangePrediction) error
}

// hardUnavailableStatuses cannot meaningfully turn out this gameweek
// regardless of chance-of-playing: a news adjustment floors their
// prediction to zero.
var hardUnavailableStatuses = map[player.AvailabilityStatus]bool{
	player.StatusSuspended:  true,
	player.StatusUnavailable: true,
	player.StatusOnLoan:     true,
}

// PredictionService is the consumer-facing synchronous facade over the
// position models (§4.8). It is not an agent: every operation is a
// direct request/response call.
type PredictionService struct {
	players         predictionPlayerSource
	stats           predictionStatsSource
	repo            predictionRepository
	models          map[player.Position]PositionModel
	priceClassifier PriceClassifier
	leagueID        string
	modelVersion    string
	logger          *logging.Logger
}

func NewPredictionService(
	players predictionPlayerSource,
	stats predictionStatsSource,
	repo predictionRepository,
	models map[player.Position]PositionModel,
	priceClassifier PriceClassifier,
	leagueID, modelVersion string,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	if models == nil {
		models = map[player.Position]PositionModel{}
	}
	return &PredictionService{
		players:         players,
		stats:           stats,
		repo:            repo,
		models:          models,
		priceClassifier: priceClassifier,
		leagueID:        leagueID,
		modelVersion:    modelVersion,
		logger:          logger.With("component", "PredictionService"),
	}
}

// PredictPoints maps each requested player id to an expected-points
// figure for gameweek. Unknown ids are simply absent from the players
// fetched and therefore map to 0, per §4.8.
func (s *PredictionService) PredictPoints(ctx context.Context, playerIDs []string, gameweek int, applyAdjustments bool) (map[string]float64, error) {
	if len(playerIDs) == 0 {
		return map[string]float64{}, nil
	}

	players, err := s.players.GetByIDs(ctx, s.leagueID, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("prediction service: get players by id: %w", err)
	}

	corrections := s.loadCorrections(ctx, applyAdjustments)

	out := make(map[string]float64, len(playerIDs))
	for _, id := range playerIDs {
		out[id] = 0
	}
	for _, p := range players {
		out[p.ID] = s.predictOne(ctx, p, gameweek, applyAdjustments, corrections)
	}
	return out, nil
}

// PredictAll predicts every player in the league, optionally excluding
// those currently unavailable.
func (s *PredictionService) PredictAll(ctx context.Context, gameweek int, excludeUnavailable bool) (map[string]float64, error) {
	players, err := s.players.ListByLeague(ctx, s.leagueID)
	if err != nil {
		return nil, fmt.Errorf("prediction service: list players: %w", err)
	}

	corrections := s.loadCorrections(ctx, true)

	out := make(map[string]float64, len(players))
	for _, p := range players {
		if excludeUnavailable && !p.IsAvailable() {
			continue
		}
		out[p.ID] = s.predictOne(ctx, p, gameweek, true, corrections)
	}
	return out, nil
}

// PredictPriceChanges classifies each requested player's likely price
// movement using the wired PriceClassifier, falling back to a
// transfer-momentum heuristic when none was configured.
func (s *PredictionService) PredictPriceChanges(ctx context.Context, playerIDs []string) (map[string]prediction.PriceChangePrediction, error) {
	if len(playerIDs) == 0 {
		return map[string]prediction.PriceChangePrediction{}, nil
	}

	players, err := s.players.GetByIDs(ctx, s.leagueID, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("prediction service: get players by id: %w", err)
	}

	out := make(map[string]prediction.PriceChangePrediction, len(players))
	for _, p := range players {
		features := map[string]float64{
			"transfers_24h":     float64(p.Transfers24h),
			"ownership_percent": p.OwnershipPercent,
		}

		var label prediction.PriceChangeLabel
		var confidence float64
		if s.priceClassifier != nil {
			label, confidence = s.priceClassifier(features)
		} else {
			label, confidence = fallbackPriceClassifier(features)
		}

		result := prediction.PriceChangePrediction{PlayerID: p.ID, Label: label, Confidence: confidence}
		out[p.ID] = result

		if err := s.repo.SavePriceChangePrediction(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "save price change prediction failed", "player", p.ID, "error", err)
		}
	}
	return out, nil
}

// GetModelInfo reports which position models are currently loaded.
func (s *PredictionService) GetModelInfo() []prediction.ModelInfo {
	positions := []player.Position{player.PositionGoalkeeper, player.PositionDefender, player.PositionMidfielder, player.PositionForward}
	out := make([]prediction.ModelInfo, 0, len(positions))
	for _, pos := range positions {
		_, loaded := s.models[pos]
		out = append(out, prediction.ModelInfo{
			Position:       string(pos),
			Version:        s.modelVersion,
			FeatureColumns: predictionFeatureColumns,
			Loaded:         loaded,
		})
	}
	return out
}

// ExplainPrediction returns the raw prediction, the adjustment factor
// applied, the final prediction and the feature vector for one player.
func (s *PredictionService) ExplainPrediction(ctx context.Context, playerID string, gameweek int) (prediction.Explanation, error) {
	players, err := s.players.GetByIDs(ctx, s.leagueID, []string{playerID})
	if err != nil {
		return prediction.Explanation{}, fmt.Errorf("prediction service: get player by id: %w", err)
	}
	if len(players) == 0 {
		return prediction.Explanation{}, fmt.Errorf("%w: player %s not found", ErrNotFound, playerID)
	}
	p := players[0]

	features := s.assembleFeatures(ctx, p)
	raw := s.invokeModel(p.Position, features)

	corrections := s.loadCorrections(ctx, true)
	adjusted := prediction.ApplyCorrection(raw, matchingCorrections(corrections, p)...)
	factor := newsAdjustmentFactorFor(p)
	final := adjusted * factor

	adjustmentFactor := 1.0
	if adjusted != 0 {
		adjustmentFactor = final / adjusted
	} else if factor != 1.0 {
		adjustmentFactor = factor
	}

	return prediction.Explanation{
		PlayerID:         p.ID,
		Gameweek:         gameweek,
		RawPrediction:    raw,
		AdjustmentFactor: adjustmentFactor,
		FinalPrediction:  final,
		Features:         features,
	}, nil
}

func (s *PredictionService) predictOne(ctx context.Context, p player.Player, gameweek int, applyAdjustments bool, corrections []prediction.BiasCorrection) float64 {
	features := s.assembleFeatures(ctx, p)
	raw := s.invokeModel(p.Position, features)

	final := raw
	if applyAdjustments {
		final = prediction.ApplyCorrection(raw, matchingCorrections(corrections, p)...)
		final *= newsAdjustmentFactorFor(p)
	}

	record := prediction.Record{
		PlayerID:        p.ID,
		Gameweek:        gameweek,
		PredictedPoints: final,
		Confidence:      1.0,
		ModelVersion:    s.modelVersion,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "save prediction record failed", "player", p.ID, "gameweek", gameweek, "error", err)
	}

	return final
}

func (s *PredictionService) invokeModel(pos player.Position, features map[string]float64) float64 {
	if model, ok := s.models[pos]; ok && model != nil {
		return model(features)
	}
	return prediction.Fallback(features["form"], features["points_per_game"])
}

// predictionFeatureColumns names the feature vector assembleFeatures
// builds, exposed via GetModelInfo.
var predictionFeatureColumns = []string{
	"form", "points_per_game", "ownership_percent",
	"expected_goals_per_90", "expected_assists_per_90", "minutes_played",
}

func (s *PredictionService) assembleFeatures(ctx context.Context, p player.Player) map[string]float64 {
	pointsPerGame := 0.0
	if season, err := s.stats.GetSeasonStatsByLeagueAndPlayer(ctx, s.leagueID, p.ID); err != nil {
		s.logger.WarnContext(ctx, "get season stats failed", "player", p.ID, "error", err)
	} else if season.Appearances > 0 {
		pointsPerGame = float64(season.TotalPoints) / float64(season.Appearances)
	}

	return map[string]float64{
		"form":                     p.Form,
		"points_per_game":          pointsPerGame,
		"ownership_percent":        p.OwnershipPercent,
		"expected_goals_per_90":    p.ExpectedGoalsPer90,
		"expected_assists_per_90":  p.ExpectedAssistsPer90,
		"minutes_played":           float64(p.MinutesPlayed),
	}
}

func (s *PredictionService) loadCorrections(ctx context.Context, needed bool) []prediction.BiasCorrection {
	if !needed {
		return nil
	}
	corrections, err := s.repo.GetBiasCorrections(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "get bias corrections failed", "error", err)
		return nil
	}
	return corrections
}

func matchingCorrections(corrections []prediction.BiasCorrection, p player.Player) []prediction.BiasCorrection {
	bracket := prediction.Bracket(p.Price)
	out := make([]prediction.BiasCorrection, 0, 1)
	for _, c := range corrections {
		if c.Position == string(p.Position) && c.Bracket == bracket {
			out = append(out, c)
		}
	}
	return out
}

func newsAdjustmentFactorFor(p player.Player) float64 {
	return prediction.NewsAdjustmentFactor(p.ChanceOfPlaying, !hardUnavailableStatuses[p.Status])
}

// fallbackPriceClassifier labels a player from 24h transfer momentum when
// no PriceClassifier was configured: the "separate classifier" §4.8
// calls for, implemented as a small heuristic rather than left unwired.
func fallbackPriceClassifier(features map[string]float64) (prediction.PriceChangeLabel, float64) {
	transfers := features["transfers_24h"]
	switch {
	case transfers >= 50000:
		return prediction.PriceRise, confidenceFromMagnitude(transfers, 50000, 300000)
	case transfers <= -50000:
		return prediction.PriceFall, confidenceFromMagnitude(-transfers, 50000, 300000)
	default:
		return prediction.PriceHold, 1.0 - confidenceFromMagnitude(abs(transfers), 0, 50000)
	}
}

func confidenceFromMagnitude(magnitude, floor, ceiling float64) float64 {
	if ceiling <= floor {
		return 1.0
	}
	ratio := (magnitude - floor) / (ceiling - floor)
	return clamp01(0.5 + 0.5*ratio)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
