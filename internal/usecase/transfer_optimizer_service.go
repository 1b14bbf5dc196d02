package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
	"github.com/riskibarqy/fantasy-league/internal/domain/transfer"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// transferOptimizerCandidatePoolSize bounds how many same-position
// replacement candidates are evaluated per outgoing pick, so the
// optimizer's cost stays linear in squad size rather than combinatorial
// across the whole player pool.
const transferOptimizerCandidatePoolSize = 10

// transferOptimizerWeakHoldersPerPosition is how many of the squad's
// weakest-value holders per position are considered for replacement
// (§4.10 step 1: "the current squad's weakest two holders").
const transferOptimizerWeakHoldersPerPosition = 2

// transferOptimizerTopKPerPosition caps how many ranked options survive
// per position before the overall cross-position sort (§4.10 step 4).
const transferOptimizerTopKPerPosition = 3

// transferOptimizerUpgradeSlack is the small additional spend a
// replacement may exceed the freed budget by, in tenths of a currency
// unit (§4.10 step 2: "price ≤ holder.price + bank + small upgrade
// slack (e.g. 0.1 currency units)").
const transferOptimizerUpgradeSlack = 1

// transferOptimizerMaxOptions is how many ranked options Optimize
// returns alongside its decision.
const transferOptimizerMaxOptions = 10

type transferOptimizerSquadSource interface {
	GetLatestByTeam(ctx context.Context, teamID string) (squad.Squad, bool, error)
}

type transferOptimizerPlayerSource interface {
	ListByLeague(ctx context.Context, leagueID string) ([]player.Player, error)
}

type transferOptimizerPredictionSource interface {
	PredictPoints(ctx context.Context, playerIDs []string, gameweek int, applyAdjustments bool) (map[string]float64, error)
}

type transferOptimizerPriceSource interface {
	PredictPriceChanges(ctx context.Context, playerIDs []string) (map[string]prediction.PriceChangePrediction, error)
}

type transferOptimizerRepository interface {
	Save(ctx context.Context, r transfer.Record) error
}

// TransferOptimizerService evaluates the current squad against the rest
// of the player pool and produces a ranked set of transfer options plus
// the roll/make/hit/chip decision §4.10 describes, reusing the pure
// decision hierarchy already implemented in internal/domain/transfer.
type TransferOptimizerService struct {
	squads      transferOptimizerSquadSource
	players     transferOptimizerPlayerSource
	predictions transferOptimizerPredictionSource
	prices      transferOptimizerPriceSource
	repo        transferOptimizerRepository
	leagueID    string
	horizon     int
	logger      *logging.Logger
}

func NewTransferOptimizerService(
	squads transferOptimizerSquadSource,
	players transferOptimizerPlayerSource,
	predictions transferOptimizerPredictionSource,
	prices transferOptimizerPriceSource,
	repo transferOptimizerRepository,
	leagueID string,
	logger *logging.Logger,
) *TransferOptimizerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TransferOptimizerService{
		squads:      squads,
		players:     players,
		predictions: predictions,
		prices:      prices,
		repo:        repo,
		leagueID:    leagueID,
		horizon:     transfer.DefaultHorizon,
		logger:      logger.With("component", "TransferOptimizerService"),
	}
}

// Optimize evaluates teamID's current squad against the candidate pool
// and returns the ranked transfer options plus the roll/make/hit/chip
// decision for the best of them. chipAlt, when non-nil, lets a caller
// (the decision coordinator, informed by the chip optimizer) fold a
// wildcard/free-hit comparison into the same decision call.
func (s *TransferOptimizerService) Optimize(ctx context.Context, teamID string, gameweek int, chipAlt *transfer.ChipAlternative) (transfer.Decision, []transfer.Option, error) {
	sq, ok, err := s.squads.GetLatestByTeam(ctx, teamID)
	if err != nil {
		return transfer.Decision{}, nil, fmt.Errorf("transfer optimizer: get squad: %w", err)
	}
	if !ok {
		return transfer.Decision{}, nil, fmt.Errorf("%w: no squad found for team %s", ErrNotFound, teamID)
	}

	pool, err := s.players.ListByLeague(ctx, s.leagueID)
	if err != nil {
		return transfer.Decision{}, nil, fmt.Errorf("transfer optimizer: list players: %w", err)
	}

	inSquad := make(map[string]bool, len(sq.Picks))
	for _, pick := range sq.Picks {
		inSquad[pick.PlayerID] = true
	}

	squadIDs := make([]string, 0, len(sq.Picks))
	for _, pick := range sq.Picks {
		squadIDs = append(squadIDs, pick.PlayerID)
	}
	squadPredictionsByOffset := s.predictByOffset(ctx, squadIDs, gameweek)
	weakHolders := s.weakestHolders(sq, squadPredictionsByOffset)

	candidatesByPos := s.candidatePool(pool, inSquad)
	urgency := s.priceUrgencyByPlayer(ctx, candidatesByPos)

	options := s.buildOptions(ctx, gameweek, weakHolders, sq.Budget, candidatesByPos, urgency)
	ranked := rankTopKPerPosition(options, transferOptimizerTopKPerPosition)
	if len(ranked) > transferOptimizerMaxOptions {
		ranked = ranked[:transferOptimizerMaxOptions]
	}

	var best *transfer.Option
	if len(ranked) > 0 {
		best = &ranked[0]
	}

	decision := transfer.Decide(best, sq.FreeTransfers, chipAlt)
	return decision, ranked, nil
}

// Execute persists a chosen transfer as a Record, for a caller that has
// decided (via Optimize, possibly overridden by a human) to actually
// make the swap.
func (s *TransferOptimizerService) Execute(ctx context.Context, teamID string, gameweek int, opt transfer.Option, decidedBy transfer.Action) error {
	pointsHit := 0
	if decidedBy == transfer.ActionMake {
		freeTransfers := 0
		if sq, ok, err := s.squads.GetLatestByTeam(ctx, teamID); err == nil && ok {
			freeTransfers = sq.FreeTransfers
		}
		if freeTransfers < 1 {
			pointsHit = transfer.HitCostPoints
		}
	}
	record := transfer.Record{
		TeamID:      teamID,
		Gameweek:    gameweek,
		PlayerOutID: opt.PlayerOutID,
		PlayerInID:  opt.PlayerInID,
		PointsHit:   pointsHit,
		DecidedBy:   decidedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("transfer optimizer: save transfer record: %w", err)
	}
	return nil
}

// candidatePool groups non-squad players by position, sorted by total
// points and truncated to transferOptimizerCandidatePoolSize, bounding
// how many replacement options each outgoing pick is compared against.
func (s *TransferOptimizerService) candidatePool(pool []player.Player, inSquad map[string]bool) map[player.Position][]player.Player {
	byPos := make(map[player.Position][]player.Player)
	for _, p := range pool {
		if inSquad[p.ID] || !p.IsAvailable() {
			continue
		}
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for pos, candidates := range byPos {
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].TotalPoints > candidates[j].TotalPoints })
		if len(candidates) > transferOptimizerCandidatePoolSize {
			candidates = candidates[:transferOptimizerCandidatePoolSize]
		}
		byPos[pos] = candidates
	}
	return byPos
}

func (s *TransferOptimizerService) priceUrgencyByPlayer(ctx context.Context, candidatesByPos map[player.Position][]player.Player) map[string]string {
	ids := make([]string, 0)
	for _, candidates := range candidatesByPos {
		for _, p := range candidates {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return map[string]string{}
	}

	changes, err := s.prices.PredictPriceChanges(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "predict price changes failed, urgency left unset", "error", err)
		return map[string]string{}
	}

	out := make(map[string]string, len(changes))
	for id, change := range changes {
		out[id] = priceChangeUrgency(change)
	}
	return out
}

func priceChangeUrgency(change prediction.PriceChangePrediction) string {
	switch {
	case change.Label == prediction.PriceRise && change.Confidence >= 0.7:
		return "HIGH"
	case change.Label == prediction.PriceRise:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// predictByOffset predicts ids for each of the horizon gameweeks
// starting at gameweek, batching one PredictPoints call per offset
// across every requested id rather than one call per player.
func (s *TransferOptimizerService) predictByOffset(ctx context.Context, ids []string, gameweek int) []map[string]float64 {
	out := make([]map[string]float64, s.horizon)
	for offset := 0; offset < s.horizon; offset++ {
		preds, err := s.predictions.PredictPoints(ctx, ids, gameweek+offset, true)
		if err != nil {
			s.logger.WarnContext(ctx, "predict points failed for gameweek offset, skipping", "offset", offset, "error", err)
			preds = map[string]float64{}
		}
		out[offset] = preds
	}
	return out
}

// weakestHolders picks, per position, the transferOptimizerWeakHoldersPerPosition
// picks with the lowest value score (average expected points over the
// horizon divided by price), the only holders §4.10 step 1 has the
// optimizer consider for replacement.
func (s *TransferOptimizerService) weakestHolders(sq squad.Squad, predsByOffset []map[string]float64) []squad.Pick {
	byPos := make(map[player.Position][]squad.Pick)
	for _, pick := range sq.Picks {
		byPos[pick.Position] = append(byPos[pick.Position], pick)
	}

	valueScore := func(pick squad.Pick) float64 {
		if pick.Price <= 0 {
			return 0
		}
		var sum float64
		for _, preds := range predsByOffset {
			sum += preds[pick.PlayerID]
		}
		avg := sum / float64(len(predsByOffset))
		return avg / (float64(pick.Price) / 10.0)
	}

	var weak []squad.Pick
	for _, picks := range byPos {
		sort.SliceStable(picks, func(i, j int) bool { return valueScore(picks[i]) < valueScore(picks[j]) })
		limit := transferOptimizerWeakHoldersPerPosition
		if len(picks) < limit {
			limit = len(picks)
		}
		weak = append(weak, picks[:limit]...)
	}
	return weak
}

func (s *TransferOptimizerService) buildOptions(ctx context.Context, gameweek int, weakHolders []squad.Pick, bank int64, candidatesByPos map[player.Position][]player.Player, urgency map[string]string) []transfer.Option {
	relevant := make(map[string]bool)
	for _, pick := range weakHolders {
		relevant[pick.PlayerID] = true
	}
	for _, pick := range weakHolders {
		for _, p := range candidatesByPos[pick.Position] {
			relevant[p.ID] = true
		}
	}
	ids := make([]string, 0, len(relevant))
	for id := range relevant {
		ids = append(ids, id)
	}

	predictionsByOffset := s.predictByOffset(ctx, ids, gameweek)

	var options []transfer.Option
	for _, pick := range weakHolders {
		budget := pick.Price + bank + transferOptimizerUpgradeSlack
		for _, candidate := range candidatesByPos[pick.Position] {
			if candidate.Price > budget {
				continue
			}

			gwPreds := make([]transfer.GWPrediction, s.horizon)
			for offset := 0; offset < s.horizon; offset++ {
				gwPreds[offset] = transfer.GWPrediction{
					Gameweek:    gameweek + offset,
					ExpectedOut: predictionsByOffset[offset][pick.PlayerID],
					ExpectedIn:  predictionsByOffset[offset][candidate.ID],
				}
			}

			options = append(options, transfer.Option{
				Position:           pick.Position,
				PlayerOutID:        pick.PlayerID,
				PlayerOutPrice:     pick.Price,
				PlayerInID:         candidate.ID,
				PlayerInPrice:      candidate.Price,
				Predictions:        gwPreds,
				PriceChangeUrgency: urgency[candidate.ID],
			})
		}
	}
	return options
}

// rankTopKPerPosition ranks options within each position, keeps the top
// k per position, then sorts the combined survivors across positions
// (§4.10 step 4: "collect top K options per position and sort all
// together by total gain").
func rankTopKPerPosition(options []transfer.Option, k int) []transfer.Option {
	byPos := make(map[player.Position][]transfer.Option)
	for _, opt := range options {
		byPos[opt.Position] = append(byPos[opt.Position], opt)
	}

	var combined []transfer.Option
	for _, opts := range byPos {
		ranked := transfer.RankOptions(opts)
		if len(ranked) > k {
			ranked = ranked[:k]
		}
		combined = append(combined, ranked...)
	}
	return transfer.RankOptions(combined)
}
