package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/riskibarqy/fantasy-league/external/fpl"
	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// rivalLeagueFetcher is the subset of fpl.Client this service needs.
type rivalLeagueFetcher interface {
	FetchLeagueStandings(ctx context.Context, leagueID int64) (fpl.LeagueStandings, error)
}

// RivalStandingsService reads a classic mini-league's table and turns it
// into the synthesis engine's decision.CompetitiveContext (§4.9's
// competitive-standing input, SPEC_FULL's rival-league tracking). teamID
// identifies the managed entry within the league; rivalLeagueID is the
// FPL classic league to read.
type RivalStandingsService struct {
	provider      rivalLeagueFetcher
	rivalLeagueID int64
	logger        *logging.Logger
}

func NewRivalStandingsService(provider rivalLeagueFetcher, rivalLeagueID int64, logger *logging.Logger) *RivalStandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RivalStandingsService{
		provider:      provider,
		rivalLeagueID: rivalLeagueID,
		logger:        logger.With("component", "RivalStandingsService"),
	}
}

// CompetitiveContext returns the manager's current rank and point gap to
// the league leader. rivalLeagueID == 0 disables the lookup and returns
// a neutral context (rank 0, gap 0), which decision.ClassifyStrategy
// reads as "defensive".
func (r *RivalStandingsService) CompetitiveContext(ctx context.Context, teamID string) (decision.CompetitiveContext, error) {
	if r.rivalLeagueID == 0 {
		return decision.CompetitiveContext{}, nil
	}
	entryID, err := strconv.ParseInt(teamID, 10, 64)
	if err != nil {
		return decision.CompetitiveContext{}, fmt.Errorf("rival standings: team id %q is not a numeric FPL entry: %w", teamID, err)
	}

	table, err := r.provider.FetchLeagueStandings(ctx, r.rivalLeagueID)
	if err != nil {
		return decision.CompetitiveContext{}, fmt.Errorf("rival standings: fetch league %d: %w", r.rivalLeagueID, err)
	}
	results := table.Standings.Results
	if len(results) == 0 {
		return decision.CompetitiveContext{}, fmt.Errorf("rival standings: league %d returned no entries", r.rivalLeagueID)
	}

	leader := results[0]
	for _, row := range results {
		if row.Rank < leader.Rank {
			leader = row
		}
	}

	for _, row := range results {
		if row.Entry != entryID {
			continue
		}
		return decision.CompetitiveContext{
			CurrentRank: row.Rank,
			GapToLeader: float64(row.Total - leader.Total),
		}, nil
	}

	r.logger.WarnContext(ctx, "managed entry not found in league standings", "league_id", r.rivalLeagueID, "entry_id", entryID)
	return decision.CompetitiveContext{}, fmt.Errorf("rival standings: entry %d not found in league %d", entryID, r.rivalLeagueID)
}
