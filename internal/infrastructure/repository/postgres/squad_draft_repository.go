package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

// SquadDraftRepository is the coordinator's single-writer draft store
// (§5 Shared-resource policy: "the coordinator is the only writer of
// draft-team[G]"), keyed by team and gameweek so past drafts stay
// queryable.
type SquadDraftRepository struct {
	db *sqlx.DB
}

func NewSquadDraftRepository(db *sqlx.DB) *SquadDraftRepository {
	return &SquadDraftRepository{db: db}
}

var squadDraftSelectColumns = []string{
	"team_id", "gameweek", "picks", "starting_xi", "bench",
	"captain_id", "vice_captain_id", "budget", "free_transfers",
	"active_chip", "created_at", "updated_at",
}

func (r *SquadDraftRepository) GetByTeamAndGameweek(ctx context.Context, teamID string, gameweek int) (squad.Squad, bool, error) {
	query, args, err := qb.Select(squadDraftSelectColumns...).From("squad_drafts").
		Where(qb.Eq("team_id", teamID), qb.Eq("gameweek", gameweek)).
		ToSQL()
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("build get squad draft query: %w", err)
	}

	var row squadDraftTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return squad.Squad{}, false, nil
		}
		return squad.Squad{}, false, fmt.Errorf("get squad draft: %w", err)
	}

	out, err := squadFromDraftRow(row)
	if err != nil {
		return squad.Squad{}, false, err
	}
	return out, true, nil
}

func (r *SquadDraftRepository) GetLatestByTeam(ctx context.Context, teamID string) (squad.Squad, bool, error) {
	query, args, err := qb.Select(squadDraftSelectColumns...).From("squad_drafts").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("gameweek DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("build get latest squad draft query: %w", err)
	}

	var row squadDraftTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return squad.Squad{}, false, nil
		}
		return squad.Squad{}, false, fmt.Errorf("get latest squad draft: %w", err)
	}

	out, err := squadFromDraftRow(row)
	if err != nil {
		return squad.Squad{}, false, err
	}
	return out, true, nil
}

func (r *SquadDraftRepository) Upsert(ctx context.Context, s squad.Squad) error {
	picksJSON, err := sonic.Marshal(s.Picks)
	if err != nil {
		return fmt.Errorf("encode squad picks: %w", err)
	}

	insertModel := squadDraftInsertModel{
		TeamID:        s.TeamID,
		Gameweek:      s.Gameweek,
		PicksJSON:     string(picksJSON),
		StartingXI:    pq.StringArray(s.StartingXI),
		Bench:         pq.StringArray(s.Bench),
		CaptainID:     s.CaptainID,
		ViceCaptainID: s.ViceCaptainID,
		Budget:        s.Budget,
		FreeTransfers: s.FreeTransfers,
		ActiveChip:    s.ActiveChip,
	}

	query, args, err := qb.InsertModel("squad_drafts", insertModel, `ON CONFLICT (team_id, gameweek)
DO UPDATE SET
    picks = EXCLUDED.picks,
    starting_xi = EXCLUDED.starting_xi,
    bench = EXCLUDED.bench,
    captain_id = EXCLUDED.captain_id,
    vice_captain_id = EXCLUDED.vice_captain_id,
    budget = EXCLUDED.budget,
    free_transfers = EXCLUDED.free_transfers,
    active_chip = EXCLUDED.active_chip,
    updated_at = now()`)
	if err != nil {
		return fmt.Errorf("build upsert squad draft query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert squad draft team=%s gw=%d: %w", s.TeamID, s.Gameweek, err)
	}
	return nil
}

func squadFromDraftRow(row squadDraftTableModel) (squad.Squad, error) {
	var picks []squad.Pick
	if err := sonic.Unmarshal([]byte(row.PicksJSON), &picks); err != nil {
		return squad.Squad{}, fmt.Errorf("decode squad picks: %w", err)
	}

	return squad.Squad{
		TeamID:        row.TeamID,
		Gameweek:      row.Gameweek,
		Picks:         picks,
		StartingXI:    append([]string(nil), row.StartingXI...),
		Bench:         append([]string(nil), row.Bench...),
		CaptainID:     row.CaptainID,
		ViceCaptainID: row.ViceCaptainID,
		Budget:        row.Budget,
		FreeTransfers: row.FreeTransfers,
		ActiveChip:    row.ActiveChip,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
