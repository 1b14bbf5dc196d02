package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/internal/domain/transfer"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

type transferRecordTableModel struct {
	TeamID      string    `db:"team_id"`
	Gameweek    int       `db:"gameweek"`
	PlayerOutID string    `db:"player_out_id"`
	PlayerInID  string    `db:"player_in_id"`
	PointsHit   int       `db:"points_hit"`
	DecidedBy   string    `db:"decided_by"`
	CreatedAt   time.Time `db:"created_at"`
}

type transferRecordInsertModel struct {
	TeamID      string `db:"team_id"`
	Gameweek    int    `db:"gameweek"`
	PlayerOutID string `db:"player_out_id"`
	PlayerInID  string `db:"player_in_id"`
	PointsHit   int    `db:"points_hit"`
	DecidedBy   string `db:"decided_by"`
}

// TransferRepository persists executed transfers (transfer.Record), one
// append-only row per commitment - recommendations evaluated but not
// acted on never reach this table.
type TransferRepository struct {
	db *sqlx.DB
}

func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

var transferRecordSelectColumns = []string{
	"team_id", "gameweek", "player_out_id", "player_in_id",
	"points_hit", "decided_by", "created_at",
}

func (r *TransferRepository) ListByTeam(ctx context.Context, teamID string) ([]transfer.Record, error) {
	query, args, err := qb.Select(transferRecordSelectColumns...).From("transfer_records").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("gameweek").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list transfers by team query: %w", err)
	}

	var rows []transferRecordTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select transfers by team: %w", err)
	}

	out := make([]transfer.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, transfer.Record{
			TeamID:      row.TeamID,
			Gameweek:    row.Gameweek,
			PlayerOutID: row.PlayerOutID,
			PlayerInID:  row.PlayerInID,
			PointsHit:   row.PointsHit,
			DecidedBy:   transfer.Action(row.DecidedBy),
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *TransferRepository) Save(ctx context.Context, rec transfer.Record) error {
	insertModel := transferRecordInsertModel{
		TeamID:      rec.TeamID,
		Gameweek:    rec.Gameweek,
		PlayerOutID: rec.PlayerOutID,
		PlayerInID:  rec.PlayerInID,
		PointsHit:   rec.PointsHit,
		DecidedBy:   string(rec.DecidedBy),
	}
	query, args, err := qb.InsertModel("transfer_records", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert transfer record query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert transfer record team=%s gw=%d: %w", rec.TeamID, rec.Gameweek, err)
	}
	return nil
}
