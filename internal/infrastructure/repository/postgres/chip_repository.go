package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/internal/domain/chip"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

type chipUsageTableModel struct {
	TeamID   string    `db:"team_id"`
	Kind     string    `db:"kind"`
	Instance int       `db:"instance"`
	Gameweek int       `db:"gameweek"`
	UsedAt   time.Time `db:"used_at"`
}

type chipUsageInsertModel struct {
	TeamID   string    `db:"team_id"`
	Kind     string    `db:"kind"`
	Instance int       `db:"instance"`
	Gameweek int       `db:"gameweek"`
	UsedAt   time.Time `db:"used_at"`
}

// ChipRepository persists chip_usages, one row per spent chip instance,
// so a team's Inventory is simply the set of rows for that team.
type ChipRepository struct {
	db *sqlx.DB
}

func NewChipRepository(db *sqlx.DB) *ChipRepository {
	return &ChipRepository{db: db}
}

var chipUsageSelectColumns = []string{"team_id", "kind", "instance", "gameweek", "used_at"}

func (r *ChipRepository) GetInventory(ctx context.Context, teamID string) (chip.Inventory, error) {
	query, args, err := qb.Select(chipUsageSelectColumns...).From("chip_usages").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("gameweek").
		ToSQL()
	if err != nil {
		return chip.Inventory{}, fmt.Errorf("build get chip inventory query: %w", err)
	}

	var rows []chipUsageTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return chip.Inventory{}, fmt.Errorf("select chip inventory: %w", err)
	}

	inv := chip.Inventory{TeamID: teamID, Used: make([]chip.Usage, 0, len(rows))}
	for _, row := range rows {
		inv.Used = append(inv.Used, chip.Usage{
			TeamID:   row.TeamID,
			Kind:     chip.Kind(row.Kind),
			Instance: row.Instance,
			Gameweek: row.Gameweek,
			UsedAt:   row.UsedAt,
		})
	}
	return inv, nil
}

// SaveInventory appends whichever usages aren't already recorded. Chips
// are only ever spent, never unspent, so a usage row is immutable once
// written.
func (r *ChipRepository) SaveInventory(ctx context.Context, inv chip.Inventory) error {
	for _, u := range inv.Used {
		insertModel := chipUsageInsertModel{
			TeamID:   u.TeamID,
			Kind:     string(u.Kind),
			Instance: u.Instance,
			Gameweek: u.Gameweek,
			UsedAt:   u.UsedAt,
		}
		query, args, err := qb.InsertModel("chip_usages", insertModel, `ON CONFLICT (team_id, kind, instance) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("build insert chip usage query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert chip usage team=%s kind=%s: %w", u.TeamID, u.Kind, err)
		}
	}
	return nil
}

func (r *ChipRepository) ListLeagueUsage(ctx context.Context, leagueID string) ([]chip.Usage, error) {
	query, args, err := qb.Select(
		"chip_usages.team_id", "chip_usages.kind", "chip_usages.instance",
		"chip_usages.gameweek", "chip_usages.used_at",
	).From("chip_usages").
		Where(qb.Expr("chip_usages.team_id IN (SELECT public_id FROM teams WHERE league_public_id = $1 AND deleted_at IS NULL)", leagueID)).
		OrderBy("chip_usages.gameweek").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list league chip usage query: %w", err)
	}

	var rows []chipUsageTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select league chip usage: %w", err)
	}

	out := make([]chip.Usage, 0, len(rows))
	for _, row := range rows {
		out = append(out, chip.Usage{
			TeamID:   row.TeamID,
			Kind:     chip.Kind(row.Kind),
			Instance: row.Instance,
			Gameweek: row.Gameweek,
			UsedAt:   row.UsedAt,
		})
	}
	return out, nil
}
