package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/internal/domain/gameweek"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

type gameweekTableModel struct {
	PublicID    string    `db:"public_id"`
	Number      int       `db:"number"`
	DeadlineAt  time.Time `db:"deadline_at"`
	IsCurrent   bool      `db:"is_current"`
	IsNext      bool      `db:"is_next"`
	Finished    bool      `db:"finished"`
	DataChecked bool      `db:"data_checked"`
}

type gameweekInsertModel struct {
	PublicID    string    `db:"public_id"`
	Number      int       `db:"number"`
	DeadlineAt  time.Time `db:"deadline_at"`
	IsCurrent   bool      `db:"is_current"`
	IsNext      bool      `db:"is_next"`
	Finished    bool      `db:"finished"`
	DataChecked bool      `db:"data_checked"`
}

// GameweekRepository is the sole writer of gameweeks (§5 Shared-resource
// policy): the data gateway's sync job upserts one row per FPL gameweek
// as the upstream reports deadlines and completion status.
type GameweekRepository struct {
	db *sqlx.DB
}

func NewGameweekRepository(db *sqlx.DB) *GameweekRepository {
	return &GameweekRepository{db: db}
}

var gameweekSelectColumns = []string{
	"public_id", "number", "deadline_at", "is_current", "is_next", "finished", "data_checked",
}

func (r *GameweekRepository) GetCurrent(ctx context.Context) (gameweek.Gameweek, bool, error) {
	query, args, err := qb.Select(gameweekSelectColumns...).From("gameweeks").
		Where(qb.Eq("is_current", true)).
		Limit(1).
		ToSQL()
	if err != nil {
		return gameweek.Gameweek{}, false, fmt.Errorf("build get current gameweek query: %w", err)
	}

	var row gameweekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameweek.Gameweek{}, false, nil
		}
		return gameweek.Gameweek{}, false, fmt.Errorf("get current gameweek: %w", err)
	}
	return gameweekFromRow(row), true, nil
}

func (r *GameweekRepository) GetByNumber(ctx context.Context, number int) (gameweek.Gameweek, bool, error) {
	query, args, err := qb.Select(gameweekSelectColumns...).From("gameweeks").
		Where(qb.Eq("number", number)).
		ToSQL()
	if err != nil {
		return gameweek.Gameweek{}, false, fmt.Errorf("build get gameweek by number query: %w", err)
	}

	var row gameweekTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gameweek.Gameweek{}, false, nil
		}
		return gameweek.Gameweek{}, false, fmt.Errorf("get gameweek by number: %w", err)
	}
	return gameweekFromRow(row), true, nil
}

func (r *GameweekRepository) ListAll(ctx context.Context) ([]gameweek.Gameweek, error) {
	query, args, err := qb.Select(gameweekSelectColumns...).From("gameweeks").
		OrderBy("number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list gameweeks query: %w", err)
	}

	var rows []gameweekTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list gameweeks: %w", err)
	}

	out := make([]gameweek.Gameweek, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameweekFromRow(row))
	}
	return out, nil
}

func (r *GameweekRepository) Upsert(ctx context.Context, gw gameweek.Gameweek) error {
	insertModel := gameweekInsertModel{
		PublicID:    gw.ID,
		Number:      gw.Number,
		DeadlineAt:  gw.DeadlineAt,
		IsCurrent:   gw.IsCurrent,
		IsNext:      gw.IsNext,
		Finished:    gw.Finished,
		DataChecked: gw.DataChecked,
	}
	query, args, err := qb.InsertModel("gameweeks", insertModel, `ON CONFLICT (public_id)
DO UPDATE SET
    number = EXCLUDED.number,
    deadline_at = EXCLUDED.deadline_at,
    is_current = EXCLUDED.is_current,
    is_next = EXCLUDED.is_next,
    finished = EXCLUDED.finished,
    data_checked = EXCLUDED.data_checked`)
	if err != nil {
		return fmt.Errorf("build upsert gameweek query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert gameweek number=%d: %w", gw.Number, err)
	}
	return nil
}

func gameweekFromRow(row gameweekTableModel) gameweek.Gameweek {
	return gameweek.Gameweek{
		ID:          row.PublicID,
		Number:      row.Number,
		DeadlineAt:  row.DeadlineAt,
		IsCurrent:   row.IsCurrent,
		IsNext:      row.IsNext,
		Finished:    row.Finished,
		DataChecked: row.DataChecked,
	}
}
