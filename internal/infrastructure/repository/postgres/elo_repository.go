package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/internal/domain/elo"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

type eloRatingTableModel struct {
	TeamID    string    `db:"team_id"`
	Gameweek  int       `db:"gameweek"`
	Attacking float64   `db:"attacking"`
	Defensive float64   `db:"defensive"`
	UpdatedAt time.Time `db:"updated_at"`
}

type eloRatingInsertModel struct {
	TeamID    string  `db:"team_id"`
	Gameweek  int     `db:"gameweek"`
	Attacking float64 `db:"attacking"`
	Defensive float64 `db:"defensive"`
}

// EloRepository persists one rating row per team per gameweek, so
// elo.FixtureDifficulty always has the most recent known ratings to
// compare against (§ SUPPLEMENTED FEATURES: Elo-based team strength).
type EloRepository struct {
	db *sqlx.DB
}

func NewEloRepository(db *sqlx.DB) *EloRepository {
	return &EloRepository{db: db}
}

var eloRatingSelectColumns = []string{"team_id", "gameweek", "attacking", "defensive", "updated_at"}

func (r *EloRepository) GetLatest(ctx context.Context, teamID string) (elo.TeamRating, bool, error) {
	query, args, err := qb.Select(eloRatingSelectColumns...).From("elo_ratings").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("gameweek DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return elo.TeamRating{}, false, fmt.Errorf("build get latest elo rating query: %w", err)
	}

	var row eloRatingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return elo.TeamRating{TeamID: teamID, Ratings: elo.NewRatings()}, false, nil
		}
		return elo.TeamRating{}, false, fmt.Errorf("get latest elo rating: %w", err)
	}
	return eloRatingFromRow(row), true, nil
}

func (r *EloRepository) Save(ctx context.Context, rating elo.TeamRating) error {
	insertModel := eloRatingInsertModel{
		TeamID:    rating.TeamID,
		Gameweek:  rating.Gameweek,
		Attacking: rating.Ratings.Attacking,
		Defensive: rating.Ratings.Defensive,
	}
	query, args, err := qb.InsertModel("elo_ratings", insertModel, `ON CONFLICT (team_id, gameweek)
DO UPDATE SET
    attacking = EXCLUDED.attacking,
    defensive = EXCLUDED.defensive,
    updated_at = now()`)
	if err != nil {
		return fmt.Errorf("build upsert elo rating query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert elo rating team=%s gw=%d: %w", rating.TeamID, rating.Gameweek, err)
	}
	return nil
}

func (r *EloRepository) ListLatest(ctx context.Context) ([]elo.TeamRating, error) {
	query, args, err := qb.Select(
		"DISTINCT ON (team_id) team_id", "gameweek", "attacking", "defensive", "updated_at",
	).From("elo_ratings").
		OrderBy("team_id", "gameweek DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list latest elo ratings query: %w", err)
	}

	var rows []eloRatingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list latest elo ratings: %w", err)
	}

	out := make([]elo.TeamRating, 0, len(rows))
	for _, row := range rows {
		out = append(out, eloRatingFromRow(row))
	}
	return out, nil
}

func eloRatingFromRow(row eloRatingTableModel) elo.TeamRating {
	return elo.TeamRating{
		TeamID:   row.TeamID,
		Gameweek: row.Gameweek,
		Ratings:  elo.Ratings{Attacking: row.Attacking, Defensive: row.Defensive},
	}
}
