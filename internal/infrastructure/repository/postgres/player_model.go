package postgres

import (
	"database/sql"
	"time"
)

type playerTableModel struct {
	ID                   int64         `db:"id"`
	PublicID             string        `db:"public_id"`
	LeagueID             string        `db:"league_public_id"`
	TeamID               string        `db:"team_public_id"`
	Name                 string        `db:"name"`
	Position             string        `db:"position"`
	Price                int64         `db:"price"`
	IsActive             bool          `db:"is_active"`
	PlayerRefID          sql.NullInt64 `db:"external_player_id"`
	ImageURL             string        `db:"image_url"`
	Status               string        `db:"status"`
	ChanceOfPlaying      int           `db:"chance_of_playing"`
	Form                 float64       `db:"form"`
	TotalPoints          int           `db:"total_points"`
	OwnershipPercent     float64       `db:"ownership_percent"`
	Transfers24h         int           `db:"transfers_24h"`
	MinutesPlayed        int           `db:"minutes_played"`
	ExpectedGoalsPer90   float64       `db:"expected_goals_per90"`
	ExpectedAssistsPer90 float64       `db:"expected_assists_per90"`
	CreatedAt            time.Time     `db:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at"`
	DeletedAt            *time.Time    `db:"deleted_at"`
}

type playerInsertModel struct {
	PublicID             string  `db:"public_id"`
	LeagueID             string  `db:"league_public_id"`
	TeamID               string  `db:"team_public_id"`
	Name                 string  `db:"name"`
	Position             string  `db:"position"`
	Price                int64   `db:"price"`
	IsActive             bool    `db:"is_active"`
	PlayerRefID          *int64  `db:"external_player_id"`
	ImageURL             string  `db:"image_url"`
	Status               string  `db:"status"`
	ChanceOfPlaying      int     `db:"chance_of_playing"`
	Form                 float64 `db:"form"`
	TotalPoints          int     `db:"total_points"`
	OwnershipPercent     float64 `db:"ownership_percent"`
	Transfers24h         int     `db:"transfers_24h"`
	MinutesPlayed        int     `db:"minutes_played"`
	ExpectedGoalsPer90   float64 `db:"expected_goals_per90"`
	ExpectedAssistsPer90 float64 `db:"expected_assists_per90"`
}
