package transfer

import (
	"context"
	"time"
)

// Record is a persisted, executed transfer (as opposed to an evaluated
// Option, which is hypothetical).
type Record struct {
	TeamID      string
	Gameweek    int
	PlayerOutID string
	PlayerInID  string
	PointsHit   int
	DecidedBy   Action
	CreatedAt   time.Time
}

// Repository persists executed transfers for a team's history.
type Repository interface {
	ListByTeam(ctx context.Context, teamID string) ([]Record, error)
	Save(ctx context.Context, r Record) error
}
