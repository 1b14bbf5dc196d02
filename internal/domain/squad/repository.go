package squad

import "context"

// Repository exposes squad persistence operations, keyed by team and
// gameweek so historical squads for past gameweeks remain queryable.
type Repository interface {
	GetByTeamAndGameweek(ctx context.Context, teamID string, gameweek int) (Squad, bool, error)
	GetLatestByTeam(ctx context.Context, teamID string) (Squad, bool, error)
	Upsert(ctx context.Context, s Squad) error
}
