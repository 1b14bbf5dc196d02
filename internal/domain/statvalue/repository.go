package statvalue

import "context"

type Repository interface {
	UpsertTypes(ctx context.Context, items []Type) error
	UpsertTeamValues(ctx context.Context, items []TeamValue) error
	UpsertPlayerValues(ctx context.Context, items []PlayerValue) error

	// ListPlayerValuesByStatKey reads back ingested advanced stats for a
	// league, filtered to one stat key (for example "expected_goals");
	// rows of every stored season are returned. Consumed by the expected-goals
	// analyzer, which otherwise has no way to read what the sync path
	// writes.
	ListPlayerValuesByStatKey(ctx context.Context, leagueID, statKey string) ([]PlayerValue, error)
}
