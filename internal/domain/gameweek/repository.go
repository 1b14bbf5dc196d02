package gameweek

import "context"

// Repository persists gameweek metadata synced from the upstream data
// source.
type Repository interface {
	GetCurrent(ctx context.Context) (Gameweek, bool, error)
	GetByNumber(ctx context.Context, number int) (Gameweek, bool, error)
	ListAll(ctx context.Context) ([]Gameweek, error)
	Upsert(ctx context.Context, gw Gameweek) error
}
