package decision

import "context"

// Repository stores decision records. The decision coordinator is the
// component that calls Save.
type Repository interface {
	Save(ctx context.Context, r Record) error
	ListByGameweek(ctx context.Context, gameweek int) ([]Record, error)
}
