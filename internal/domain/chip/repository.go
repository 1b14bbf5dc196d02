package chip

import "context"

// Repository persists chip inventories and exposes league-wide queries
// used for rival chip-advantage comparisons.
type Repository interface {
	GetInventory(ctx context.Context, teamID string) (Inventory, error)
	SaveInventory(ctx context.Context, inv Inventory) error
	ListLeagueUsage(ctx context.Context, leagueID string) ([]Usage, error)
}
