package postgres

import (
	"time"

	"github.com/lib/pq"
)

// squadDraftTableModel mirrors squad_drafts, the coordinator's draft
// store for squad.Squad (§4.12 step 6: single-cell overwrite per team
// and gameweek).
type squadDraftTableModel struct {
	TeamID        string         `db:"team_id"`
	Gameweek      int            `db:"gameweek"`
	PicksJSON     string         `db:"picks"`
	StartingXI    pq.StringArray `db:"starting_xi"`
	Bench         pq.StringArray `db:"bench"`
	CaptainID     string         `db:"captain_id"`
	ViceCaptainID string         `db:"vice_captain_id"`
	Budget        int64          `db:"budget"`
	FreeTransfers int            `db:"free_transfers"`
	ActiveChip    string         `db:"active_chip"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type squadDraftInsertModel struct {
	TeamID        string         `db:"team_id"`
	Gameweek      int            `db:"gameweek"`
	PicksJSON     string         `db:"picks"`
	StartingXI    pq.StringArray `db:"starting_xi"`
	Bench         pq.StringArray `db:"bench"`
	CaptainID     string         `db:"captain_id"`
	ViceCaptainID string         `db:"vice_captain_id"`
	Budget        int64          `db:"budget"`
	FreeTransfers int            `db:"free_transfers"`
	ActiveChip    string         `db:"active_chip"`
}
