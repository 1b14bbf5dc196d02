// Package squad models the manager's 15-player roster: the full squad,
// its starting XI and bench, and captaincy.
package squad

import (
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/rules"
)

var (
	ErrSquadIDRequired     = crerr.New("squad id is required")
	ErrTeamIDRequired      = crerr.New("team id is required")
	ErrCaptainNotInXI      = crerr.New("captain must be in the starting XI")
	ErrViceCaptainNotInXI  = crerr.New("vice captain must be in the starting XI")
	ErrCaptainIsVice       = crerr.New("captain and vice captain must differ")
	ErrBenchSizeMismatch   = crerr.New("bench must hold exactly 4 players")
)

// Pick is one roster slot: a selected player plus what it cost to add.
type Pick struct {
	PlayerID string
	TeamID   string
	Position player.Position
	Price    int64
}

// Squad is a manager's full 15-player roster for a single FPL team entry.
type Squad struct {
	ID              string
	TeamID          string // the manager's FPL team id (§ GLOSSARY)
	Gameweek        int
	Picks           []Pick // all 15
	StartingXI      []string // player IDs, 11 of the 15
	Bench           []string // player IDs, remaining 4, bench order matters for auto-sub
	CaptainID       string
	ViceCaptainID   string
	Budget          int64 // remaining budget in tenths
	FreeTransfers   int
	ActiveChip      string // "" or one of chip.Kind
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Members converts Picks into rules.SquadMember for the pure validators.
func (s Squad) Members() []rules.SquadMember {
	out := make([]rules.SquadMember, len(s.Picks))
	for i, p := range s.Picks {
		out[i] = rules.SquadMember{PlayerID: p.PlayerID, TeamID: p.TeamID, Position: p.Position, Price: p.Price}
	}
	return out
}

// startingXIMembers returns the subset of Picks whose player id is in
// StartingXI, in StartingXI order.
func (s Squad) startingXIMembers() []rules.SquadMember {
	byID := make(map[string]Pick, len(s.Picks))
	for _, p := range s.Picks {
		byID[p.PlayerID] = p
	}
	out := make([]rules.SquadMember, 0, len(s.StartingXI))
	for _, id := range s.StartingXI {
		if p, ok := byID[id]; ok {
			out = append(out, rules.SquadMember{PlayerID: p.PlayerID, TeamID: p.TeamID, Position: p.Position, Price: p.Price})
		}
	}
	return out
}

// Validate checks structural invariants: squad composition, starting XI
// formation, bench size, and captain/vice-captain placement. Squad cost is
// checked against rules.NewTeamBudget through rules.ValidateSquad; the
// remaining bank in s.Budget is not consulted.
func (s Squad) Validate() []error {
	var errs []error

	if s.ID == "" {
		errs = append(errs, ErrSquadIDRequired)
	}
	if s.TeamID == "" {
		errs = append(errs, ErrTeamIDRequired)
	}

	errs = append(errs, rules.ValidateSquad(s.Members(), rules.NewTeamBudget)...)

	if len(s.Bench) != 4 {
		errs = append(errs, ErrBenchSizeMismatch)
	}

	errs = append(errs, rules.ValidateStartingXI(s.startingXIMembers(), nil)...)

	inXI := make(map[string]struct{}, len(s.StartingXI))
	for _, id := range s.StartingXI {
		inXI[id] = struct{}{}
	}
	if _, ok := inXI[s.CaptainID]; !ok {
		errs = append(errs, ErrCaptainNotInXI)
	}
	if _, ok := inXI[s.ViceCaptainID]; !ok {
		errs = append(errs, ErrViceCaptainNotInXI)
	}
	if s.CaptainID != "" && s.CaptainID == s.ViceCaptainID {
		errs = append(errs, ErrCaptainIsVice)
	}

	return errs
}

// Formation returns the (DEF, MID, FWD) shape of the current starting XI.
func (s Squad) Formation() rules.Formation {
	byID := make(map[string]Pick, len(s.Picks))
	for _, p := range s.Picks {
		byID[p.PlayerID] = p
	}
	var f rules.Formation
	for _, id := range s.StartingXI {
		switch byID[id].Position {
		case player.PositionDefender:
			f.Defenders++
		case player.PositionMidfielder:
			f.Midfielders++
		case player.PositionForward:
			f.Forwards++
		}
	}
	return f
}
