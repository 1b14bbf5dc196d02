// Package rules is the pure-function rulebook for squad composition,
// starting-XI formations, transfer legality, and point scoring. Every
// constant here is load-bearing: 2025/26 Fantasy Premier League scoring,
// not a configurable parameter.
package rules

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
)

var (
	ErrInvalidSquadSize       = crerr.New("invalid squad size")
	ErrExceededBudget         = crerr.New("budget cap exceeded")
	ErrExceededTeamLimit      = crerr.New("max players from same team exceeded")
	ErrInvalidComposition     = crerr.New("position composition requirement not met")
	ErrDuplicatePlayerInSquad = crerr.New("duplicate player in squad")
	ErrInvalidStartingXISize  = crerr.New("starting xi must have exactly 11 players")
	ErrMissingGoalkeeper      = crerr.New("starting xi must have exactly 1 goalkeeper")
	ErrInvalidFormation       = crerr.New("formation is not a valid FPL formation")
	ErrTransferOutNotInSquad  = crerr.New("player transferred out is not in the current squad")
	ErrTransferInAlreadyInSquad = crerr.New("player transferred in is already in the squad")
	ErrTransferPositionMismatch = crerr.New("transfer must replace a player with one of the same position")
)

// Squad composition (§ SQUAD_COMPOSITION).
const (
	SquadSize             = 15
	SquadGoalkeepers      = 2
	SquadDefenders        = 5
	SquadMidfielders      = 5
	SquadForwards         = 3
	NewTeamBudget   int64 = 1000 // tenths of a million: 1000 == £100.0m
	MaxPlayersPerTeam     = 3
	StartingXISize        = 11
)

// Defensive contribution thresholds (2025/26 rule addition).
const (
	DCDefenderThreshold   = 5 // 1 pt per 5 combined blocks+interceptions+tackles
	DCMidfielderThreshold = 6 // 1 pt per 6 combined blocks+interceptions+tackles+recoveries
)

// Base scoring table.
const (
	PointsPlaying0To60    = 1
	PointsPlaying60Plus   = 2
	PointsGoalGKDef       = 6
	PointsGoalMid         = 5
	PointsGoalFwd         = 4
	PointsAssist          = 3
	PointsCleanSheetGKDef = 4
	PointsCleanSheetMid   = 1
	PointsGoalsConceded   = -1 // per 2 conceded, GK/DEF only
	PointsPenaltySave     = 5
	PointsPenaltyMiss     = -2
	PointsYellowCard      = -1
	PointsRedCard         = -3
	PointsOwnGoal         = -2
	PointsSaves           = 1 // per 3 saves, GK only
)

// Formation is a (DEF, MID, FWD) triple; GK is always exactly 1 and is not
// part of the tuple.
type Formation struct {
	Defenders   int
	Midfielders int
	Forwards    int
}

func (f Formation) String() string {
	return fmt.Sprintf("%d-%d-%d", f.Defenders, f.Midfielders, f.Forwards)
}

// validFormations is the closed set of FPL-legal outfield shapes.
var validFormations = map[Formation]struct{}{
	{3, 4, 3}: {}, {3, 5, 2}: {}, {3, 2, 5}: {},
	{4, 3, 3}: {}, {4, 4, 2}: {}, {4, 5, 1}: {}, {4, 2, 4}: {},
	{5, 3, 2}: {}, {5, 4, 1}: {}, {5, 2, 3}: {},
}

// IsValidFormation reports whether (def, mid, fwd) is one of the ten legal
// starting-XI outfield shapes.
func IsValidFormation(def, mid, fwd int) bool {
	_, ok := validFormations[Formation{def, mid, fwd}]
	return ok
}

// ValidFormations returns all ten legal formations.
func ValidFormations() []Formation {
	out := make([]Formation, 0, len(validFormations))
	for f := range validFormations {
		out = append(out, f)
	}
	return out
}

// SquadMember is the minimal shape rules needs from a picked player; the
// squad domain's richer type satisfies this via its own fields.
type SquadMember struct {
	PlayerID string
	TeamID   string
	Position player.Position
	Price    int64
}

// ValidateSquad checks a 15-player squad against the 2025/26 composition,
// budget, and per-team limit rules. All violations are collected rather
// than returning on the first failure, mirroring the original rules
// engine's "collect all ValidationErrors" behavior.
func ValidateSquad(members []SquadMember, budget int64) []error {
	var errs []error

	if len(members) != SquadSize {
		errs = append(errs, fmt.Errorf("%w: expected %d, got %d", ErrInvalidSquadSize, SquadSize, len(members)))
	}

	positionCounts := map[player.Position]int{}
	teamCounts := map[string]int{}
	seen := map[string]struct{}{}
	var totalCost int64

	for _, m := range members {
		if _, dup := seen[m.PlayerID]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicatePlayerInSquad, m.PlayerID))
			continue
		}
		seen[m.PlayerID] = struct{}{}

		positionCounts[m.Position]++
		teamCounts[m.TeamID]++
		totalCost += m.Price
	}

	required := map[player.Position]int{
		player.PositionGoalkeeper: SquadGoalkeepers,
		player.PositionDefender:   SquadDefenders,
		player.PositionMidfielder: SquadMidfielders,
		player.PositionForward:    SquadForwards,
	}
	for pos, want := range required {
		if positionCounts[pos] != want {
			errs = append(errs, fmt.Errorf("%w: must have %d %s, has %d", ErrInvalidComposition, want, pos, positionCounts[pos]))
		}
	}

	if totalCost > budget {
		errs = append(errs, fmt.Errorf("%w: cap=%d used=%d", ErrExceededBudget, budget, totalCost))
	}

	for teamID, count := range teamCounts {
		if count > MaxPlayersPerTeam {
			errs = append(errs, fmt.Errorf("%w: team=%s max=%d has=%d", ErrExceededTeamLimit, teamID, MaxPlayersPerTeam, count))
		}
	}

	return errs
}

// ValidateStartingXI checks an 11-player lineup: exactly 1 GK and a legal
// outfield formation. If want is non-nil, the actual formation must match
// it exactly.
func ValidateStartingXI(members []SquadMember, want *Formation) []error {
	var errs []error

	if len(members) != StartingXISize {
		return append(errs, fmt.Errorf("%w: has %d", ErrInvalidStartingXISize, len(members)))
	}

	counts := map[player.Position]int{}
	for _, m := range members {
		counts[m.Position]++
	}

	if counts[player.PositionGoalkeeper] != 1 {
		errs = append(errs, fmt.Errorf("%w: has %d", ErrMissingGoalkeeper, counts[player.PositionGoalkeeper]))
	}

	actual := Formation{counts[player.PositionDefender], counts[player.PositionMidfielder], counts[player.PositionForward]}
	if !IsValidFormation(actual.Defenders, actual.Midfielders, actual.Forwards) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidFormation, actual))
	}

	if want != nil && *want != actual {
		errs = append(errs, fmt.Errorf("formation %s does not match requested %s", actual, *want))
	}

	return errs
}

// ValidateTransfer checks a single proposed player_out -> player_in swap
// against squad membership, position match, budget, and per-team limit.
func ValidateTransfer(out, in SquadMember, squad []SquadMember, budgetAvailable int64) []error {
	var errs []error

	inSquad := false
	for _, m := range squad {
		if m.PlayerID == out.PlayerID {
			inSquad = true
			break
		}
	}
	if !inSquad {
		errs = append(errs, fmt.Errorf("%w: %s", ErrTransferOutNotInSquad, out.PlayerID))
	}

	for _, m := range squad {
		if m.PlayerID == in.PlayerID {
			errs = append(errs, fmt.Errorf("%w: %s", ErrTransferInAlreadyInSquad, in.PlayerID))
			break
		}
	}

	if out.Position != in.Position {
		errs = append(errs, fmt.Errorf("%w: %s -> %s", ErrTransferPositionMismatch, out.Position, in.Position))
	}

	if in.Price > budgetAvailable {
		errs = append(errs, fmt.Errorf("%w: cost=%d available=%d", ErrExceededBudget, in.Price, budgetAvailable))
	}

	teamCounts := map[string]int{}
	for _, m := range squad {
		if m.PlayerID == out.PlayerID {
			continue
		}
		teamCounts[m.TeamID]++
	}
	teamCounts[in.TeamID]++
	if teamCounts[in.TeamID] > MaxPlayersPerTeam {
		errs = append(errs, fmt.Errorf("%w: team=%s max=%d", ErrExceededTeamLimit, in.TeamID, MaxPlayersPerTeam))
	}

	return errs
}

// GameweekStats carries the raw counting stats scoring draws from, one
// instance per player per gameweek.
type GameweekStats struct {
	Minutes                       int
	GoalsScored                   int
	Assists                       int
	CleanSheets                   int
	GoalsConceded                 int
	Saves                         int
	PenaltiesSaved                int
	PenaltiesMissed               int
	YellowCards                   int
	RedCards                      int
	OwnGoals                      int
	ClearancesBlocksInterceptions int
	Tackles                       int
	Recoveries                    int
}

// CalculateBasePoints computes a single player's gameweek score, including
// the 2025/26 defensive-contribution addition.
func CalculateBasePoints(pos player.Position, s GameweekStats) int {
	points := 0

	switch {
	case s.Minutes >= 60:
		points += PointsPlaying60Plus
	case s.Minutes > 0:
		points += PointsPlaying0To60
	}

	if s.GoalsScored > 0 {
		switch pos {
		case player.PositionGoalkeeper, player.PositionDefender:
			points += s.GoalsScored * PointsGoalGKDef
		case player.PositionMidfielder:
			points += s.GoalsScored * PointsGoalMid
		case player.PositionForward:
			points += s.GoalsScored * PointsGoalFwd
		}
	}

	points += s.Assists * PointsAssist

	if s.CleanSheets > 0 {
		switch pos {
		case player.PositionGoalkeeper, player.PositionDefender:
			points += s.CleanSheets * PointsCleanSheetGKDef
		case player.PositionMidfielder:
			points += s.CleanSheets * PointsCleanSheetMid
		}
	}

	if pos == player.PositionGoalkeeper || pos == player.PositionDefender {
		points += (s.GoalsConceded / 2) * PointsGoalsConceded
	}

	if pos == player.PositionGoalkeeper {
		points += (s.Saves / 3) * PointsSaves
	}

	points += s.PenaltiesSaved * PointsPenaltySave
	points += s.PenaltiesMissed * PointsPenaltyMiss
	points += s.YellowCards * PointsYellowCard
	points += s.RedCards * PointsRedCard
	points += s.OwnGoals * PointsOwnGoal
	points += CalculateDefensiveContributionPoints(pos, s)

	return points
}

// CalculateDefensiveContributionPoints applies the 2025/26 defensive
// contribution rule: defenders earn from blocks+interceptions+tackles,
// midfielders additionally count recoveries. GK and FWD never earn DC
// points.
func CalculateDefensiveContributionPoints(pos player.Position, s GameweekStats) int {
	switch pos {
	case player.PositionDefender:
		return (s.ClearancesBlocksInterceptions + s.Tackles) / DCDefenderThreshold
	case player.PositionMidfielder:
		return (s.ClearancesBlocksInterceptions + s.Tackles + s.Recoveries) / DCMidfielderThreshold
	default:
		return 0
	}
}

// SquadCost sums the price of every member, in tenths of a million.
func SquadCost(members []SquadMember) int64 {
	var total int64
	for _, m := range members {
		total += m.Price
	}
	return total
}

// BudgetRemaining returns budget minus the squad's total cost.
func BudgetRemaining(members []SquadMember, budget int64) int64 {
	return budget - SquadCost(members)
}
