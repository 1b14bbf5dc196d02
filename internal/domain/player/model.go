package player

import "fmt"

// Position represents football position categories used in fantasy rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// AvailabilityStatus mirrors the upstream "status" flag: fit, injured,
// suspended, on loan elsewhere, or unavailable for unspecified reasons.
type AvailabilityStatus string

const (
	StatusAvailable  AvailabilityStatus = "a"
	StatusDoubtful   AvailabilityStatus = "d"
	StatusInjured    AvailabilityStatus = "i"
	StatusSuspended  AvailabilityStatus = "s"
	StatusUnavailable AvailabilityStatus = "u"
	StatusOnLoan     AvailabilityStatus = "n"
)

// Player is a selectable athlete in a fantasy league pool.
type Player struct {
	ID          string
	LeagueID    string
	TeamID      string
	Name        string
	Position    Position
	Price       int64
	ImageURL    string
	PlayerRefID int64

	// Availability and form, refreshed on every data sync (§4.5).
	Status            AvailabilityStatus
	ChanceOfPlaying    int // 0-100, 100 when unset upstream
	Form              float64
	TotalPoints       int
	OwnershipPercent  float64
	Transfers24h      int // net transfers in minus out during the current gameweek, for price-change prediction

	// Season totals used by the expected-goals analyzer (§4.7).
	MinutesPlayed        int
	ExpectedGoalsPer90   float64
	ExpectedAssistsPer90 float64
}

// MinMinutesForExpectedGoals is the sample-size floor the expected-goals
// analyzer applies before trusting a per-90 figure.
const MinMinutesForExpectedGoals = 270

// IsAvailable reports whether the player can reasonably be selected:
// fully fit, or at least a meaningful chance of playing.
func (p Player) IsAvailable() bool {
	return p.Status == StatusAvailable || p.Status == "" || p.ChanceOfPlaying >= 75
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.LeagueID == "" {
		return fmt.Errorf("player league id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if p.Price <= 0 {
		return fmt.Errorf("player price must be greater than zero")
	}

	return nil
}
