package team

import "fmt"

// Team is a real football club inside a league. Strength ratings derived
// from match results live in the elo package, keyed by team id, not here.
type Team struct {
	ID       string
	LeagueID string
	Name     string
	Short    string

	ImageURL       string
	PrimaryColor   string
	SecondaryColor string
	TeamRefID      int64
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.LeagueID == "" {
		return fmt.Errorf("team league id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
