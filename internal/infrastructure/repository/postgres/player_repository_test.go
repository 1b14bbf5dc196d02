package postgres

import (
	"database/sql"
	"testing"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
)

func TestPlayerFromRow_CarriesScoutingFields(t *testing.T) {
	row := playerTableModel{
		PublicID:             "p1",
		LeagueID:             "l1",
		TeamID:               "t1",
		Name:                 "Saka",
		Position:             string(player.PositionMidfielder),
		Price:                85,
		PlayerRefID:          sql.NullInt64{Int64: 42, Valid: true},
		Status:               string(player.StatusDoubtful),
		ChanceOfPlaying:      75,
		Form:                 6.4,
		TotalPoints:          120,
		OwnershipPercent:     35.2,
		Transfers24h:         1500,
		MinutesPlayed:        1890,
		ExpectedGoalsPer90:   0.45,
		ExpectedAssistsPer90: 0.31,
	}

	p := playerFromRow(row)

	if p.Status != player.StatusDoubtful {
		t.Fatalf("expected status %q, got %q", player.StatusDoubtful, p.Status)
	}
	if p.ChanceOfPlaying != 75 {
		t.Fatalf("expected chance of playing 75, got %d", p.ChanceOfPlaying)
	}
	if p.Form != 6.4 {
		t.Fatalf("expected form 6.4, got %v", p.Form)
	}
	if p.TotalPoints != 120 {
		t.Fatalf("expected total points 120, got %d", p.TotalPoints)
	}
	if p.OwnershipPercent != 35.2 {
		t.Fatalf("expected ownership percent 35.2, got %v", p.OwnershipPercent)
	}
	if p.Transfers24h != 1500 {
		t.Fatalf("expected transfers 24h 1500, got %d", p.Transfers24h)
	}
	if p.MinutesPlayed != 1890 {
		t.Fatalf("expected minutes played 1890, got %d", p.MinutesPlayed)
	}
	if p.ExpectedGoalsPer90 != 0.45 {
		t.Fatalf("expected xG/90 0.45, got %v", p.ExpectedGoalsPer90)
	}
	if p.ExpectedAssistsPer90 != 0.31 {
		t.Fatalf("expected xA/90 0.31, got %v", p.ExpectedAssistsPer90)
	}
	if p.PlayerRefID != 42 {
		t.Fatalf("expected player ref id 42, got %d", p.PlayerRefID)
	}
}

func TestPlayerFromRow_ZeroValueStatusIsAvailable(t *testing.T) {
	row := playerTableModel{
		PublicID: "p2",
		Status:   "",
	}

	p := playerFromRow(row)

	if !p.IsAvailable() {
		t.Fatalf("expected a player with no upstream status to default to available")
	}
}
