package postgres

import "testing"

func TestEloRatingFromRow(t *testing.T) {
	row := eloRatingTableModel{TeamID: "team-1", Gameweek: 5, Attacking: 1520.5, Defensive: 1488.0}

	rating := eloRatingFromRow(row)

	if rating.TeamID != "team-1" || rating.Gameweek != 5 {
		t.Fatalf("unexpected identity fields: %+v", rating)
	}
	if rating.Ratings.Attacking != 1520.5 || rating.Ratings.Defensive != 1488.0 {
		t.Fatalf("unexpected ratings: %+v", rating.Ratings)
	}
}
