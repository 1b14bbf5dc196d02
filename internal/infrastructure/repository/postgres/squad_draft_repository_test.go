package postgres

import (
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lib/pq"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/squad"
)

func TestSquadFromDraftRow_RoundTripsPicksAndArrays(t *testing.T) {
	picks := []squad.Pick{
		{PlayerID: "p1", TeamID: "t1", Position: player.PositionGoalkeeper, Price: 45},
		{PlayerID: "p2", TeamID: "t1", Position: player.PositionForward, Price: 110},
	}
	picksJSON, err := sonic.Marshal(picks)
	if err != nil {
		t.Fatalf("marshal picks: %v", err)
	}

	row := squadDraftTableModel{
		TeamID:        "team-1",
		Gameweek:      12,
		PicksJSON:     string(picksJSON),
		StartingXI:    pq.StringArray{"p1", "p2"},
		Bench:         pq.StringArray{"p3", "p4", "p5", "p6"},
		CaptainID:     "p2",
		ViceCaptainID: "p1",
		Budget:        1000,
		FreeTransfers: 1,
		ActiveChip:    "",
		CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	out, err := squadFromDraftRow(row)
	if err != nil {
		t.Fatalf("squadFromDraftRow failed: %v", err)
	}

	if len(out.Picks) != 2 || out.Picks[0].PlayerID != "p1" || out.Picks[1].Position != player.PositionForward {
		t.Fatalf("unexpected picks: %+v", out.Picks)
	}
	if len(out.StartingXI) != 2 || out.StartingXI[0] != "p1" {
		t.Fatalf("unexpected starting xi: %+v", out.StartingXI)
	}
	if len(out.Bench) != 4 {
		t.Fatalf("unexpected bench: %+v", out.Bench)
	}
	if out.CaptainID != "p2" || out.ViceCaptainID != "p1" {
		t.Fatalf("unexpected captaincy: captain=%s vice=%s", out.CaptainID, out.ViceCaptainID)
	}
	if out.Budget != 1000 || out.FreeTransfers != 1 {
		t.Fatalf("unexpected budget/transfers: %d %d", out.Budget, out.FreeTransfers)
	}
}

func TestSquadFromDraftRow_InvalidPicksJSONReturnsError(t *testing.T) {
	row := squadDraftTableModel{PicksJSON: "{not-json"}
	if _, err := squadFromDraftRow(row); err == nil {
		t.Fatalf("expected error decoding malformed picks JSON")
	}
}
