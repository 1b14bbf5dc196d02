package postgres

import (
	"database/sql"
	"testing"
	"time"
)

func TestPredictionFromRow_UnresolvedLeavesActualAndErrorNil(t *testing.T) {
	row := predictionRecordTableModel{
		PlayerID:        "p1",
		Gameweek:        10,
		PredictedPoints: 6.4,
		Confidence:      0.7,
		ModelVersion:    "v1",
		CreatedAt:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	rec := predictionFromRow(row)

	if rec.ActualPoints != nil {
		t.Fatalf("expected nil ActualPoints for unresolved row, got %v", *rec.ActualPoints)
	}
	if rec.Error != nil {
		t.Fatalf("expected nil Error for unresolved row, got %v", *rec.Error)
	}
	if rec.PlayerID != "p1" || rec.Gameweek != 10 {
		t.Fatalf("unexpected identity fields: %+v", rec)
	}
}

func TestPredictionFromRow_ResolvedPopulatesActualAndError(t *testing.T) {
	row := predictionRecordTableModel{
		PlayerID:        "p1",
		Gameweek:        10,
		PredictedPoints: 6.4,
		Confidence:      0.7,
		ModelVersion:    "v1",
		ActualPoints:    sql.NullFloat64{Float64: 8.0, Valid: true},
		Error:           sql.NullFloat64{Float64: 1.6, Valid: true},
	}

	rec := predictionFromRow(row)

	if rec.ActualPoints == nil || *rec.ActualPoints != 8.0 {
		t.Fatalf("unexpected ActualPoints: %v", rec.ActualPoints)
	}
	if rec.Error == nil || *rec.Error != 1.6 {
		t.Fatalf("unexpected Error: %v", rec.Error)
	}
}
