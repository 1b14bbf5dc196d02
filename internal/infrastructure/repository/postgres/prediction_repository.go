package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

type predictionRecordTableModel struct {
	PlayerID        string          `db:"player_id"`
	Gameweek        int             `db:"gameweek"`
	PredictedPoints float64         `db:"predicted_points"`
	Confidence      float64         `db:"confidence"`
	ModelVersion    string          `db:"model_version"`
	CreatedAt       time.Time       `db:"created_at"`
	ActualPoints    sql.NullFloat64 `db:"actual_points"`
	Error           sql.NullFloat64 `db:"error"`
}

type predictionRecordInsertModel struct {
	PlayerID        string   `db:"player_id"`
	Gameweek        int      `db:"gameweek"`
	PredictedPoints float64  `db:"predicted_points"`
	Confidence      float64  `db:"confidence"`
	ModelVersion    string   `db:"model_version"`
	ActualPoints    *float64 `db:"actual_points"`
	Error           *float64 `db:"error"`
}

type biasCorrectionTableModel struct {
	Position    string    `db:"position"`
	Bracket     string    `db:"bracket"`
	MeanError   float64   `db:"mean_error"`
	SampleCount int       `db:"sample_count"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type biasCorrectionInsertModel struct {
	Position    string  `db:"position"`
	Bracket     string  `db:"bracket"`
	MeanError   float64 `db:"mean_error"`
	SampleCount int     `db:"sample_count"`
}

type priceChangePredictionInsertModel struct {
	PlayerID   string  `db:"player_id"`
	Label      string  `db:"label"`
	Confidence float64 `db:"confidence"`
}

// PredictionRepository persists per-player, per-gameweek prediction
// records and the aggregated bias-correction tables the prediction
// service applies to future raw predictions (§4.8, §4.13).
type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

var predictionRecordSelectColumns = []string{
	"player_id", "gameweek", "predicted_points", "confidence", "model_version",
	"created_at", "actual_points", "error",
}

// Save upserts the (player, gameweek) record - most-recent write wins,
// matching Record's "most-recent write wins on update" contract.
func (r *PredictionRepository) Save(ctx context.Context, rec prediction.Record) error {
	insertModel := predictionRecordInsertModel{
		PlayerID:        rec.PlayerID,
		Gameweek:        rec.Gameweek,
		PredictedPoints: rec.PredictedPoints,
		Confidence:      rec.Confidence,
		ModelVersion:    rec.ModelVersion,
		ActualPoints:    rec.ActualPoints,
		Error:           rec.Error,
	}
	query, args, err := qb.InsertModel("prediction_records", insertModel, `ON CONFLICT (player_id, gameweek)
DO UPDATE SET
    predicted_points = EXCLUDED.predicted_points,
    confidence = EXCLUDED.confidence,
    model_version = EXCLUDED.model_version,
    actual_points = EXCLUDED.actual_points,
    error = EXCLUDED.error`)
	if err != nil {
		return fmt.Errorf("build upsert prediction record query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prediction record player=%s gw=%d: %w", rec.PlayerID, rec.Gameweek, err)
	}
	return nil
}

func (r *PredictionRepository) GetLatest(ctx context.Context, playerID string, gameweek int) (prediction.Record, bool, error) {
	query, args, err := qb.Select(predictionRecordSelectColumns...).From("prediction_records").
		Where(qb.Eq("player_id", playerID), qb.Eq("gameweek", gameweek)).
		ToSQL()
	if err != nil {
		return prediction.Record{}, false, fmt.Errorf("build get latest prediction query: %w", err)
	}

	var row predictionRecordTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Record{}, false, nil
		}
		return prediction.Record{}, false, fmt.Errorf("get latest prediction: %w", err)
	}
	return predictionFromRow(row), true, nil
}

func (r *PredictionRepository) ListByGameweek(ctx context.Context, gameweek int) ([]prediction.Record, error) {
	return r.listByGameweek(ctx, gameweek, false)
}

func (r *PredictionRepository) ListUnresolved(ctx context.Context, gameweek int) ([]prediction.Record, error) {
	return r.listByGameweek(ctx, gameweek, true)
}

func (r *PredictionRepository) listByGameweek(ctx context.Context, gameweek int, unresolvedOnly bool) ([]prediction.Record, error) {
	conditions := []qb.Condition{qb.Eq("gameweek", gameweek)}
	if unresolvedOnly {
		conditions = append(conditions, qb.IsNull("actual_points"))
	}

	query, args, err := qb.Select(predictionRecordSelectColumns...).From("prediction_records").
		Where(conditions...).
		OrderBy("player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions by gameweek query: %w", err)
	}

	var rows []predictionRecordTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions by gameweek: %w", err)
	}

	out := make([]prediction.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, predictionFromRow(row))
	}
	return out, nil
}

func (r *PredictionRepository) SaveBiasCorrection(ctx context.Context, b prediction.BiasCorrection) error {
	insertModel := biasCorrectionInsertModel{
		Position:    b.Position,
		Bracket:     string(b.Bracket),
		MeanError:   b.MeanError,
		SampleCount: b.SampleCount,
	}
	query, args, err := qb.InsertModel("bias_corrections", insertModel, `ON CONFLICT (position, bracket)
DO UPDATE SET
    mean_error = EXCLUDED.mean_error,
    sample_count = EXCLUDED.sample_count,
    updated_at = now()`)
	if err != nil {
		return fmt.Errorf("build upsert bias correction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert bias correction key=%s: %w", b.Key(), err)
	}
	return nil
}

func (r *PredictionRepository) GetBiasCorrections(ctx context.Context) ([]prediction.BiasCorrection, error) {
	query, args, err := qb.Select("position", "bracket", "mean_error", "sample_count", "updated_at").
		From("bias_corrections").
		OrderBy("position", "bracket").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bias corrections query: %w", err)
	}

	var rows []biasCorrectionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list bias corrections: %w", err)
	}

	out := make([]prediction.BiasCorrection, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.BiasCorrection{
			Position:    row.Position,
			Bracket:     prediction.PriceBracket(row.Bracket),
			MeanError:   row.MeanError,
			SampleCount: row.SampleCount,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *PredictionRepository) SavePriceChangePrediction(ctx context.Context, p prediction.PriceChangePrediction) error {
	insertModel := priceChangePredictionInsertModel{
		PlayerID:   p.PlayerID,
		Label:      string(p.Label),
		Confidence: p.Confidence,
	}
	query, args, err := qb.InsertModel("price_change_predictions", insertModel, `ON CONFLICT (player_id)
DO UPDATE SET
    label = EXCLUDED.label,
    confidence = EXCLUDED.confidence,
    updated_at = now()`)
	if err != nil {
		return fmt.Errorf("build upsert price change prediction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert price change prediction player=%s: %w", p.PlayerID, err)
	}
	return nil
}

func predictionFromRow(row predictionRecordTableModel) prediction.Record {
	rec := prediction.Record{
		PlayerID:        row.PlayerID,
		Gameweek:        row.Gameweek,
		PredictedPoints: row.PredictedPoints,
		Confidence:      row.Confidence,
		ModelVersion:    row.ModelVersion,
		CreatedAt:       row.CreatedAt,
	}
	if row.ActualPoints.Valid {
		actual := row.ActualPoints.Float64
		rec.ActualPoints = &actual
	}
	if row.Error.Valid {
		errVal := row.Error.Float64
		rec.Error = &errVal
	}
	return rec
}
