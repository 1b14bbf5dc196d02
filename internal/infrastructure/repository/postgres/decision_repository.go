package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

type decisionRecordTableModel struct {
	Gameweek      int       `db:"gameweek"`
	Kind          string    `db:"kind"`
	DataJSON      string    `db:"data"`
	Reasoning     string    `db:"reasoning"`
	ExpectedValue float64   `db:"expected_value"`
	Confidence    float64   `db:"confidence"`
	ProducedBy    string    `db:"produced_by"`
	CreatedAt     time.Time `db:"created_at"`
}

type decisionRecordInsertModel struct {
	Gameweek      int     `db:"gameweek"`
	Kind          string  `db:"kind"`
	DataJSON      string  `db:"data"`
	Reasoning     string  `db:"reasoning"`
	ExpectedValue float64 `db:"expected_value"`
	Confidence    float64 `db:"confidence"`
	ProducedBy    string  `db:"produced_by"`
}

// DecisionRepository persists append-only decision_records, written by
// the coordinator at decision time (§4.12 step 9; see DESIGN.md for the
// §5 shared-resource reconciliation).
type DecisionRepository struct {
	db *sqlx.DB
}

func NewDecisionRepository(db *sqlx.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

func (r *DecisionRepository) Save(ctx context.Context, rec decision.Record) error {
	dataJSON := encodeJSONMap(rec.Data)

	insertModel := decisionRecordInsertModel{
		Gameweek:      rec.Gameweek,
		Kind:          string(rec.Kind),
		DataJSON:      dataJSON,
		Reasoning:     rec.Reasoning,
		ExpectedValue: rec.ExpectedValue,
		Confidence:    rec.Confidence,
		ProducedBy:    rec.ProducedBy,
	}
	query, args, err := qb.InsertModel("decision_records", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert decision record query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert decision record kind=%s gw=%d: %w", rec.Kind, rec.Gameweek, err)
	}
	return nil
}

func (r *DecisionRepository) ListByGameweek(ctx context.Context, gameweek int) ([]decision.Record, error) {
	query, args, err := qb.Select(
		"gameweek", "kind", "data", "reasoning", "expected_value", "confidence", "produced_by", "created_at",
	).From("decision_records").
		Where(qb.Eq("gameweek", gameweek)).
		OrderBy("created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list decision records query: %w", err)
	}

	var rows []decisionRecordTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list decision records: %w", err)
	}

	out := make([]decision.Record, 0, len(rows))
	for _, row := range rows {
		var data map[string]any
		if row.DataJSON != "" {
			if err := sonic.Unmarshal([]byte(row.DataJSON), &data); err != nil {
				return nil, fmt.Errorf("decode decision record data: %w", err)
			}
		}
		out = append(out, decision.Record{
			Gameweek:      row.Gameweek,
			Kind:          decision.Kind(row.Kind),
			Data:          data,
			Reasoning:     row.Reasoning,
			ExpectedValue: row.ExpectedValue,
			Confidence:    row.Confidence,
			ProducedBy:    row.ProducedBy,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out, nil
}
