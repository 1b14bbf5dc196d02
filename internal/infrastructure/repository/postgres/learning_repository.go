package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/internal/domain/learning"
	qb "github.com/riskibarqy/fantasy-league/internal/platform/querybuilder"
)

type playerErrorInsertModel struct {
	PlayerID string  `db:"player_id"`
	Gameweek int     `db:"gameweek"`
	Error    float64 `db:"error"`
}

type agentPerformanceInsertModel struct {
	AgentName       string `db:"agent_name"`
	Gameweek        int    `db:"gameweek"`
	EventsProcessed int    `db:"events_processed"`
	EventsFailed    int    `db:"events_failed"`
}

// LearningRepository persists the learning store's derived output:
// per-player prediction errors and per-agent event-processing rollups
// (§4.13, §6.3 agent_performance).
type LearningRepository struct {
	db *sqlx.DB
}

func NewLearningRepository(db *sqlx.DB) *LearningRepository {
	return &LearningRepository{db: db}
}

func (r *LearningRepository) SavePlayerErrors(ctx context.Context, errs []learning.PlayerError) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save player errors: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range errs {
		insertModel := playerErrorInsertModel{PlayerID: e.PlayerID, Gameweek: e.Gameweek, Error: e.Error}
		query, args, err := qb.InsertModel("player_errors", insertModel, `ON CONFLICT (player_id, gameweek)
DO UPDATE SET error = EXCLUDED.error`)
		if err != nil {
			return fmt.Errorf("build insert player error query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert player error player=%s gw=%d: %w", e.PlayerID, e.Gameweek, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save player errors tx: %w", err)
	}
	return nil
}

// SaveAgentPerformance upserts the rollup for one agent/gameweek,
// replacing the stored processed/failed counts with the values given:
// the caller passes its running totals on every event, so each call
// carries the full count so far.
func (r *LearningRepository) SaveAgentPerformance(ctx context.Context, perf learning.AgentPerformance) error {
	insertModel := agentPerformanceInsertModel{
		AgentName:       perf.AgentName,
		Gameweek:        perf.Gameweek,
		EventsProcessed: perf.EventsProcessed,
		EventsFailed:    perf.EventsFailed,
	}
	query, args, err := qb.InsertModel("agent_performance", insertModel, `ON CONFLICT (agent_name, gameweek)
DO UPDATE SET
    events_processed = EXCLUDED.events_processed,
    events_failed = EXCLUDED.events_failed`)
	if err != nil {
		return fmt.Errorf("build upsert agent performance query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert agent performance agent=%s gw=%d: %w", perf.AgentName, perf.Gameweek, err)
	}
	return nil
}
