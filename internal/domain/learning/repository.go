package learning

import "context"

// AgentPerformance is a rollup of one agent's handled/failed event counts
// for the ops surface and for `agent_performance` (§6.3).
type AgentPerformance struct {
	AgentName       string
	Gameweek        int
	EventsProcessed int
	EventsFailed    int
}

// Repository persists learning-store outputs: per-player errors and agent
// performance rollups. Bias correction tables are persisted through
// prediction.Repository.
type Repository interface {
	SavePlayerErrors(ctx context.Context, errs []PlayerError) error
	SaveAgentPerformance(ctx context.Context, perf AgentPerformance) error
}
