package decision_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
)

func TestClassifyStrategy_NonNegativeGapIsDefensive(t *testing.T) {
	require.Equal(t, decision.StrategyDefensive, decision.ClassifyStrategy(decision.CompetitiveContext{GapToLeader: 0}))
	require.Equal(t, decision.StrategyDefensive, decision.ClassifyStrategy(decision.CompetitiveContext{GapToLeader: 50}))
}

func TestClassifyStrategy_LargeDeficitIsAggressive(t *testing.T) {
	s := decision.ClassifyStrategy(decision.CompetitiveContext{GapToLeader: -201})
	require.Equal(t, decision.StrategyAggressiveDifferentials, s)
	require.True(t, s.WantsDifferentialCaptain())
}

func TestClassifyStrategy_ModerateDeficitIsBalancedDifferentials(t *testing.T) {
	s := decision.ClassifyStrategy(decision.CompetitiveContext{GapToLeader: -51})
	require.Equal(t, decision.StrategyBalancedDifferentials, s)
	require.False(t, s.WantsDifferentialCaptain())
}

func TestClassifyStrategy_SmallDeficitIsBalanced(t *testing.T) {
	require.Equal(t, decision.StrategyBalanced, decision.ClassifyStrategy(decision.CompetitiveContext{GapToLeader: -10}))
}

func TestClassifyStrategy_BoundaryValuesAreExclusive(t *testing.T) {
	require.Equal(t, decision.StrategyBalanced, decision.ClassifyStrategy(decision.CompetitiveContext{GapToLeader: -50}))
	require.Equal(t, decision.StrategyBalancedDifferentials, decision.ClassifyStrategy(decision.CompetitiveContext{GapToLeader: -200}))
}
