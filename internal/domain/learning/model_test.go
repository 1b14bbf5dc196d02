package learning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-league/internal/domain/learning"
	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
)

func TestAggregateBiasCorrections_GroupsByPositionAndBracket(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	resolved := []learning.ResolvedPrediction{
		{PlayerID: "p1", Position: "FWD", Price: 120, Predicted: 5, Actual: 8},
		{PlayerID: "p2", Position: "FWD", Price: 110, Predicted: 4, Actual: 2},
		{PlayerID: "p3", Position: "DEF", Price: 45, Predicted: 3, Actual: 3},
	}

	corrections := learning.AggregateBiasCorrections(resolved, now)
	require.Len(t, corrections, 2)

	byKey := make(map[string]prediction.BiasCorrection)
	for _, c := range corrections {
		byKey[c.Key()] = c
	}

	fwdPremium := byKey["FWD:premium"]
	require.Equal(t, 2, fwdPremium.SampleCount)
	require.InDelta(t, 0.5, fwdPremium.MeanError, 0.0001) // (3 + -2) / 2

	defBudget := byKey["DEF:budget"]
	require.Equal(t, 1, defBudget.SampleCount)
	require.InDelta(t, 0.0, defBudget.MeanError, 0.0001)
}

func TestMergeBiasCorrections_FreshOverridesExistingKey(t *testing.T) {
	existing := []prediction.BiasCorrection{
		{Position: "MID", Bracket: prediction.BracketMid, MeanError: 1.0, SampleCount: 5},
	}
	fresh := []prediction.BiasCorrection{
		{Position: "MID", Bracket: prediction.BracketMid, MeanError: 2.0, SampleCount: 8},
		{Position: "GK", Bracket: prediction.BracketBudget, MeanError: -0.5, SampleCount: 3},
	}

	merged := learning.MergeBiasCorrections(existing, fresh)
	require.Len(t, merged, 2)

	byKey := make(map[string]prediction.BiasCorrection)
	for _, c := range merged {
		byKey[c.Key()] = c
	}
	require.Equal(t, 2.0, byKey["MID:mid"].MeanError)
	require.Equal(t, 8, byKey["MID:mid"].SampleCount)
	require.Equal(t, -0.5, byKey["GK:budget"].MeanError)
}

func TestComputePlayerErrors_OneRecordPerResolvedPrediction(t *testing.T) {
	resolved := []learning.ResolvedPrediction{
		{PlayerID: "p1", Predicted: 4, Actual: 6},
	}
	errs := learning.ComputePlayerErrors(15, resolved)
	require.Len(t, errs, 1)
	require.Equal(t, "p1", errs[0].PlayerID)
	require.Equal(t, 15, errs[0].Gameweek)
	require.Equal(t, 2.0, errs[0].Error)
}
