package prediction_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
)

func TestBracket_ClassifiesByPriceThresholds(t *testing.T) {
	require.Equal(t, prediction.BracketPremium, prediction.Bracket(105))
	require.Equal(t, prediction.BracketPremium, prediction.Bracket(100))
	require.Equal(t, prediction.BracketMid, prediction.Bracket(60))
	require.Equal(t, prediction.BracketMid, prediction.Bracket(99))
	require.Equal(t, prediction.BracketBudget, prediction.Bracket(59))
}

func TestFallback_BlendsFormAndPointsPerGame(t *testing.T) {
	require.InDelta(t, 2.0, prediction.Fallback(2.0, 2.0), 0.0001)
	require.InDelta(t, 0.0, prediction.Fallback(0, 0), 0.0001)
}

func TestRecord_WithActualComputesSignedError(t *testing.T) {
	r := prediction.Record{PlayerID: "p1", Gameweek: 10, PredictedPoints: 5.0}
	withActual := r.WithActual(8.0)
	require.NotNil(t, withActual.ActualPoints)
	require.Equal(t, 8.0, *withActual.ActualPoints)
	require.NotNil(t, withActual.Error)
	require.Equal(t, 3.0, *withActual.Error)

	// original is untouched
	require.Nil(t, r.ActualPoints)
}

func TestApplyCorrection_FloorsAtZero(t *testing.T) {
	corrections := []prediction.BiasCorrection{
		{Position: "FWD", Bracket: prediction.BracketBudget, MeanError: -10.0},
	}
	require.Equal(t, 0.0, prediction.ApplyCorrection(3.0, corrections...))
}

func TestApplyCorrection_SumsMultipleCorrections(t *testing.T) {
	corrections := []prediction.BiasCorrection{
		{Position: "MID", Bracket: prediction.BracketMid, MeanError: 0.5},
		{Position: "MID", Bracket: prediction.BracketMid, MeanError: 0.3},
	}
	require.InDelta(t, 4.8, prediction.ApplyCorrection(4.0, corrections...), 0.0001)
}

func TestNewsAdjustmentFactor_UnavailableZeroesPrediction(t *testing.T) {
	require.Equal(t, 0.0, prediction.NewsAdjustmentFactor(0, false))
}

func TestNewsAdjustmentFactor_ScalesByChanceOfPlaying(t *testing.T) {
	require.InDelta(t, 0.75, prediction.NewsAdjustmentFactor(75, true), 0.0001)
	require.Equal(t, 1.0, prediction.NewsAdjustmentFactor(0, true))
	require.Equal(t, 1.0, prediction.NewsAdjustmentFactor(150, true))
}
