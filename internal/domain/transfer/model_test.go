package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/transfer"
)

func optionWithGain(totalGainPerGW float64, gws int) transfer.Option {
	preds := make([]transfer.GWPrediction, gws)
	for i := range preds {
		preds[i] = transfer.GWPrediction{Gameweek: i + 1, ExpectedOut: 0, ExpectedIn: totalGainPerGW}
	}
	return transfer.Option{Position: player.PositionMidfielder, Predictions: preds}
}

func TestOption_TotalAndAvgGain(t *testing.T) {
	opt := optionWithGain(3.0, 4)
	require.Equal(t, 12.0, opt.TotalGain())
	require.Equal(t, 3.0, opt.AvgGainPerGW())
}

func TestOption_NoPredictionsYieldsZeroAvg(t *testing.T) {
	opt := transfer.Option{}
	require.Equal(t, 0.0, opt.AvgGainPerGW())
}

func TestRankOptions_SortsDescendingByTotalGain(t *testing.T) {
	low := optionWithGain(1.0, 4)
	high := optionWithGain(5.0, 4)
	mid := optionWithGain(2.5, 4)

	ranked := transfer.RankOptions([]transfer.Option{low, high, mid})
	require.Equal(t, high.TotalGain(), ranked[0].TotalGain())
	require.Equal(t, mid.TotalGain(), ranked[1].TotalGain())
	require.Equal(t, low.TotalGain(), ranked[2].TotalGain())
}

func TestDecide_ChipDeferWinsOutright(t *testing.T) {
	best := optionWithGain(10.0, 4)
	decision := transfer.Decide(&best, 1, &transfer.ChipAlternative{Wins: true, DeferTransfers: true, ExpectedValue: 20})
	require.Equal(t, transfer.ActionChip, decision.Action)
}

func TestDecide_NoOptionRolls(t *testing.T) {
	decision := transfer.Decide(nil, 1, nil)
	require.Equal(t, transfer.ActionRoll, decision.Action)
}

func TestDecide_BelowThresholdRolls(t *testing.T) {
	opt := optionWithGain(1.0, 4)
	decision := transfer.Decide(&opt, 1, nil)
	require.Equal(t, transfer.ActionRoll, decision.Action)
}

func TestDecide_FreeTransferAvailableAndAboveThresholdMakes(t *testing.T) {
	opt := optionWithGain(2.5, 4)
	decision := transfer.Decide(&opt, 1, nil)
	require.Equal(t, transfer.ActionMake, decision.Action)
}

func TestDecide_NoFreeTransferButWorthHitMakes(t *testing.T) {
	opt := optionWithGain(4.5, 4)
	decision := transfer.Decide(&opt, 0, nil)
	require.Equal(t, transfer.ActionMake, decision.Action)
}

func TestDecide_NoFreeTransferAndNotWorthHitRolls(t *testing.T) {
	opt := optionWithGain(3.0, 4)
	decision := transfer.Decide(&opt, 0, nil)
	require.Equal(t, transfer.ActionRoll, decision.Action)
}
