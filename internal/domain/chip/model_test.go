package chip_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-league/internal/domain/chip"
)

func TestAvailable_FirstInstanceOfferedBeforeReset(t *testing.T) {
	inv := chip.Inventory{TeamID: "t1"}

	instance, ok := inv.Available(chip.KindWildcard, 5)
	require.True(t, ok)
	require.Equal(t, 1, instance)
}

func TestAvailable_OffersSecondInstanceOnceFirstIsSpent(t *testing.T) {
	inv := chip.Inventory{TeamID: "t1"}
	inv, err := inv.Spend(chip.KindWildcard, 5, time.Unix(0, 0))
	require.NoError(t, err)

	instance, ok := inv.Available(chip.KindWildcard, chip.MidSeasonResetGameweek)
	require.True(t, ok)
	require.Equal(t, 2, instance)

	_, ok = inv.Available(chip.KindWildcard, 10)
	require.False(t, ok, "instance 1 already spent and instance 2's window has not opened yet")
}

func TestSpend_ThenSecondInstanceAvailableAfterReset(t *testing.T) {
	inv := chip.Inventory{TeamID: "t1"}

	after, err := inv.Spend(chip.KindBenchBoost, 8, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, after.Used, 1)
	require.Equal(t, 1, after.Used[0].Instance)

	instance, ok := after.Available(chip.KindBenchBoost, chip.MidSeasonResetGameweek)
	require.True(t, ok)
	require.Equal(t, 2, instance)
}

func TestSpend_UnknownKindFails(t *testing.T) {
	inv := chip.Inventory{TeamID: "t1"}
	_, err := inv.Spend(chip.Kind("bogus"), 5, time.Unix(0, 0))
	require.ErrorIs(t, err, chip.ErrUnknownChipKind)
}

func TestSpend_NotUsableWhenBothInstancesSpent(t *testing.T) {
	inv := chip.Inventory{TeamID: "t1"}
	inv, err := inv.Spend(chip.KindFreeHit, 5, time.Unix(0, 0))
	require.NoError(t, err)
	inv, err = inv.Spend(chip.KindFreeHit, 25, time.Unix(0, 0))
	require.NoError(t, err)

	_, err = inv.Spend(chip.KindFreeHit, 30, time.Unix(0, 0))
	require.ErrorIs(t, err, chip.ErrChipNotUsable)
}

func TestRemainingCount_StartsAtEight(t *testing.T) {
	inv := chip.Inventory{TeamID: "t1"}
	require.Equal(t, 8, inv.RemainingCount(1))
}

func TestRemainingCount_DecrementsPerSpend(t *testing.T) {
	inv := chip.Inventory{TeamID: "t1"}
	inv, err := inv.Spend(chip.KindWildcard, 5, time.Unix(0, 0))
	require.NoError(t, err)
	require.Equal(t, 7, inv.RemainingCount(5))
}
