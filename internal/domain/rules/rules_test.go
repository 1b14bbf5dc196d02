package rules_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/rules"
)

func validSquad() []rules.SquadMember {
	return []rules.SquadMember{
		{PlayerID: "p1", TeamID: "t1", Position: player.PositionGoalkeeper, Price: 45},
		{PlayerID: "p2", TeamID: "t4", Position: player.PositionGoalkeeper, Price: 40},
		{PlayerID: "p3", TeamID: "t1", Position: player.PositionDefender, Price: 50},
		{PlayerID: "p4", TeamID: "t2", Position: player.PositionDefender, Price: 50},
		{PlayerID: "p5", TeamID: "t3", Position: player.PositionDefender, Price: 50},
		{PlayerID: "p6", TeamID: "t4", Position: player.PositionDefender, Price: 50},
		{PlayerID: "p7", TeamID: "t5", Position: player.PositionDefender, Price: 50},
		{PlayerID: "p8", TeamID: "t1", Position: player.PositionMidfielder, Price: 60},
		{PlayerID: "p9", TeamID: "t2", Position: player.PositionMidfielder, Price: 60},
		{PlayerID: "p10", TeamID: "t3", Position: player.PositionMidfielder, Price: 60},
		{PlayerID: "p11", TeamID: "t4", Position: player.PositionMidfielder, Price: 60},
		{PlayerID: "p12", TeamID: "t5", Position: player.PositionMidfielder, Price: 60},
		{PlayerID: "p13", TeamID: "t2", Position: player.PositionForward, Price: 70},
		{PlayerID: "p14", TeamID: "t3", Position: player.PositionForward, Price: 70},
		{PlayerID: "p15", TeamID: "t5", Position: player.PositionForward, Price: 55},
	}
}

func TestValidateSquad_ValidSquadHasNoErrors(t *testing.T) {
	errs := rules.ValidateSquad(validSquad(), rules.NewTeamBudget)
	require.Empty(t, errs)
}

func TestValidateSquad_CatchesEachViolation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func([]rules.SquadMember) []rules.SquadMember
		targetErr error
	}{
		{
			name: "wrong size",
			mutate: func(s []rules.SquadMember) []rules.SquadMember {
				return s[:14]
			},
			targetErr: rules.ErrInvalidSquadSize,
		},
		{
			name: "budget exceeded",
			mutate: func(s []rules.SquadMember) []rules.SquadMember {
				s[0].Price = 900
				return s
			},
			targetErr: rules.ErrExceededBudget,
		},
		{
			name: "team limit exceeded",
			mutate: func(s []rules.SquadMember) []rules.SquadMember {
				s[1].TeamID = "t1"
				return s
			},
			targetErr: rules.ErrExceededTeamLimit,
		},
		{
			name: "composition violated",
			mutate: func(s []rules.SquadMember) []rules.SquadMember {
				s[2].Position = player.PositionForward
				return s
			},
			targetErr: rules.ErrInvalidComposition,
		},
		{
			name: "duplicate player",
			mutate: func(s []rules.SquadMember) []rules.SquadMember {
				s[1].PlayerID = s[0].PlayerID
				return s
			},
			targetErr: rules.ErrDuplicatePlayerInSquad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			squad := append([]rules.SquadMember(nil), validSquad()...)
			squad = tt.mutate(squad)

			errs := rules.ValidateSquad(squad, rules.NewTeamBudget)
			require.NotEmpty(t, errs)

			var found bool
			for _, e := range errs {
				if errors.Is(e, tt.targetErr) {
					found = true
					break
				}
			}
			require.True(t, found, "expected %v among %v", tt.targetErr, errs)
		})
	}
}

func TestIsValidFormation_AllTenShapesAccepted(t *testing.T) {
	for _, f := range rules.ValidFormations() {
		require.True(t, rules.IsValidFormation(f.Defenders, f.Midfielders, f.Forwards))
	}
	require.Len(t, rules.ValidFormations(), 10)
}

func TestIsValidFormation_RejectsIllegalShape(t *testing.T) {
	require.False(t, rules.IsValidFormation(2, 5, 3))
	require.False(t, rules.IsValidFormation(6, 3, 1))
}

func startingXI(def, mid, fwd int) []rules.SquadMember {
	out := []rules.SquadMember{{PlayerID: "gk", Position: player.PositionGoalkeeper, TeamID: "t1"}}
	for i := 0; i < def; i++ {
		out = append(out, rules.SquadMember{PlayerID: "d" + string(rune('a'+i)), Position: player.PositionDefender, TeamID: "t2"})
	}
	for i := 0; i < mid; i++ {
		out = append(out, rules.SquadMember{PlayerID: "m" + string(rune('a'+i)), Position: player.PositionMidfielder, TeamID: "t3"})
	}
	for i := 0; i < fwd; i++ {
		out = append(out, rules.SquadMember{PlayerID: "f" + string(rune('a'+i)), Position: player.PositionForward, TeamID: "t4"})
	}
	return out
}

func TestValidateStartingXI_ValidFormationPasses(t *testing.T) {
	errs := rules.ValidateStartingXI(startingXI(4, 4, 2), nil)
	require.Empty(t, errs)
}

func TestValidateStartingXI_InvalidFormationFails(t *testing.T) {
	errs := rules.ValidateStartingXI(startingXI(2, 5, 3), nil)
	require.NotEmpty(t, errs)

	var found bool
	for _, e := range errs {
		if errors.Is(e, rules.ErrInvalidFormation) {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateStartingXI_RequestedFormationMismatch(t *testing.T) {
	want := rules.Formation{Defenders: 3, Midfielders: 5, Forwards: 2}
	errs := rules.ValidateStartingXI(startingXI(4, 4, 2), &want)
	require.NotEmpty(t, errs)
}

func TestCalculateBasePoints_DefenderCleanSheetAndDC(t *testing.T) {
	stats := rules.GameweekStats{
		Minutes:                       90,
		CleanSheets:                   1,
		ClearancesBlocksInterceptions: 8,
		Tackles:                       2,
	}
	points := rules.CalculateBasePoints(player.PositionDefender, stats)
	// 2 (play 60+) + 4 (clean sheet) + (8+2)/5=2 (DC) = 8
	require.Equal(t, 8, points)
}

func TestCalculateBasePoints_MidfielderGoalAndAssist(t *testing.T) {
	stats := rules.GameweekStats{Minutes: 75, GoalsScored: 1, Assists: 1}
	points := rules.CalculateBasePoints(player.PositionMidfielder, stats)
	// 2 (play 60+) + 5 (goal) + 3 (assist) = 10
	require.Equal(t, 10, points)
}

func TestCalculateBasePoints_GoalkeeperSavesAndConceded(t *testing.T) {
	stats := rules.GameweekStats{Minutes: 90, Saves: 6, GoalsConceded: 3}
	points := rules.CalculateBasePoints(player.PositionGoalkeeper, stats)
	// 2 (play) + 6/3=2 (saves) - 3/2=1*-1 (conceded) = 3
	require.Equal(t, 3, points)
}

func TestCalculateDefensiveContributionPoints_ForwardNeverScores(t *testing.T) {
	stats := rules.GameweekStats{ClearancesBlocksInterceptions: 20, Tackles: 20, Recoveries: 20}
	require.Equal(t, 0, rules.CalculateDefensiveContributionPoints(player.PositionForward, stats))
	require.Equal(t, 0, rules.CalculateDefensiveContributionPoints(player.PositionGoalkeeper, stats))
}

func TestValidateTransfer_PositionMismatchAndBudget(t *testing.T) {
	squad := validSquad()
	out := squad[2] // defender
	in := rules.SquadMember{PlayerID: "new", TeamID: "t1", Position: player.PositionMidfielder, Price: 999}

	errs := rules.ValidateTransfer(out, in, squad, 50)
	require.NotEmpty(t, errs)

	var sawPosition, sawBudget bool
	for _, e := range errs {
		if errors.Is(e, rules.ErrTransferPositionMismatch) {
			sawPosition = true
		}
		if errors.Is(e, rules.ErrExceededBudget) {
			sawBudget = true
		}
	}
	require.True(t, sawPosition)
	require.True(t, sawBudget)
}

func TestValidateTransfer_ValidSwapHasNoErrors(t *testing.T) {
	squad := validSquad()
	out := squad[2] // defender, team t1
	in := rules.SquadMember{PlayerID: "new", TeamID: "t6", Position: player.PositionDefender, Price: 50}

	errs := rules.ValidateTransfer(out, in, squad, 100)
	require.Empty(t, errs)
}

func TestBudgetRemaining_SubtractsSquadCost(t *testing.T) {
	squad := validSquad()
	remaining := rules.BudgetRemaining(squad, rules.NewTeamBudget)
	require.Equal(t, rules.NewTeamBudget-rules.SquadCost(squad), remaining)
}
