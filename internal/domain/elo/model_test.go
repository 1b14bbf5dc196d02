package elo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-league/internal/domain/elo"
)

func TestNewRatings_SeedsBaseRatingBothSides(t *testing.T) {
	r := elo.NewRatings()
	require.Equal(t, elo.BaseRating, r.Attacking)
	require.Equal(t, elo.BaseRating, r.Defensive)
	require.Equal(t, elo.BaseRating, r.Overall())
}

func TestExpectedScore_HomeAdvantageLiftsEqualTeams(t *testing.T) {
	home := elo.ExpectedScore(1500, 1500, true)
	away := elo.ExpectedScore(1500, 1500, false)
	require.Greater(t, home, 0.5)
	require.Equal(t, 0.5, away)
}

func TestExpectedScore_StrongerTeamFavoured(t *testing.T) {
	favourite := elo.ExpectedScore(1700, 1400, false)
	underdog := elo.ExpectedScore(1400, 1700, false)
	require.Greater(t, favourite, 0.5)
	require.Less(t, underdog, 0.5)
	require.InDelta(t, 1.0, favourite+underdog, 0.0001)
}

func TestUpdateFromMatch_WinnerGainsLoserDrops(t *testing.T) {
	home := elo.NewRatings()
	away := elo.NewRatings()

	newHome, newAway, homeChange, awayChange := elo.UpdateFromMatch(home, away, 2, 1)

	require.Greater(t, newHome.Attacking, home.Attacking)
	require.Greater(t, newHome.Defensive, home.Defensive)
	require.Less(t, newAway.Attacking, away.Attacking)
	require.Less(t, newAway.Defensive, away.Defensive)

	require.InDelta(t, 4.58, homeChange.Attacking, 0.1)
	require.InDelta(t, 2.06, homeChange.Defensive, 0.1)
	require.InDelta(t, -2.06, awayChange.Attacking, 0.1)
	require.InDelta(t, -4.58, awayChange.Defensive, 0.1)
}

func TestUpdateFromMatch_DrawMovesRatingsTowardExpectation(t *testing.T) {
	home := elo.Ratings{Attacking: 1600, Defensive: 1600}
	away := elo.Ratings{Attacking: 1400, Defensive: 1400}

	newHome, newAway, _, _ := elo.UpdateFromMatch(home, away, 1, 1)

	// The stronger home side was expected to win comfortably; a 1-1 draw
	// is an under-performance relative to that expectation.
	require.Less(t, newHome.Attacking, home.Attacking)
	require.Greater(t, newAway.Attacking, away.Attacking)
}

func TestFixtureDifficulty_HomeEasierThanAwayAgainstEqualOpponent(t *testing.T) {
	opponent := elo.NewRatings()

	homeDifficulty := elo.FixtureDifficulty(opponent, true, true)
	awayDifficulty := elo.FixtureDifficulty(opponent, false, true)

	require.InDelta(t, 2.75, homeDifficulty, 0.0001)
	require.InDelta(t, 3.25, awayDifficulty, 0.0001)
	require.Less(t, homeDifficulty, awayDifficulty)
}

func TestFixtureDifficulty_ClampedToFivePointScale(t *testing.T) {
	fortress := elo.Ratings{Attacking: 1500, Defensive: 2500}
	require.Equal(t, 5.0, elo.FixtureDifficulty(fortress, false, true))

	pushover := elo.Ratings{Attacking: 1500, Defensive: 500}
	require.Equal(t, 1.0, elo.FixtureDifficulty(pushover, false, true))
}

func TestFixtureDifficulty_DefensiveRatingUsesOpponentAttack(t *testing.T) {
	strongAttack := elo.Ratings{Attacking: 1700, Defensive: 1500}
	difficulty := elo.FixtureDifficulty(strongAttack, true, false)
	require.Greater(t, difficulty, 3.0)
}
