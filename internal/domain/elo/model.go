// Package elo computes team attacking and defensive strength ratings from
// match results, replacing the upstream's static 1-5 fixture difficulty
// with a learned rating (§ SUPPLEMENTED FEATURES: Elo-based team strength).
package elo

import "math"

// BaseRating is the seed Elo assigned to a team with no result history.
const BaseRating = 1500.0

// KFactor controls how sharply a single match result moves a rating.
const KFactor = 32.0

// HomeAdvantage is added to a team's effective rating while playing at
// home.
const HomeAdvantage = 100.0

// baseExpectedGoals is the Premier League average goals scored per team
// per match, used as the zero point of the Elo-to-expected-goals curve.
const baseExpectedGoals = 1.4

// eloToGoalsDivisor converts an Elo difference into an expected goals
// adjustment: every 300 Elo points shifts expected goals by 1.0.
const eloToGoalsDivisor = 300.0

// minExpectedGoals floors the expected-goals curve so a team never has a
// vanishing expectation to score against.
const minExpectedGoals = 0.5

// performanceRatio is clamped to this range before being log-scaled into
// an Elo change, so one freak scoreline cannot swing a rating wildly.
const (
	minPerformanceRatio = 0.2
	maxPerformanceRatio = 5.0
)

// Ratings holds a team's separate attacking and defensive Elo.
type Ratings struct {
	Attacking float64
	Defensive float64
}

// NewRatings returns the seed ratings for a team with no history.
func NewRatings() Ratings {
	return Ratings{Attacking: BaseRating, Defensive: BaseRating}
}

// Overall averages the two components into a single strength figure.
func (r Ratings) Overall() float64 {
	return (r.Attacking + r.Defensive) / 2
}

// Changes is the per-match Elo delta applied to one side.
type Changes struct {
	Attacking float64
	Defensive float64
}

// Total is the net rating movement across both components.
func (c Changes) Total() float64 {
	return c.Attacking + c.Defensive
}

// expectedGoals converts an attacking-minus-defensive Elo difference into
// an expected goals figure for that side of the match.
func expectedGoals(eloDiff float64) float64 {
	return math.Max(minExpectedGoals, baseExpectedGoals+eloDiff/eloToGoalsDivisor)
}

// performanceToChange converts a ratio of actual-to-expected performance
// into a log-scaled Elo change: 1.0 means no change, >1.0 an increase,
// <1.0 a decrease.
func performanceToChange(ratio float64) float64 {
	capped := math.Max(minPerformanceRatio, math.Min(maxPerformanceRatio, ratio))
	return KFactor * math.Log(capped)
}

// ExpectedScore is the win probability (draws counted as 0.5) implied by
// two overall ratings, with home advantage applied when isHome is true.
func ExpectedScore(teamElo, opponentElo float64, isHome bool) float64 {
	if isHome {
		teamElo += HomeAdvantage
	}
	return 1 / (1 + math.Pow(10, (opponentElo-teamElo)/400))
}

// UpdateFromMatch computes the new ratings for both sides of a played
// fixture along with the deltas that produced them.
func UpdateFromMatch(home, away Ratings, homeGoals, awayGoals int) (newHome, newAway Ratings, homeChange, awayChange Changes) {
	homeAttackStrength := home.Attacking + HomeAdvantage
	awayDefenseStrength := away.Defensive

	awayAttackStrength := away.Attacking
	homeDefenseStrength := home.Defensive + HomeAdvantage

	homeExpected := expectedGoals(homeAttackStrength - awayDefenseStrength)
	awayExpected := expectedGoals(awayAttackStrength - homeDefenseStrength)

	homeAttackPerf := float64(homeGoals) / math.Max(homeExpected, minExpectedGoals)
	awayAttackPerf := float64(awayGoals) / math.Max(awayExpected, minExpectedGoals)

	// Defensive performance is inverted: conceding fewer than expected is
	// an over-performance.
	homeDefensePerf := awayExpected / math.Max(float64(awayGoals), minExpectedGoals)
	awayDefensePerf := homeExpected / math.Max(float64(homeGoals), minExpectedGoals)

	homeChange = Changes{
		Attacking: performanceToChange(homeAttackPerf),
		Defensive: performanceToChange(homeDefensePerf),
	}
	awayChange = Changes{
		Attacking: performanceToChange(awayAttackPerf),
		Defensive: performanceToChange(awayDefensePerf),
	}

	newHome = Ratings{
		Attacking: home.Attacking + homeChange.Attacking,
		Defensive: home.Defensive + homeChange.Defensive,
	}
	newAway = Ratings{
		Attacking: away.Attacking + awayChange.Attacking,
		Defensive: away.Defensive + awayChange.Defensive,
	}
	return newHome, newAway, homeChange, awayChange
}

// FixtureDifficulty rates an upcoming fixture on a 1 (easiest) to 5
// (hardest) scale, mirroring the upstream's difficulty rating but derived
// from the opponent's learned Elo rather than a static table.
//
// forAttackers rates the difficulty of scoring against the opponent's
// defense; otherwise it rates the difficulty of keeping a clean sheet
// against the opponent's attack.
func FixtureDifficulty(opponent Ratings, isHome, forAttackers bool) float64 {
	var opponentStrength float64
	if forAttackers {
		opponentStrength = opponent.Defensive
	} else {
		opponentStrength = opponent.Attacking
	}

	if isHome {
		opponentStrength -= HomeAdvantage / 2
	} else {
		opponentStrength += HomeAdvantage / 2
	}

	difficulty := 3.0 + (opponentStrength-BaseRating)/200
	return math.Max(1.0, math.Min(5.0, difficulty))
}
