// Package decision models the append-only decision record written by the
// decision coordinator (§3 Decision record, §4.12).
package decision

import "time"

// Kind tags the category of decision being recorded.
type Kind string

const (
	KindTeamSelection  Kind = "team-selection"
	KindTransfer       Kind = "transfer"
	KindCaptainChoice  Kind = "captain-choice"
	KindChipUsed       Kind = "chip-used"
)

// Record is a single append-only decision entry. Once written it is
// never mutated.
type Record struct {
	Gameweek      int
	Kind          Kind
	Data          map[string]any
	Reasoning     string
	ExpectedValue float64
	Confidence    float64
	ProducedBy    string
	CreatedAt     time.Time
}

// Strategy is the week's posture, derived from competitive gap (§4.9).
type Strategy string

const (
	StrategyDefensive              Strategy = "defensive"
	StrategyBalanced               Strategy = "balanced"
	StrategyBalancedDifferentials  Strategy = "balanced-differentials"
	StrategyAggressiveDifferentials Strategy = "aggressive-differentials"
)

// CompetitiveContext is the coordinator/synthesis engine's view of league
// standing relative to a rival (typically the leader).
type CompetitiveContext struct {
	CurrentRank int
	GapToLeader float64 // positive: ahead; negative: behind
}

// aggressive/balanced-differentials thresholds from §4.9.
const (
	aggressiveGapThreshold             = 200.0
	balancedDifferentialsGapThreshold = 50.0
)

// ClassifyStrategy implements §4.9's strategy determination:
// gap >= 0 -> defensive; |gap| > 200 -> aggressive; |gap| > 50 ->
// balanced-differentials; otherwise balanced.
func ClassifyStrategy(ctx CompetitiveContext) Strategy {
	gap := ctx.GapToLeader
	if gap >= 0 {
		return StrategyDefensive
	}
	abs := -gap
	switch {
	case abs > aggressiveGapThreshold:
		return StrategyAggressiveDifferentials
	case abs > balancedDifferentialsGapThreshold:
		return StrategyBalancedDifferentials
	default:
		return StrategyBalanced
	}
}

// WantsDifferentialCaptain reports whether the posture is aggressive
// enough to warrant offering a differential captain alternative
// alongside the primary recommendation (§4.9: "when posture >=
// aggressive").
func (s Strategy) WantsDifferentialCaptain() bool {
	return s == StrategyAggressiveDifferentials
}

// PlayerPrediction pairs a player with an expected-points figure, the
// common currency of the synthesis and optimizer stages.
type PlayerPrediction struct {
	PlayerID        string
	Position        string
	TeamID          string
	ExpectedPoints  float64
	OwnershipPercent float64
}

// CaptainPick names the primary captain recommendation and, when the
// posture calls for it, a differential alternative.
type CaptainPick struct {
	PrimaryPlayerID     string
	DifferentialPlayerID string
}

// Rankings is the synthesis engine's output record for a target
// gameweek (§4.9).
type Rankings struct {
	Gameweek         int
	Strategy         Strategy
	TopValue         []PlayerPrediction
	Captain          CaptainPick
	TemplateRisks    []string // high-ownership players not on a bad-news list
	TransferTargets  map[string][]PlayerPrediction // keyed by position
}
