// Package transfer models a single proposed player swap, its multi-
// gameweek value, and the roll/make/hit decision the optimizer produces
// from a ranked set of options.
package transfer

import (
	"sort"

	"github.com/riskibarqy/fantasy-league/internal/domain/player"
)

// Action is the optimizer's top-level recommendation.
type Action string

const (
	ActionRoll Action = "ROLL"
	ActionMake Action = "MAKE"
	ActionChip Action = "CHIP"
)

// Per-gameweek predicted points thresholds that govern the roll/make/hit
// decision, grounded on the original optimizer's fixed cutoffs.
const (
	MinAvgGainPerGWForFreeTransfer = 2.0
	MinAvgGainPerGWForHit          = 4.0
	HitCostPoints                  = 4
	DefaultHorizon                 = 4
)

// GWPrediction is one gameweek's predicted-points comparison between the
// outgoing and incoming player.
type GWPrediction struct {
	Gameweek  int
	ExpectedOut float64
	ExpectedIn  float64
}

// Option is a single transfer candidate with its full multi-gameweek
// value case.
type Option struct {
	Position       player.Position
	PlayerOutID    string
	PlayerOutPrice int64
	PlayerInID     string
	PlayerInPrice  int64
	Predictions    []GWPrediction
	PriceChangeUrgency string // HIGH, MEDIUM, LOW
}

// TotalGain sums (ExpectedIn - ExpectedOut) across every predicted
// gameweek.
func (o Option) TotalGain() float64 {
	var total float64
	for _, p := range o.Predictions {
		total += p.ExpectedIn - p.ExpectedOut
	}
	return total
}

// AvgGainPerGW is TotalGain spread across the number of predicted
// gameweeks; zero predictions yields zero, not a division panic.
func (o Option) AvgGainPerGW() float64 {
	if len(o.Predictions) == 0 {
		return 0
	}
	return o.TotalGain() / float64(len(o.Predictions))
}

// RankOptions sorts options by TotalGain, best first. The caller
// truncates to however many it wants to surface per position before
// combining across positions.
func RankOptions(options []Option) []Option {
	out := append([]Option(nil), options...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalGain() > out[j].TotalGain()
	})
	return out
}

// ChipAlternative is the transfer optimizer's view of a chip-vs-transfer
// comparison, fed by the chip domain's recommendation logic.
type ChipAlternative struct {
	Wins           bool
	DeferTransfers bool // true for wildcard/free hit: skip transfers entirely
	ExpectedValue  float64
}

// Decision is the optimizer's final roll/make/chip recommendation plus
// the human-readable reasoning the original surfaces verbatim to the
// manager.
type Decision struct {
	Action    Action
	Reasoning string
}

// Decide applies the fixed roll/make/hit/chip thresholds to the best
// ranked option, mirroring the original's decision hierarchy: a deferring
// chip recommendation wins outright; otherwise free-transfer and hit
// thresholds decide between MAKE and ROLL.
func Decide(best *Option, freeTransfers int, chipAlt *ChipAlternative) Decision {
	if chipAlt != nil && chipAlt.Wins && chipAlt.DeferTransfers {
		return Decision{
			Action:    ActionChip,
			Reasoning: "chip recommended over transfer: higher expected value than the best transfer option",
		}
	}

	if best == nil {
		return Decision{Action: ActionRoll, Reasoning: "no beneficial transfer options found"}
	}

	avgGain := best.AvgGainPerGW()

	if avgGain < MinAvgGainPerGWForFreeTransfer {
		return Decision{
			Action:    ActionRoll,
			Reasoning: "best option's gain per gameweek is below the free-transfer threshold; roll to build banked transfers",
		}
	}

	if freeTransfers >= 1 {
		return Decision{Action: ActionMake, Reasoning: "best option clears the free-transfer threshold"}
	}

	if avgGain >= MinAvgGainPerGWForHit {
		return Decision{Action: ActionMake, Reasoning: "best option's gain per gameweek justifies taking a point hit"}
	}

	return Decision{Action: ActionRoll, Reasoning: "gain does not justify a point hit with no free transfers available"}
}
