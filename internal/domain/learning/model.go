// Package learning implements the pure aggregation behind the learning
// store (§4.13): turning resolved predictions into updated bias
// correction tables keyed by position and price bracket.
package learning

import (
	"time"

	"github.com/riskibarqy/fantasy-league/internal/domain/prediction"
)

// ResolvedPrediction is one prediction joined with its observed outcome,
// the input to bias aggregation.
type ResolvedPrediction struct {
	PlayerID     string
	Position     string
	Price        int64
	Predicted    float64
	Actual       float64
}

// Error is Actual - Predicted, positive when the model under-predicted.
func (r ResolvedPrediction) Error() float64 {
	return r.Actual - r.Predicted
}

// bucket accumulates error for one (position, bracket) key.
type bucket struct {
	position string
	bracket  prediction.PriceBracket
	sum      float64
	count    int
}

// AggregateBiasCorrections groups resolved predictions by (position,
// price bracket) and computes the mean error for each group, the
// additive correction the prediction service will apply to future raw
// predictions (§4.13).
func AggregateBiasCorrections(resolved []ResolvedPrediction, now time.Time) []prediction.BiasCorrection {
	buckets := make(map[string]*bucket)
	order := make([]string, 0, len(resolved))

	for _, r := range resolved {
		b := prediction.Bracket(r.Price)
		key := r.Position + ":" + string(b)
		existing, ok := buckets[key]
		if !ok {
			existing = &bucket{position: r.Position, bracket: b}
			buckets[key] = existing
			order = append(order, key)
		}
		existing.sum += r.Error()
		existing.count++
	}

	corrections := make([]prediction.BiasCorrection, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		corrections = append(corrections, prediction.BiasCorrection{
			Position:    b.position,
			Bracket:     b.bracket,
			MeanError:   b.sum / float64(b.count),
			SampleCount: b.count,
			UpdatedAt:   now,
		})
	}
	return corrections
}

// MergeBiasCorrections folds freshly computed corrections into the
// existing table, replacing any (position, bracket) key the new batch
// covers and keeping the rest untouched.
func MergeBiasCorrections(existing, fresh []prediction.BiasCorrection) []prediction.BiasCorrection {
	byKey := make(map[string]prediction.BiasCorrection, len(existing)+len(fresh))
	order := make([]string, 0, len(existing)+len(fresh))

	for _, c := range existing {
		if _, ok := byKey[c.Key()]; !ok {
			order = append(order, c.Key())
		}
		byKey[c.Key()] = c
	}
	for _, c := range fresh {
		if _, ok := byKey[c.Key()]; !ok {
			order = append(order, c.Key())
		}
		byKey[c.Key()] = c
	}

	merged := make([]prediction.BiasCorrection, 0, len(order))
	for _, key := range order {
		merged = append(merged, byKey[key])
	}
	return merged
}

// PlayerError is the per-player error record §4.13 describes computing
// on gameweek completion, before it is rolled up into the bucket means
// above.
type PlayerError struct {
	PlayerID string
	Gameweek int
	Error    float64
}

// ComputePlayerErrors derives a per-player error record from each
// resolved prediction, for storage alongside the aggregated buckets.
func ComputePlayerErrors(gameweek int, resolved []ResolvedPrediction) []PlayerError {
	out := make([]PlayerError, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, PlayerError{PlayerID: r.PlayerID, Gameweek: gameweek, Error: r.Error()})
	}
	return out
}
