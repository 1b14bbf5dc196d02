// Package chip models FPL's chip system: each of the four chip kinds is
// available twice per season, the first instance spendable only in the
// first half (before the mid-season reset gameweek) and the second only
// from that gameweek onward.
package chip

import (
	"time"

	crerr "github.com/cockroachdb/errors"
)

// Kind is one of the four FPL chips.
type Kind string

const (
	KindWildcard      Kind = "wildcard"
	KindBenchBoost    Kind = "bboost"
	KindTripleCaptain Kind = "3xc"
	KindFreeHit       Kind = "freehit"
)

var allKinds = map[Kind]struct{}{
	KindWildcard: {}, KindBenchBoost: {}, KindTripleCaptain: {}, KindFreeHit: {},
}

func (k Kind) Known() bool {
	_, ok := allKinds[k]
	return ok
}

// MidSeasonResetGameweek is the gameweek at which each chip's second
// instance becomes available and the first instance's deadline passes.
const MidSeasonResetGameweek = 20

var (
	ErrUnknownChipKind = crerr.New("unknown chip kind")
	ErrChipNotUsable   = crerr.New("chip is not currently usable")
)

// Usage records one spent chip instance.
type Usage struct {
	TeamID    string
	Kind      Kind
	Instance  int // 1 or 2
	Gameweek  int
	UsedAt    time.Time
}

// Inventory tracks a team's chip spend across the season.
type Inventory struct {
	TeamID string
	Used   []Usage
}

// instanceWindow returns whether instance (1 or 2) of a chip is usable at
// gameweek, given the mid-season reset.
func instanceWindow(instance, gameweek int) bool {
	switch instance {
	case 1:
		return gameweek < MidSeasonResetGameweek
	case 2:
		return gameweek >= MidSeasonResetGameweek
	default:
		return false
	}
}

// usedInstances returns the set of instance numbers already spent for kind.
func (inv Inventory) usedInstances(kind Kind) map[int]struct{} {
	out := map[int]struct{}{}
	for _, u := range inv.Used {
		if u.Kind == kind {
			out[u.Instance] = struct{}{}
		}
	}
	return out
}

// Available reports whether kind has an unused instance usable at
// gameweek, and which instance number it would be.
func (inv Inventory) Available(kind Kind, gameweek int) (instance int, ok bool) {
	used := inv.usedInstances(kind)
	for _, candidate := range []int{1, 2} {
		if _, spent := used[candidate]; spent {
			continue
		}
		if instanceWindow(candidate, gameweek) {
			return candidate, true
		}
	}
	return 0, false
}

// Spend records kind as used at gameweek, choosing whichever instance is
// currently available. Returns ErrChipNotUsable if none is.
func (inv Inventory) Spend(kind Kind, gameweek int, usedAt time.Time) (Inventory, error) {
	if !kind.Known() {
		return inv, crerr.Wrapf(ErrUnknownChipKind, "%s", kind)
	}
	instance, ok := inv.Available(kind, gameweek)
	if !ok {
		return inv, crerr.Wrapf(ErrChipNotUsable, "%s at gw%d", kind, gameweek)
	}

	next := inv
	next.Used = append(append([]Usage(nil), inv.Used...), Usage{
		TeamID:   inv.TeamID,
		Kind:     kind,
		Instance: instance,
		Gameweek: gameweek,
		UsedAt:   usedAt,
	})
	return next, nil
}

// RemainingCount returns the total number of unspent chip instances across
// all four kinds, used for league-relative chip-advantage comparisons.
func (inv Inventory) RemainingCount(gameweek int) int {
	total := 0
	for kind := range allKinds {
		used := inv.usedInstances(kind)
		for _, instance := range []int{1, 2} {
			if _, spent := used[instance]; !spent {
				total++
			}
		}
	}
	return total
}
