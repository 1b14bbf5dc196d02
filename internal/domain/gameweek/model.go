// Package gameweek models a single FPL gameweek and its deadline.
package gameweek

import "time"

// Gameweek is one scheduling unit of the season.
type Gameweek struct {
	ID          string
	Number      int
	DeadlineAt  time.Time
	IsCurrent   bool
	IsNext      bool
	Finished    bool
	DataChecked bool
}

// DeadlineTrigger is one of the scheduler's fixed lead times before a
// deadline (§4.4 CheckDeadlines).
type DeadlineTrigger string

const (
	Trigger48h DeadlineTrigger = "48h"
	Trigger24h DeadlineTrigger = "24h"
	Trigger6h  DeadlineTrigger = "6h"
)

// triggerOffsets maps each trigger to how long before the deadline it
// fires.
var triggerOffsets = map[DeadlineTrigger]time.Duration{
	Trigger48h: 48 * time.Hour,
	Trigger24h: 24 * time.Hour,
	Trigger6h:  6 * time.Hour,
}

// AllTriggers returns the three deadline triggers in firing order
// (furthest from deadline first).
func AllTriggers() []DeadlineTrigger {
	return []DeadlineTrigger{Trigger48h, Trigger24h, Trigger6h}
}

// TriggerTime returns the instant at which trigger should fire for this
// gameweek's deadline.
func (g Gameweek) TriggerTime(trigger DeadlineTrigger) time.Time {
	return g.DeadlineAt.Add(-triggerOffsets[trigger])
}

// DueTriggers returns every trigger whose fire time has passed as of now
// but whose window has not yet closed (the next trigger, if any, has not
// also passed) — the scheduler's caller is responsible for deduplicating
// repeated emissions within a window (§9 Open Questions).
func (g Gameweek) DueTriggers(now time.Time) []DeadlineTrigger {
	var due []DeadlineTrigger
	triggers := AllTriggers()
	for i, t := range triggers {
		if now.Before(g.TriggerTime(t)) || !now.Before(g.DeadlineAt) {
			continue
		}
		if i+1 < len(triggers) && !now.Before(g.TriggerTime(triggers[i+1])) {
			continue
		}
		due = append(due, t)
	}
	return due
}
