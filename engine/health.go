/*
health.go - Lazy decay settlement and care boosts

PURPOSE:
  Owns every transition of an animal's health. There are exactly two:

    DECAY - time-driven, monotonically non-increasing between care events
    BOOST - event-driven, from a care action

  Decay is settled lazily: SettleDecay runs before every read or mutation
  that depends on current health. There is no background ticker.

DECAY MODEL:
  Health drains at 5/24 points per hour unfed plus 10/24 points per hour
  unwatered. The drains are anchored at LastFed/LastWatered and the floor
  is taken over the cumulative total, so settling in several steps lands on
  exactly the same health as settling once over the whole span. Without the
  anchoring, per-interval floors would under-count by up to a point per
  settle.

SETTLEMENT RULES:
  - On the read path (SettleDecay): elapsed < 1 hour since
    LastHealthUpdate is a no-op, no timestamp write.
  - Care actions settle without the threshold: they stamp
    LastHealthUpdate forward, so any whole point accrued in the sub-hour
    window has to be deducted first.
  - Otherwise LastHealthUpdate advances to now even when the floored
    decrease is zero.
  - A positive decrease appends one 'decrease' history entry whose reason
    summarizes hours unfed/unwatered.

SEE ALSO:
  - clock.go: Elapsed-time arithmetic
  - valuation.go: Consumes the settled health value
*/
package engine

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// DECAY CONSTANTS
// =============================================================================

const (
	// Points lost per hour since last fed (5 per 24h unfed).
	feedDecayPerHour = 5.0 / 24.0

	// Points lost per hour since last watered (10 per 24h unwatered).
	waterDecayPerHour = 10.0 / 24.0

	// Settlement below this elapsed span is skipped to avoid log spam and
	// wasted writes.
	settleThresholdHours = 1.0
)

const maxHealth = 100

// =============================================================================
// DECAY SETTLEMENT
// =============================================================================

// cumulativeDecay returns the total (unfloored) decay accrued from the care
// anchors up to 'at'. The anchors only move on care actions, so the
// difference of two cumulative readings telescopes across settlements.
func cumulativeDecay(a *Animal, at time.Time) float64 {
	return feedDecayPerHour*HoursBetween(a.LastFed, at) +
		waterDecayPerHour*HoursBetween(a.LastWatered, at)
}

// SettleDecay applies all pending decay up to 'now' and stamps the animal
// as caught up. Re-running it for an already-settled interval is a no-op.
// Returns the (possibly unchanged) health value.
func SettleDecay(a *Animal, now time.Time) int {
	elapsed := HoursBetween(a.LastHealthUpdate, now)
	if elapsed < settleThresholdHours {
		return a.Health
	}
	return settleDecayNow(a, now)
}

// settleDecayNow settles with no elapsed-time threshold. Care actions run
// this instead of SettleDecay: they stamp LastHealthUpdate forward
// regardless, so a whole point that accrued inside a sub-hour window must
// be deducted here or it would be marked settled without ever landing.
func settleDecayNow(a *Animal, now time.Time) int {
	if !now.After(a.LastHealthUpdate) {
		return a.Health
	}

	settled := int(math.Floor(cumulativeDecay(a, a.LastHealthUpdate)))
	pending := int(math.Floor(cumulativeDecay(a, now)))
	decrease := pending - settled
	if decrease < 0 {
		decrease = 0
	}

	if decrease > 0 {
		unfed := int(math.Round(HoursBetween(a.LastFed, now)))
		unwatered := int(math.Round(HoursBetween(a.LastWatered, now)))
		a.History = append(a.History, HealthEvent{
			Kind:   EventDecrease,
			Delta:  -decrease,
			At:     now,
			Reason: fmt.Sprintf("unfed for %dh, unwatered for %dh", unfed, unwatered),
		})
		a.Health -= decrease
		if a.Health < 0 {
			a.Health = 0
		}
	}

	a.LastHealthUpdate = now
	return a.Health
}

// =============================================================================
// CARE BOOSTS
// =============================================================================

// ApplyCareBoost settles decay, then applies a positive health adjustment
// of the given magnitude. The recorded delta is the effective boost after
// clamping at 100. Feed actions stamp LastFed, water actions stamp
// LastWatered, and every action stamps LastCaredAt. Returns the effective
// boost.
func ApplyCareBoost(a *Animal, kind EventKind, boost int, now time.Time) int {
	settleDecayNow(a, now)

	if boost < 0 {
		boost = 0
	}
	actual := boost
	if actual > maxHealth-a.Health {
		actual = maxHealth - a.Health
	}

	a.History = append(a.History, HealthEvent{
		Kind:  kind,
		Delta: actual,
		At:    now,
	})
	a.Health += actual

	switch kind {
	case EventFeed:
		a.LastFed = now
	case EventWater:
		a.LastWatered = now
	}
	a.LastCaredAt = now
	a.LastHealthUpdate = now
	return actual
}

// FullRestore settles decay and brings health back to 100. This is the vet
// path: the boost magnitude is exactly the current deficit, and a history
// entry is recorded only when there is one.
func FullRestore(a *Animal, now time.Time) int {
	settleDecayNow(a, now)

	deficit := maxHealth - a.Health
	if deficit > 0 {
		a.History = append(a.History, HealthEvent{
			Kind:  EventVet,
			Delta: deficit,
			At:    now,
		})
		a.Health = maxHealth
	}

	a.LastCaredAt = now
	a.LastHealthUpdate = now
	return deficit
}
