package engine

import "time"

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock supplies "now" to everything that settles decay or values animals.
// Injecting it keeps the whole pipeline deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// =============================================================================
// DECAY CLOCK - Elapsed-time arithmetic
// =============================================================================

// HoursBetween returns the elapsed hours from 'from' to 'to' as a real
// number. A 'to' before 'from' clamps to zero rather than producing
// negative decay.
func HoursBetween(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}
	return to.Sub(from).Hours()
}

// AgeInDays returns whole days elapsed since 'createdAt', clamped at zero.
func AgeInDays(createdAt, now time.Time) int {
	return int(HoursBetween(createdAt, now) / 24)
}
