/*
valuation.go - Market value calculation

PURPOSE:
  Computes the current sale price of an animal from its base price, settled
  health, age, and a bounded randomness term. This is a pure read: it never
  mutates the animal and never settles decay. Callers who care about
  current-health accuracy settle first.

FORMULA:
  Animals younger than one hour are worth exactly round(basePrice * 0.66),
  bypassing every other factor. Otherwise:

    value = basePrice * 0.66
          * healthFactor   (0.5 + health/100, range [0.5, 1.5])
          * ageFactor      (piecewise ramp, flat 2.1 from day 60)
          * randomFactor   (uniform in [0.95, 1.05])

  rounded to whole coins. The result is non-deterministic but bounded;
  tests assert range membership, not exact equality.
*/
package engine

import (
	"math"
	"time"
)

// =============================================================================
// RANDOM SOURCE - Injectable for deterministic tests
// =============================================================================

// RandSource yields uniform values in [0,1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// =============================================================================
// VALUER
// =============================================================================

const newAnimalFactor = 0.66

// Valuer computes market values. The catalog supplies base prices for
// animals that predate the BasePrice field.
type Valuer struct {
	Catalog *Catalog
	Rand    RandSource
}

func NewValuer(catalog *Catalog, rand RandSource) *Valuer {
	return &Valuer{Catalog: catalog, Rand: rand}
}

// CurrentValue returns the animal's market value in whole coins at 'now'.
func (v *Valuer) CurrentValue(a *Animal, now time.Time) Coins {
	base := a.BasePrice
	if !base.IsPositive() {
		base = v.Catalog.BasePrice(a.Kind)
	}
	baseValue := float64(base.IntPart()) * newAnimalFactor

	// New animals have a fixed discounted value regardless of health/age.
	if HoursBetween(a.CreatedAt, now) < 1 {
		return NewCoins(int64(math.Round(baseValue)))
	}

	value := baseValue
	value *= HealthFactor(a.Health)
	value *= AgeFactor(AgeInDays(a.CreatedAt, now))
	value *= 0.95 + v.Rand.Float64()*0.10

	return NewCoins(int64(math.Round(value)))
}

// HealthFactor maps health in [0,100] onto [0.5, 1.5].
func HealthFactor(health int) float64 {
	return 0.5 + float64(health)/100.0
}

// AgeFactor ramps value up over an animal's first two months:
//
//	  < 7 days: 1.0  -> 1.35
//	 7-29 days: 1.35 -> 1.8
//	30-59 days: 1.8  -> 2.1
//	 >= 60 days: 2.1 flat
func AgeFactor(ageInDays int) float64 {
	d := float64(ageInDays)
	switch {
	case ageInDays < 7:
		return 1.0 + (d/7.0)*0.35
	case ageInDays < 30:
		return 1.35 + ((d-7.0)/23.0)*0.45
	case ageInDays < 60:
		return 1.8 + ((d-30.0)/30.0)*0.3
	default:
		return 2.1
	}
}
