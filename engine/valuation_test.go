package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/farm-engine/engine"
)

// fixedRand pins the valuer's randomness term for deterministic tests.
// Float64() = 0.5 puts the random factor exactly at 1.0.
type fixedRand struct{ v float64 }

func (r fixedRand) Float64() float64 { return r.v }

func newTestValuer(rand float64) *engine.Valuer {
	return engine.NewValuer(engine.DefaultCatalog(), fixedRand{rand})
}

// =============================================================================
// NEW ANIMAL PRICING
// =============================================================================

func TestCurrentValue_NewAnimal_FixedDiscount(t *testing.T) {
	// GIVEN: A dog bought 30 minutes ago
	// WHEN: It is valued
	// THEN: The value is exactly round(150 * 0.66) = 99, ignoring all factors

	a := newAnimal()
	a.Kind = engine.KindDog
	a.BasePrice = engine.NewCoins(150)
	a.Health = 10 // irrelevant inside the first hour

	value := newTestValuer(0.99).CurrentValue(a, t0.Add(30*time.Minute))

	assert.Equal(t, int64(99), value.IntPart())
}

func TestCurrentValue_NewAnimal_BoundaryAtOneHour(t *testing.T) {
	// At exactly one hour the full formula kicks in.

	a := newAnimal()
	a.BasePrice = engine.NewCoins(300)

	discounted := newTestValuer(0.5).CurrentValue(a, t0.Add(59*time.Minute))
	full := newTestValuer(0.5).CurrentValue(a, t0.Add(time.Hour))

	assert.Equal(t, int64(198), discounted.IntPart())
	// Age 0 days, health 100: 198 * 1.5 * 1.0 * 1.0 = 297.
	assert.Equal(t, int64(297), full.IntPart())
}

// =============================================================================
// FULL FORMULA
// =============================================================================

func TestCurrentValue_MatureHealthyAnimal(t *testing.T) {
	// GIVEN: A 90-day-old dog at full health, random factor pinned to 1.0
	// WHEN: It is valued
	// THEN: value = 150*0.66 * 1.5 * 2.1 = 311.85 -> 312

	a := newAnimal()
	a.Kind = engine.KindDog
	a.BasePrice = engine.NewCoins(150)

	value := newTestValuer(0.5).CurrentValue(a, t0.Add(90*24*time.Hour))

	assert.Equal(t, int64(312), value.IntPart())
}

func TestCurrentValue_RandomnessBounds(t *testing.T) {
	// The random factor spans [0.95, 1.05); the extremes bracket the value.

	a := newAnimal()
	a.Kind = engine.KindDog
	a.BasePrice = engine.NewCoins(150)
	now := t0.Add(90 * 24 * time.Hour)

	low := newTestValuer(0.0).CurrentValue(a, now)
	high := newTestValuer(1.0).CurrentValue(a, now)

	// 311.85 * 0.95 = 296.26 -> 296; 311.85 * 1.05 = 327.44 -> 327
	assert.Equal(t, int64(296), low.IntPart())
	assert.Equal(t, int64(327), high.IntPart())
}

func TestCurrentValue_ZeroHealthHalvesValue(t *testing.T) {
	a := newAnimal()
	a.BasePrice = engine.NewCoins(300)
	a.Health = 0

	value := newTestValuer(0.5).CurrentValue(a, t0.Add(90*24*time.Hour))

	// 300*0.66 * 0.5 * 2.1 = 207.9 -> 208
	assert.Equal(t, int64(208), value.IntPart())
}

func TestCurrentValue_FallsBackToCatalogBasePrice(t *testing.T) {
	// Records that predate the BasePrice field carry zero; the catalog
	// supplies the kind's price instead.

	a := newAnimal()
	a.Kind = engine.KindChicken
	a.BasePrice = engine.Coins{}

	value := newTestValuer(0.99).CurrentValue(a, t0.Add(30*time.Minute))

	// round(50 * 0.66) = 33
	assert.Equal(t, int64(33), value.IntPart())
}

// =============================================================================
// FACTOR CURVES
// =============================================================================

func TestHealthFactor(t *testing.T) {
	assert.Equal(t, 0.5, engine.HealthFactor(0))
	assert.Equal(t, 1.0, engine.HealthFactor(50))
	assert.Equal(t, 1.5, engine.HealthFactor(100))
}

func TestAgeFactor_PiecewiseRamp(t *testing.T) {
	assert.Equal(t, 1.0, engine.AgeFactor(0))
	assert.Equal(t, 1.35, engine.AgeFactor(7))
	assert.Equal(t, 1.8, engine.AgeFactor(30))
	assert.Equal(t, 2.1, engine.AgeFactor(60))
	assert.Equal(t, 2.1, engine.AgeFactor(365))
}

func TestAgeFactor_Monotonic(t *testing.T) {
	// Value never drops as the animal ages.
	prev := engine.AgeFactor(0)
	for day := 1; day <= 120; day++ {
		cur := engine.AgeFactor(day)
		assert.GreaterOrEqual(t, cur, prev, "day %d", day)
		prev = cur
	}
}
