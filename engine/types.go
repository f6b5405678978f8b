/*
Package engine provides the core health-decay and valuation engine.

PURPOSE:
  This package contains the domain types and algorithms for managing
  time-decaying animals and the economic layer around them. Health is a
  resource that drains continuously with wall-clock time since the last
  feeding/watering and is replenished by care actions. Market value is
  derived from health, age, and a bounded randomness term.

KEY CONCEPTS IN THIS FILE (types.go):
  - Coins: A currency amount backed by decimal.Decimal
  - Animal: A time-decaying entity with an append-only health history
  - Item: A consumable inventory stack (feed, water, medicine, ...)
  - HealthEvent: An immutable entry in an animal's health log
  - Owner/Animal/Item/Entry IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Laziness: Decay is settled on read/mutation, never by a background timer
  2. Precision: Uses decimal.Decimal for all currency math
  3. Immutability: Health history and ledger entries are append-only
  4. Data over constants: Boost magnitudes ride on item records, not call sites

SEE ALSO:
  - health.go: Decay settlement and care boosts
  - valuation.go: Market value calculation
  - catalog.go: Injected lookup tables (prices, effects, compatibility)
  - ledger.go: Append-only transaction log
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COINS - Currency amount backed by decimal
// =============================================================================

type Coins struct {
	Value decimal.Decimal
}

func NewCoins(value int64) Coins {
	return Coins{Value: decimal.NewFromInt(value)}
}

func NewCoinsFromFloat(value float64) Coins {
	return Coins{Value: decimal.NewFromFloat(value)}
}

func (c Coins) Add(o Coins) Coins { return Coins{Value: c.Value.Add(o.Value)} }
func (c Coins) Sub(o Coins) Coins { return Coins{Value: c.Value.Sub(o.Value)} }
func (c Coins) MulInt(n int) Coins {
	return Coins{Value: c.Value.Mul(decimal.NewFromInt(int64(n)))}
}
func (c Coins) Mul(s decimal.Decimal) Coins { return Coins{Value: c.Value.Mul(s)} }
func (c Coins) Round() Coins { return Coins{Value: c.Value.Round(0)} }
func (c Coins) IsNegative() bool { return c.Value.IsNegative() }
func (c Coins) IsZero() bool { return c.Value.IsZero() }
func (c Coins) IsPositive() bool { return c.Value.IsPositive() }
func (c Coins) LessThan(o Coins) bool { return c.Value.LessThan(o.Value) }
func (c Coins) GreaterThan(o Coins) bool { return c.Value.GreaterThan(o.Value) }
func (c Coins) Equal(o Coins) bool { return c.Value.Equal(o.Value) }
func (c Coins) String() string { return c.Value.String() }

// IntPart returns the whole-coin value. Prices and market values are whole
// coins throughout; the decimal backing exists so wallet math never drifts.
func (c Coins) IntPart() int64 { return c.Value.IntPart() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OwnerID string
type AnimalID string
type ItemID string
type EntryID string

// =============================================================================
// ANIMAL KINDS AND CATEGORIES
// =============================================================================

type AnimalKind string

const (
	KindDog     AnimalKind = "dog"
	KindCat     AnimalKind = "cat"
	KindCow     AnimalKind = "cow"
	KindPig     AnimalKind = "pig"
	KindChicken AnimalKind = "chicken"
	KindHorse   AnimalKind = "horse"
	KindSheep   AnimalKind = "sheep"
	KindGoat    AnimalKind = "goat"
)

// AnimalKinds lists every valid kind, in catalog order.
var AnimalKinds = []AnimalKind{
	KindDog, KindCat, KindCow, KindPig, KindChicken, KindHorse, KindSheep, KindGoat,
}

func ValidAnimalKind(k AnimalKind) bool {
	for _, v := range AnimalKinds {
		if v == k {
			return true
		}
	}
	return false
}

type Category string

const (
	CategoryPet       Category = "pet"
	CategoryLivestock Category = "livestock"
)

// DefaultCategory returns the category an animal kind falls into when the
// caller doesn't specify one. Dogs and cats are pets; everything else is
// livestock.
func DefaultCategory(k AnimalKind) Category {
	switch k {
	case KindDog, KindCat:
		return CategoryPet
	default:
		return CategoryLivestock
	}
}

// =============================================================================
// HEALTH EVENTS - Append-only health history
// =============================================================================

type EventKind string

const (
	EventDecrease EventKind = "decrease"
	EventFeed     EventKind = "feed"
	EventWater    EventKind = "water"
	EventMedicine EventKind = "medicine"
	EventTreat    EventKind = "treat"
	EventVet      EventKind = "vet"
)

// HealthEvent is one entry in an animal's health log.
//
// INVARIANTS:
//   - Entries are append-only and never mutated retroactively.
//   - Timestamps are monotonically non-decreasing within one animal.
type HealthEvent struct {
	Kind   EventKind
	Delta  int
	At     time.Time
	Reason string
}

// =============================================================================
// ANIMAL - A time-decaying entity
// =============================================================================

// Animal is the core entity. Health is an integer in [0,100] that drains
// with elapsed time since the last feeding/watering and recovers through
// care actions. All health changes flow through health.go; there is no
// other path to change it.
type Animal struct {
	ID       AnimalID
	OwnerID  OwnerID
	Name     string
	Kind     AnimalKind
	Category Category

	// Quantity is 1 for pets; livestock records may hold a herd (> 1).
	Quantity int

	Health    int
	BasePrice Coins

	CreatedAt   time.Time
	LastFed     time.Time
	LastWatered time.Time
	LastCaredAt time.Time

	// LastHealthUpdate marks the point up to which decay has been settled
	// into Health. It is always >= the timestamp of the last history entry.
	LastHealthUpdate time.Time

	History []HealthEvent
}

// Validate checks the structural invariants. Pets must be named and come
// one per record.
func (a *Animal) Validate() error {
	var msgs []string
	if !ValidAnimalKind(a.Kind) {
		msgs = append(msgs, "unknown animal kind: "+string(a.Kind))
	}
	if a.Category != CategoryPet && a.Category != CategoryLivestock {
		msgs = append(msgs, "category must be pet or livestock")
	}
	if a.Quantity < 1 {
		msgs = append(msgs, "quantity must be at least 1")
	}
	if a.Category == CategoryPet {
		if a.Quantity != 1 {
			msgs = append(msgs, "pets cannot be kept in herds")
		}
		if a.Name == "" {
			msgs = append(msgs, "name is required for pets")
		}
	}
	if a.Health < 0 || a.Health > 100 {
		msgs = append(msgs, "health must be within 0-100")
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so callers can't
// mutate persisted state behind the engine's back.
func (a *Animal) Clone() *Animal {
	cp := *a
	cp.History = make([]HealthEvent, len(a.History))
	copy(cp.History, a.History)
	return &cp
}

// =============================================================================
// ITEM - A consumable inventory stack
// =============================================================================

type ItemKind string

const (
	ItemDogFood          ItemKind = "dogFood"
	ItemCatFood          ItemKind = "catFood"
	ItemLivestockFeed    ItemKind = "livestockFeed"
	ItemFeed             ItemKind = "feed"
	ItemPremiumFeed      ItemKind = "premium_feed"
	ItemWater            ItemKind = "water"
	ItemMedicine         ItemKind = "medicine"
	ItemBasicMedicine    ItemKind = "basic_medicine"
	ItemAdvancedMedicine ItemKind = "advanced_medicine"
	ItemVitamins         ItemKind = "vitamins"
	ItemTreats           ItemKind = "treats"
)

// ActionKind maps an item kind to the care action it performs. Feeds stamp
// LastFed, water stamps LastWatered, everything else only stamps
// LastCaredAt (see ApplyCareBoost).
func ActionKind(k ItemKind) EventKind {
	switch k {
	case ItemDogFood, ItemCatFood, ItemLivestockFeed, ItemFeed, ItemPremiumFeed:
		return EventFeed
	case ItemWater:
		return EventWater
	case ItemTreats:
		return EventTreat
	default:
		// medicine, basic_medicine, advanced_medicine, vitamins
		return EventMedicine
	}
}

// Item is an inventory stack owned by one account. The health effect and
// compatibility set ride on the record itself, not on call sites, so policy
// drift lives in data rather than code.
type Item struct {
	ID          ItemID
	OwnerID     OwnerID
	Kind        ItemKind
	Name        string
	Quantity    int
	Unit        string
	UnitPrice   Coins
	HealthBoost int
	Targets     []AnimalKind
	CreatedAt   time.Time
}

// UsableOn reports whether this item can be used on the given animal kind.
func (i *Item) UsableOn(k AnimalKind) bool {
	for _, t := range i.Targets {
		if t == k {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	cp := *i
	cp.Targets = make([]AnimalKind, len(i.Targets))
	copy(cp.Targets, i.Targets)
	return &cp
}
