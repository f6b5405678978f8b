/*
Package farm implements the care-action pipeline over the core engine.

PURPOSE:
  The Processor is the single entry point for every action that can change
  an animal, an inventory stack, or the owner's wallet. Each operation
  follows the same shape:

    settle decay -> validate -> mutate -> append ledger entry

  Nothing else in the system mutates health or currency.

CONCURRENCY:
  Mutations are serialized with an in-process keyed mutex: per (owner,
  animal) for animal state, per (owner, item kind) for inventory stacks.
  Paths touching both take the animal lock first. Every operation is a
  bounded read + write + log append; none block indefinitely and none are
  cancellable mid-flight.

SEE ALSO:
  - care.go:   Use item / water / vet
  - market.go: Buy and sell animals and items
  - engine:    The pure decay/valuation core
*/
package farm

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/farm-engine/engine"
)

// =============================================================================
// PROCESSOR
// =============================================================================

// Processor validates and applies care and market actions.
type Processor struct {
	Animals engine.AnimalStore
	Items   engine.ItemStore
	Ledger  engine.Ledger
	Wallet  engine.Wallet
	Catalog *engine.Catalog
	Valuer  *engine.Valuer
	Clock   engine.Clock

	locks *engine.KeyedMutex
}

// NewProcessor wires a processor. A single engine.Store may back all four
// persistence collaborators.
func NewProcessor(store engine.Store, catalog *engine.Catalog, valuer *engine.Valuer, clock engine.Clock) *Processor {
	return &Processor{
		Animals: store,
		Items:   store,
		Ledger:  store,
		Wallet:  store,
		Catalog: catalog,
		Valuer:  valuer,
		Clock:   clock,
		locks:   engine.NewKeyedMutex(),
	}
}

// =============================================================================
// VIEWS
// =============================================================================

// AnimalView is an animal snapshot with its derived read-path values.
type AnimalView struct {
	Animal      *engine.Animal
	AgeDays     int
	MarketValue engine.Coins
}

func (p *Processor) view(a *engine.Animal, now time.Time) AnimalView {
	return AnimalView{
		Animal:      a,
		AgeDays:     engine.AgeInDays(a.CreatedAt, now),
		MarketValue: p.Valuer.CurrentValue(a, now),
	}
}

// =============================================================================
// READ PATH
// =============================================================================

// ListAnimals returns the owner's animals with decay settled up to now.
// Settlement that moved LastHealthUpdate is persisted so the log stays
// consistent with what the caller saw.
func (p *Processor) ListAnimals(ctx context.Context, owner engine.OwnerID) ([]AnimalView, error) {
	animals, err := p.Animals.ListAnimals(ctx, owner)
	if err != nil {
		return nil, &engine.PersistenceError{Op: "list animals", Err: err}
	}

	now := p.Clock.Now()
	views := make([]AnimalView, 0, len(animals))
	for _, a := range animals {
		if err := p.settleAndPersist(ctx, a, now); err != nil {
			return nil, err
		}
		views = append(views, p.view(a, now))
	}
	return views, nil
}

// GetAnimal returns one animal with decay settled up to now.
func (p *Processor) GetAnimal(ctx context.Context, owner engine.OwnerID, id engine.AnimalID) (AnimalView, error) {
	unlock := p.locks.Lock(engine.MutationKey(owner, id))
	defer unlock()

	a, err := p.Animals.GetAnimal(ctx, owner, id)
	if err != nil {
		return AnimalView{}, err
	}

	now := p.Clock.Now()
	if err := p.settleAndPersist(ctx, a, now); err != nil {
		return AnimalView{}, err
	}
	return p.view(a, now), nil
}

// settleAndPersist settles decay and writes the animal back when the
// settlement actually advanced it.
func (p *Processor) settleAndPersist(ctx context.Context, a *engine.Animal, now time.Time) error {
	before := a.LastHealthUpdate
	engine.SettleDecay(a, now)
	if a.LastHealthUpdate.Equal(before) {
		return nil
	}
	if err := p.Animals.SaveAnimal(ctx, a); err != nil {
		return &engine.PersistenceError{Op: "save settled animal", Err: err}
	}
	return nil
}

// =============================================================================
// WALLET AND LEDGER READS
// =============================================================================

// Balance returns the owner's current coins, provisioning first-time
// owners with the starting balance.
func (p *Processor) Balance(ctx context.Context, owner engine.OwnerID) (engine.Coins, error) {
	balance, err := p.Wallet.Balance(ctx, owner)
	if err != nil {
		return engine.Coins{}, &engine.PersistenceError{Op: "read balance", Err: err}
	}
	return balance, nil
}

// Transactions lists the owner's ledger entries, newest first.
func (p *Processor) Transactions(ctx context.Context, owner engine.OwnerID, f engine.Filter) ([]engine.LedgerEntry, error) {
	entries, err := p.Ledger.List(ctx, owner, f)
	if err != nil {
		return nil, &engine.PersistenceError{Op: "list ledger", Err: err}
	}
	return entries, nil
}

// ListItems returns the owner's inventory stacks.
func (p *Processor) ListItems(ctx context.Context, owner engine.OwnerID) ([]*engine.Item, error) {
	items, err := p.Items.ListItems(ctx, owner)
	if err != nil {
		return nil, &engine.PersistenceError{Op: "list items", Err: err}
	}
	return items, nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func newEntryID() engine.EntryID { return engine.EntryID(uuid.NewString()) }

// displayName is what ledger descriptions call an animal.
func displayName(a *engine.Animal) string {
	if a.Name != "" {
		return a.Name
	}
	return string(a.Kind)
}
