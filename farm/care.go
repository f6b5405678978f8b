/*
care.go - Care actions: use item, water, call vet

PURPOSE:
  Applies a consumable to an animal or pays for a vet visit. All three
  paths settle decay first (via engine.ApplyCareBoost / FullRestore) and
  leave one ledger entry.

WRITE ORDERING:
  Validation happens before any write; a rejected action mutates nothing.
  On success the animal is saved, then the item stack, then the ledger
  entry is appended.
*/
package farm

import (
	"context"
	"fmt"

	"github.com/warp/farm-engine/engine"
)

// CareResult is the outcome of a successful care action. Item is nil when
// the consumed stack reached zero and was deleted.
type CareResult struct {
	Animal AnimalView
	Item   *engine.Item
	Boost  int
}

// =============================================================================
// USE ITEM
// =============================================================================

// UseItem applies one unit of the owner's item to the animal.
//
// Fails with:
//   - NotFoundError when either record is absent or foreign-owned
//   - IncompatibleItemError when the item doesn't target the animal's kind
//   - ErrInsufficientQuantity when the stack is empty
func (p *Processor) UseItem(ctx context.Context, owner engine.OwnerID, animalID engine.AnimalID, itemID engine.ItemID) (CareResult, error) {
	unlock := p.locks.Lock(engine.MutationKey(owner, animalID))
	defer unlock()

	a, err := p.Animals.GetAnimal(ctx, owner, animalID)
	if err != nil {
		return CareResult{}, err
	}

	// The first read only establishes which stack the ID names; the
	// quantity that matters is re-read under the stack lock.
	peek, err := p.Items.GetItem(ctx, owner, itemID)
	if err != nil {
		return CareResult{}, err
	}
	unlockItem := p.locks.Lock(engine.ItemMutationKey(owner, peek.Kind))
	defer unlockItem()

	item, err := p.Items.GetItem(ctx, owner, itemID)
	if err != nil {
		return CareResult{}, err
	}
	return p.useOn(ctx, a, item)
}

// Water applies one unit of the owner's water stack to the animal without
// the caller having to know the stack's ID.
func (p *Processor) Water(ctx context.Context, owner engine.OwnerID, animalID engine.AnimalID) (CareResult, error) {
	unlock := p.locks.Lock(engine.MutationKey(owner, animalID))
	defer unlock()

	a, err := p.Animals.GetAnimal(ctx, owner, animalID)
	if err != nil {
		return CareResult{}, err
	}

	unlockItem := p.locks.Lock(engine.ItemMutationKey(owner, engine.ItemWater))
	defer unlockItem()

	water, err := p.Items.GetItemByKind(ctx, owner, engine.ItemWater)
	if err != nil {
		return CareResult{}, err
	}
	return p.useOn(ctx, a, water)
}

// useOn runs the shared consume-and-boost pipeline. Caller holds both the
// animal and the stack lock.
func (p *Processor) useOn(ctx context.Context, a *engine.Animal, item *engine.Item) (CareResult, error) {
	if !item.UsableOn(a.Kind) {
		return CareResult{}, &engine.IncompatibleItemError{ItemKind: item.Kind, AnimalKind: a.Kind}
	}
	if item.Quantity < 1 {
		return CareResult{}, engine.ErrInsufficientQuantity
	}

	now := p.Clock.Now()
	// Captured before the stack can be decremented to zero and deleted.
	name := item.Name
	itemID := item.ID
	boost := engine.ApplyCareBoost(a, engine.ActionKind(item.Kind), item.HealthBoost, now)

	if err := p.Animals.SaveAnimal(ctx, a); err != nil {
		return CareResult{}, &engine.PersistenceError{Op: "save animal", Err: err}
	}

	item.Quantity--
	if item.Quantity <= 0 {
		if err := p.Items.DeleteItem(ctx, item.OwnerID, item.ID); err != nil {
			return CareResult{}, &engine.PersistenceError{Op: "delete item", Err: err}
		}
		item = nil
	} else {
		if err := p.Items.SaveItem(ctx, item); err != nil {
			return CareResult{}, &engine.PersistenceError{Op: "save item", Err: err}
		}
	}

	entry := engine.LedgerEntry{
		ID:          newEntryID(),
		OwnerID:     a.OwnerID,
		Action:      engine.ActionUse,
		Subject:     engine.SubjectItem,
		SubjectID:   string(itemID),
		SubjectName: name,
		Amount:      engine.NewCoins(0),
		Quantity:    1,
		Description: fmt.Sprintf("Used %s on %s", name, displayName(a)),
		CreatedAt:   now,
	}
	if err := p.Ledger.Append(ctx, entry); err != nil {
		return CareResult{}, &engine.PersistenceError{Op: "append use entry", Err: err}
	}

	return CareResult{Animal: p.view(a, now), Item: item, Boost: boost}, nil
}

// =============================================================================
// VET
// =============================================================================

// VetResult is the outcome of a vet visit.
type VetResult struct {
	Animal  AnimalView
	Cost    engine.Coins
	Balance engine.Coins
}

// CallVet debits the per-kind vet cost and restores the animal to full
// health. Fails with an InsufficientFundsError, mutating nothing, when the
// wallet is short.
func (p *Processor) CallVet(ctx context.Context, owner engine.OwnerID, animalID engine.AnimalID) (VetResult, error) {
	unlock := p.locks.Lock(engine.MutationKey(owner, animalID))
	defer unlock()

	a, err := p.Animals.GetAnimal(ctx, owner, animalID)
	if err != nil {
		return VetResult{}, err
	}

	cost := p.Catalog.VetCost(a.Kind)
	balance, err := p.Wallet.Debit(ctx, owner, cost)
	if err != nil {
		return VetResult{}, err
	}

	now := p.Clock.Now()
	engine.FullRestore(a, now)
	if err := p.Animals.SaveAnimal(ctx, a); err != nil {
		return VetResult{}, &engine.PersistenceError{Op: "save animal", Err: err}
	}

	entry := engine.LedgerEntry{
		ID:          newEntryID(),
		OwnerID:     owner,
		Action:      engine.ActionVet,
		Subject:     engine.SubjectAnimal,
		SubjectID:   string(a.ID),
		SubjectName: displayName(a),
		Amount:      cost,
		Quantity:    1,
		Description: fmt.Sprintf("Veterinary care for %s", displayName(a)),
		CreatedAt:   now,
	}
	if err := p.Ledger.Append(ctx, entry); err != nil {
		return VetResult{}, &engine.PersistenceError{Op: "append vet entry", Err: err}
	}

	return VetResult{Animal: p.view(a, now), Cost: cost, Balance: balance}, nil
}
