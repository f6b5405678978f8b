/*
market.go - Buying and selling animals and inventory

PURPOSE:
  The economic operations. Purchases debit before creating records; a
  failed debit mutates nothing. Sales follow a ledger-first discipline:
  the sell entry is appended under a unique idempotency key BEFORE the
  wallet credit, so a retried sell collides on the key instead of
  crediting twice.

PRICING:
  - Animals are bought at basePrice x quantity and sold at the valuation
    engine's current market value.
  - Items are bought at catalog unit price x quantity and sold back at 80%
    of that, rounded to whole coins.
*/
package farm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/farm-engine/engine"
)

// =============================================================================
// BUY ANIMAL
// =============================================================================

// BuyAnimalInput describes an animal purchase. Category defaults by kind
// and quantity defaults to 1.
type BuyAnimalInput struct {
	Kind     engine.AnimalKind
	Name     string
	Category engine.Category
	Quantity int
}

// BuyResult is the outcome of a purchase.
type BuyResult struct {
	Animal  AnimalView
	Cost    engine.Coins
	Balance engine.Coins
}

// BuyAnimal debits basePrice x quantity and creates the animal at full
// health. Fails with a ValidationError before any write when the input
// breaks the pet/livestock invariants.
func (p *Processor) BuyAnimal(ctx context.Context, owner engine.OwnerID, in BuyAnimalInput) (BuyResult, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Category == "" {
		in.Category = engine.DefaultCategory(in.Kind)
	}

	now := p.Clock.Now()
	a := &engine.Animal{
		ID:               engine.AnimalID(uuid.NewString()),
		OwnerID:          owner,
		Name:             in.Name,
		Kind:             in.Kind,
		Category:         in.Category,
		Quantity:         in.Quantity,
		Health:           100,
		BasePrice:        p.Catalog.BasePrice(in.Kind),
		CreatedAt:        now,
		LastFed:          now,
		LastWatered:      now,
		LastCaredAt:      now,
		LastHealthUpdate: now,
	}
	if err := a.Validate(); err != nil {
		return BuyResult{}, err
	}

	cost := a.BasePrice.MulInt(a.Quantity)
	balance, err := p.Wallet.Debit(ctx, owner, cost)
	if err != nil {
		return BuyResult{}, err
	}

	if err := p.Animals.SaveAnimal(ctx, a); err != nil {
		return BuyResult{}, &engine.PersistenceError{Op: "save animal", Err: err}
	}

	entry := engine.LedgerEntry{
		ID:          newEntryID(),
		OwnerID:     owner,
		Action:      engine.ActionBuy,
		Subject:     engine.SubjectAnimal,
		SubjectID:   string(a.ID),
		SubjectName: displayName(a),
		Amount:      cost,
		Quantity:    a.Quantity,
		Description: fmt.Sprintf("Bought %d %s", a.Quantity, a.Kind),
		CreatedAt:   now,
	}
	if err := p.Ledger.Append(ctx, entry); err != nil {
		return BuyResult{}, &engine.PersistenceError{Op: "append buy entry", Err: err}
	}

	return BuyResult{Animal: p.view(a, now), Cost: cost, Balance: balance}, nil
}

// =============================================================================
// SELL ANIMAL
// =============================================================================

// SellResult is the outcome of a sale.
type SellResult struct {
	Price   engine.Coins
	Balance engine.Coins
}

// SellAnimal settles decay, values the animal, credits the owner, and
// deletes the record.
//
// The sell entry is appended first under the idempotency key (derived
// from the animal ID by default, which is single-use since sold animals
// are deleted).
// A retry after a partial failure fails on the duplicate key with
// ErrDuplicateIdempotencyKey and never credits twice.
func (p *Processor) SellAnimal(ctx context.Context, owner engine.OwnerID, id engine.AnimalID, idempotencyKey string) (SellResult, error) {
	unlock := p.locks.Lock(engine.MutationKey(owner, id))
	defer unlock()

	a, err := p.Animals.GetAnimal(ctx, owner, id)
	if err != nil {
		return SellResult{}, err
	}

	now := p.Clock.Now()
	engine.SettleDecay(a, now)
	price := p.Valuer.CurrentValue(a, now)

	if idempotencyKey == "" {
		idempotencyKey = "sell-animal-" + string(a.ID)
	}
	entry := engine.LedgerEntry{
		ID:             newEntryID(),
		OwnerID:        owner,
		Action:         engine.ActionSell,
		Subject:        engine.SubjectAnimal,
		SubjectID:      string(a.ID),
		SubjectName:    displayName(a),
		Amount:         price,
		Quantity:       a.Quantity,
		Description:    fmt.Sprintf("Sold %d %s", a.Quantity, displayName(a)),
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
	}
	if err := p.Ledger.Append(ctx, entry); err != nil {
		return SellResult{}, err
	}

	balance, err := p.Wallet.Credit(ctx, owner, price)
	if err != nil {
		return SellResult{}, &engine.PersistenceError{Op: "credit sale", Err: err}
	}
	if err := p.Animals.DeleteAnimal(ctx, owner, id); err != nil {
		return SellResult{}, &engine.PersistenceError{Op: "delete sold animal", Err: err}
	}

	return SellResult{Price: price, Balance: balance}, nil
}

// =============================================================================
// BUY ITEM
// =============================================================================

// ItemResult is the outcome of an inventory purchase or sale. Item is nil
// when a sale emptied the stack.
type ItemResult struct {
	Item    *engine.Item
	Amount  engine.Coins
	Balance engine.Coins
}

// BuyItem debits unit price x quantity and creates or tops up the owner's
// stack of the given kind.
func (p *Processor) BuyItem(ctx context.Context, owner engine.OwnerID, kind engine.ItemKind, quantity int) (ItemResult, error) {
	spec, ok := p.Catalog.ItemSpec(kind)
	if !ok {
		return ItemResult{}, &engine.ValidationError{Messages: []string{"unknown item kind: " + string(kind)}}
	}
	if quantity < 1 {
		return ItemResult{}, &engine.ValidationError{Messages: []string{"quantity must be at least 1"}}
	}

	unlock := p.locks.Lock(engine.ItemMutationKey(owner, kind))
	defer unlock()

	total := spec.UnitPrice.MulInt(quantity)
	balance, err := p.Wallet.Debit(ctx, owner, total)
	if err != nil {
		return ItemResult{}, err
	}

	now := p.Clock.Now()
	item, err := p.Items.GetItemByKind(ctx, owner, kind)
	switch {
	case err == nil:
		item.Quantity += quantity
	case engine.IsNotFound(err):
		item = &engine.Item{
			ID:          engine.ItemID(uuid.NewString()),
			OwnerID:     owner,
			Kind:        kind,
			Name:        spec.Name,
			Quantity:    quantity,
			Unit:        spec.Unit,
			UnitPrice:   spec.UnitPrice,
			HealthBoost: spec.HealthBoost,
			Targets:     spec.Targets,
			CreatedAt:   now,
		}
	default:
		return ItemResult{}, &engine.PersistenceError{Op: "load item", Err: err}
	}

	if err := p.Items.SaveItem(ctx, item); err != nil {
		return ItemResult{}, &engine.PersistenceError{Op: "save item", Err: err}
	}

	entry := engine.LedgerEntry{
		ID:          newEntryID(),
		OwnerID:     owner,
		Action:      engine.ActionBuy,
		Subject:     engine.SubjectItem,
		SubjectID:   string(item.ID),
		SubjectName: item.Name,
		Amount:      total,
		Quantity:    quantity,
		Description: fmt.Sprintf("Bought %d %s of %s", quantity, item.Unit, item.Name),
		CreatedAt:   now,
	}
	if err := p.Ledger.Append(ctx, entry); err != nil {
		return ItemResult{}, &engine.PersistenceError{Op: "append buy entry", Err: err}
	}

	return ItemResult{Item: item, Amount: total, Balance: balance}, nil
}

// =============================================================================
// SELL ITEM
// =============================================================================

// sellBackRate is the fraction of the purchase price recovered when
// selling inventory back.
var sellBackRate = decimal.NewFromFloat(0.8)

// SellItem sells part of a stack back at 80% of unit price, rounded.
// The stack is deleted when it reaches zero.
func (p *Processor) SellItem(ctx context.Context, owner engine.OwnerID, id engine.ItemID, quantity int) (ItemResult, error) {
	if quantity < 1 {
		return ItemResult{}, &engine.ValidationError{Messages: []string{"quantity must be at least 1"}}
	}

	// First read resolves the stack's kind; the quantity check runs on a
	// re-read under the stack lock so concurrent sales can't both pass it.
	peek, err := p.Items.GetItem(ctx, owner, id)
	if err != nil {
		return ItemResult{}, err
	}
	unlock := p.locks.Lock(engine.ItemMutationKey(owner, peek.Kind))
	defer unlock()

	item, err := p.Items.GetItem(ctx, owner, id)
	if err != nil {
		return ItemResult{}, err
	}
	if item.Quantity < quantity {
		return ItemResult{}, engine.ErrInsufficientQuantity
	}

	price := item.UnitPrice.MulInt(quantity).Mul(sellBackRate).Round()
	balance, err := p.Wallet.Credit(ctx, owner, price)
	if err != nil {
		return ItemResult{}, &engine.PersistenceError{Op: "credit sale", Err: err}
	}

	now := p.Clock.Now()
	item.Quantity -= quantity
	result := item
	if item.Quantity == 0 {
		if err := p.Items.DeleteItem(ctx, owner, id); err != nil {
			return ItemResult{}, &engine.PersistenceError{Op: "delete item", Err: err}
		}
		result = nil
	} else {
		if err := p.Items.SaveItem(ctx, item); err != nil {
			return ItemResult{}, &engine.PersistenceError{Op: "save item", Err: err}
		}
	}

	entry := engine.LedgerEntry{
		ID:          newEntryID(),
		OwnerID:     owner,
		Action:      engine.ActionSell,
		Subject:     engine.SubjectItem,
		SubjectID:   string(item.ID),
		SubjectName: item.Name,
		Amount:      price,
		Quantity:    quantity,
		Description: fmt.Sprintf("Sold %d %s of %s", quantity, item.Unit, item.Name),
		CreatedAt:   now,
	}
	if err := p.Ledger.Append(ctx, entry); err != nil {
		return ItemResult{}, &engine.PersistenceError{Op: "append sell entry", Err: err}
	}

	return ItemResult{Item: result, Amount: price, Balance: balance}, nil
}
