/*
store.go - Persistence interfaces

PURPOSE:
  Defines the contracts between the care-action pipeline and storage. The
  engine treats persistence as an external collaborator; implementations
  live in store/sqlite (production) and engine/store (in-memory, tests).

OWNERSHIP:
  Every query is owner-scoped. An ID that exists under a different owner
  behaves exactly like an ID that doesn't exist - stores return
  engine.ErrNotFound for both, and the engine never touches cross-owner
  state.

INTERFACES:
  AnimalStore: Animal snapshots (get/list/save/delete)
  ItemStore:   Inventory stacks (get/get-by-kind/list/save/delete)
  Wallet:      Owner currency (balance/credit/debit)
  Ledger:      Append-only log (ledger.go)
*/
package engine

import "context"

// =============================================================================
// ANIMAL STORE
// =============================================================================

type AnimalStore interface {
	// GetAnimal returns the animal, or a NotFoundError if it is absent or
	// owned by someone else.
	GetAnimal(ctx context.Context, owner OwnerID, id AnimalID) (*Animal, error)

	// ListAnimals returns all animals for the owner, oldest first.
	ListAnimals(ctx context.Context, owner OwnerID) ([]*Animal, error)

	// SaveAnimal inserts or fully replaces the animal record.
	SaveAnimal(ctx context.Context, a *Animal) error

	// DeleteAnimal removes the animal. NotFoundError if absent.
	DeleteAnimal(ctx context.Context, owner OwnerID, id AnimalID) error
}

// =============================================================================
// ITEM STORE
// =============================================================================

type ItemStore interface {
	GetItem(ctx context.Context, owner OwnerID, id ItemID) (*Item, error)

	// GetItemByKind returns the owner's stack of the given kind, or a
	// NotFoundError when the owner holds none.
	GetItemByKind(ctx context.Context, owner OwnerID, kind ItemKind) (*Item, error)

	ListItems(ctx context.Context, owner OwnerID) ([]*Item, error)

	SaveItem(ctx context.Context, i *Item) error

	DeleteItem(ctx context.Context, owner OwnerID, id ItemID) error
}

// =============================================================================
// WALLET - Owner currency collaborator
// =============================================================================

// Wallet exposes the owner-currency operations. Implementations provision
// unseen owners with a configured starting balance on first touch.
type Wallet interface {
	// Balance returns the owner's current coins.
	Balance(ctx context.Context, owner OwnerID) (Coins, error)

	// Credit adds coins and returns the new balance.
	Credit(ctx context.Context, owner OwnerID, amount Coins) (Coins, error)

	// Debit removes coins and returns the new balance. Fails with an
	// InsufficientFundsError, writing nothing, when the balance is short.
	Debit(ctx context.Context, owner OwnerID, amount Coins) (Coins, error)
}

// Store is the full persistence surface the care-action pipeline needs.
type Store interface {
	AnimalStore
	ItemStore
	Wallet
	Ledger
}
