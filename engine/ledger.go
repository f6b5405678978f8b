/*
ledger.go - Append-only transaction log

PURPOSE:
  Every currency- or inventory-affecting action leaves one immutable
  LedgerEntry. The ledger is the audit trail for the whole economy: buys,
  sells, vet visits, and item usage.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, entries cannot be modified.
  3. IDEMPOTENT: Same idempotency key = one entry, duplicates rejected.

WHY IDEMPOTENCY KEYS?
  Selling an animal credits the wallet and then deletes the animal - two
  writes with no cross-document transaction. The sell entry is appended
  FIRST under a unique idempotency key, so a retried sell (network retry,
  double-click) collides on the key and is rejected before any re-credit.

SEE ALSO:
  - store.go: The other persistence interfaces
  - farm/processor.go: The only writer
*/
package engine

import (
	"context"
	"time"
)

// =============================================================================
// LEDGER ENTRY
// =============================================================================

type LedgerAction string

const (
	ActionBuy  LedgerAction = "buy"
	ActionSell LedgerAction = "sell"
	ActionVet  LedgerAction = "vet"
	ActionUse  LedgerAction = "use"
)

type SubjectType string

const (
	SubjectAnimal SubjectType = "animal"
	SubjectItem   SubjectType = "item"
)

// LedgerEntry records one economic action. Never mutated or deleted.
type LedgerEntry struct {
	ID             EntryID
	OwnerID        OwnerID
	Action         LedgerAction
	Subject        SubjectType
	SubjectID      string
	SubjectName    string
	Amount         Coins
	Quantity       int
	Description    string
	IdempotencyKey string
	CreatedAt      time.Time
}

// =============================================================================
// LEDGER INTERFACE
// =============================================================================

// Filter narrows a ledger listing. Zero values mean "no constraint".
type Filter struct {
	Action  LedgerAction
	Subject SubjectType
	Limit   int
}

// Ledger is the append-only log interface.
type Ledger interface {
	// Append adds an entry. Fails with ErrDuplicateIdempotencyKey if the
	// entry carries a key that already exists. This is the ONLY write.
	Append(ctx context.Context, entry LedgerEntry) error

	// List returns the owner's entries, newest first, honoring the filter.
	List(ctx context.Context, owner OwnerID, f Filter) ([]LedgerEntry, error)
}
