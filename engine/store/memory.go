// Package store provides in-memory Store implementations (for testing/dev).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/farm-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements engine.Store. Reads and writes hand out deep copies so
// callers can't mutate persisted state behind the store's back.
type Memory struct {
	mu            sync.RWMutex
	animals       map[engine.AnimalID]*engine.Animal
	items         map[engine.ItemID]*engine.Item
	entries       []engine.LedgerEntry
	idempotency   map[string]bool
	wallets       map[engine.OwnerID]engine.Coins
	startingCoins engine.Coins
}

func NewMemory(startingCoins engine.Coins) *Memory {
	return &Memory{
		animals:       make(map[engine.AnimalID]*engine.Animal),
		items:         make(map[engine.ItemID]*engine.Item),
		idempotency:   make(map[string]bool),
		wallets:       make(map[engine.OwnerID]engine.Coins),
		startingCoins: startingCoins,
	}
}

// =============================================================================
// ANIMAL STORE
// =============================================================================

func (m *Memory) GetAnimal(_ context.Context, owner engine.OwnerID, id engine.AnimalID) (*engine.Animal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.animals[id]
	if !ok || a.OwnerID != owner {
		return nil, &engine.NotFoundError{Subject: "animal", ID: string(id)}
	}
	return a.Clone(), nil
}

func (m *Memory) ListAnimals(_ context.Context, owner engine.OwnerID) ([]*engine.Animal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*engine.Animal
	for _, a := range m.animals {
		if a.OwnerID == owner {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) SaveAnimal(_ context.Context, a *engine.Animal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.animals[a.ID] = a.Clone()
	return nil
}

func (m *Memory) DeleteAnimal(_ context.Context, owner engine.OwnerID, id engine.AnimalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.animals[id]
	if !ok || a.OwnerID != owner {
		return &engine.NotFoundError{Subject: "animal", ID: string(id)}
	}
	delete(m.animals, id)
	return nil
}

// =============================================================================
// ITEM STORE
// =============================================================================

func (m *Memory) GetItem(_ context.Context, owner engine.OwnerID, id engine.ItemID) (*engine.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.items[id]
	if !ok || i.OwnerID != owner {
		return nil, &engine.NotFoundError{Subject: "item", ID: string(id)}
	}
	return i.Clone(), nil
}

func (m *Memory) GetItemByKind(_ context.Context, owner engine.OwnerID, kind engine.ItemKind) (*engine.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, i := range m.items {
		if i.OwnerID == owner && i.Kind == kind {
			return i.Clone(), nil
		}
	}
	return nil, &engine.NotFoundError{Subject: "item", ID: string(kind)}
}

func (m *Memory) ListItems(_ context.Context, owner engine.OwnerID) ([]*engine.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*engine.Item
	for _, i := range m.items {
		if i.OwnerID == owner {
			result = append(result, i.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) SaveItem(_ context.Context, i *engine.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[i.ID] = i.Clone()
	return nil
}

func (m *Memory) DeleteItem(_ context.Context, owner engine.OwnerID, id engine.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.items[id]
	if !ok || i.OwnerID != owner {
		return &engine.NotFoundError{Subject: "item", ID: string(id)}
	}
	delete(m.items, id)
	return nil
}

// =============================================================================
// LEDGER
// =============================================================================

func (m *Memory) Append(_ context.Context, entry engine.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.IdempotencyKey != "" && m.idempotency[entry.IdempotencyKey] {
		return engine.ErrDuplicateIdempotencyKey
	}
	m.entries = append(m.entries, entry)
	if entry.IdempotencyKey != "" {
		m.idempotency[entry.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) List(_ context.Context, owner engine.OwnerID, f engine.Filter) ([]engine.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.LedgerEntry
	// Newest first: walk the append order backwards.
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.OwnerID != owner {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.Subject != "" && e.Subject != f.Subject {
			continue
		}
		result = append(result, e)
		if f.Limit > 0 && len(result) >= f.Limit {
			break
		}
	}
	return result, nil
}

// =============================================================================
// WALLET
// =============================================================================

func (m *Memory) Balance(_ context.Context, owner engine.OwnerID) (engine.Coins, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.balanceLocked(owner), nil
}

func (m *Memory) Credit(_ context.Context, owner engine.OwnerID, amount engine.Coins) (engine.Coins, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance := m.balanceLocked(owner).Add(amount)
	m.wallets[owner] = balance
	return balance, nil
}

func (m *Memory) Debit(_ context.Context, owner engine.OwnerID, amount engine.Coins) (engine.Coins, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance := m.balanceLocked(owner)
	if balance.LessThan(amount) {
		return balance, &engine.InsufficientFundsError{Needed: amount, Available: balance}
	}
	balance = balance.Sub(amount)
	m.wallets[owner] = balance
	return balance, nil
}

// balanceLocked provisions unseen owners with the starting balance.
func (m *Memory) balanceLocked(owner engine.OwnerID) engine.Coins {
	if balance, ok := m.wallets[owner]; ok {
		return balance
	}
	m.wallets[owner] = m.startingCoins
	return m.startingCoins
}

// Compile-time check that Memory implements the full store surface.
var _ engine.Store = (*Memory)(nil)
