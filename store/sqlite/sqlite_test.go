package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/farm-engine/engine"
	"github.com/warp/farm-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var t0 = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:", engine.NewCoins(1000))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testAnimal(id engine.AnimalID, owner engine.OwnerID) *engine.Animal {
	return &engine.Animal{
		ID:               id,
		OwnerID:          owner,
		Name:             "Rex",
		Kind:             engine.KindDog,
		Category:         engine.CategoryPet,
		Quantity:         1,
		Health:           100,
		BasePrice:        engine.NewCoins(150),
		CreatedAt:        t0,
		LastFed:          t0,
		LastWatered:      t0,
		LastCaredAt:      t0,
		LastHealthUpdate: t0,
	}
}

// =============================================================================
// ANIMAL PERSISTENCE
// =============================================================================

func TestAnimal_RoundTripWithHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAnimal("dog-1", "owner-1")
	a.Health = 70
	a.History = []engine.HealthEvent{
		{Kind: engine.EventDecrease, Delta: -30, At: t0.Add(48 * time.Hour),
			Reason: "unfed for 48h, unwatered for 48h"},
	}
	a.LastHealthUpdate = t0.Add(48 * time.Hour)
	require.NoError(t, store.SaveAnimal(ctx, a))

	got, err := store.GetAnimal(ctx, "owner-1", "dog-1")
	require.NoError(t, err)

	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Kind, got.Kind)
	assert.Equal(t, 70, got.Health)
	assert.True(t, got.BasePrice.Equal(a.BasePrice))
	assert.True(t, got.LastHealthUpdate.Equal(a.LastHealthUpdate))
	require.Len(t, got.History, 1)
	assert.Equal(t, engine.EventDecrease, got.History[0].Kind)
	assert.Equal(t, -30, got.History[0].Delta)
	assert.Equal(t, a.History[0].Reason, got.History[0].Reason)
}

func TestAnimal_SaveIsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAnimal("dog-1", "owner-1")
	require.NoError(t, store.SaveAnimal(ctx, a))

	a.Health = 42
	a.LastFed = t0.Add(time.Hour)
	require.NoError(t, store.SaveAnimal(ctx, a))

	got, err := store.GetAnimal(ctx, "owner-1", "dog-1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.Health)
	assert.True(t, got.LastFed.Equal(a.LastFed))
}

func TestAnimal_ForeignOwner_NotFound(t *testing.T) {
	// Ownership failures are indistinguishable from absence.

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAnimal(ctx, testAnimal("dog-1", "owner-1")))

	_, err := store.GetAnimal(ctx, "owner-2", "dog-1")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	err = store.DeleteAnimal(ctx, "owner-2", "dog-1")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestAnimal_ListIsOwnerScoped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAnimal(ctx, testAnimal("dog-1", "owner-1")))
	require.NoError(t, store.SaveAnimal(ctx, testAnimal("dog-2", "owner-2")))

	animals, err := store.ListAnimals(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, animals, 1)
	assert.Equal(t, engine.AnimalID("dog-1"), animals[0].ID)
}

// =============================================================================
// ITEM PERSISTENCE
// =============================================================================

func TestItem_RoundTripAndLookupByKind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := &engine.Item{
		ID:          "item-1",
		OwnerID:     "owner-1",
		Kind:        engine.ItemDogFood,
		Name:        "Dog Food",
		Quantity:    5,
		Unit:        "lbs",
		UnitPrice:   engine.NewCoins(20),
		HealthBoost: 10,
		Targets:     []engine.AnimalKind{engine.KindDog},
		CreatedAt:   t0,
	}
	require.NoError(t, store.SaveItem(ctx, item))

	got, err := store.GetItemByKind(ctx, "owner-1", engine.ItemDogFood)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, 10, got.HealthBoost)
	assert.Equal(t, []engine.AnimalKind{engine.KindDog}, got.Targets)
	assert.True(t, got.UnitPrice.Equal(item.UnitPrice))

	_, err = store.GetItemByKind(ctx, "owner-1", engine.ItemWater)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

// =============================================================================
// LEDGER
// =============================================================================

func entry(id engine.EntryID, owner engine.OwnerID, action engine.LedgerAction, key string, at time.Time) engine.LedgerEntry {
	return engine.LedgerEntry{
		ID:             id,
		OwnerID:        owner,
		Action:         action,
		Subject:        engine.SubjectAnimal,
		SubjectID:      "dog-1",
		SubjectName:    "Rex",
		Amount:         engine.NewCoins(150),
		Quantity:       1,
		IdempotencyKey: key,
		CreatedAt:      at,
	}
}

func TestLedger_DuplicateIdempotencyKey_Rejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry("e-1", "owner-1", engine.ActionSell, "sell-dog-1", t0)))

	err := store.Append(ctx, entry("e-2", "owner-1", engine.ActionSell, "sell-dog-1", t0.Add(time.Minute)))
	assert.ErrorIs(t, err, engine.ErrDuplicateIdempotencyKey)

	entries, err := store.List(ctx, "owner-1", engine.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedger_EmptyKeysNeverCollide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry("e-1", "owner-1", engine.ActionBuy, "", t0)))
	require.NoError(t, store.Append(ctx, entry("e-2", "owner-1", engine.ActionBuy, "", t0)))

	entries, err := store.List(ctx, "owner-1", engine.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLedger_ListFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, entry("e-1", "owner-1", engine.ActionBuy, "", t0)))
	require.NoError(t, store.Append(ctx, entry("e-2", "owner-1", engine.ActionSell, "k-1", t0.Add(time.Minute))))
	require.NoError(t, store.Append(ctx, entry("e-3", "owner-1", engine.ActionBuy, "", t0.Add(2*time.Minute))))
	require.NoError(t, store.Append(ctx, entry("e-4", "owner-2", engine.ActionBuy, "", t0.Add(3*time.Minute))))

	// Newest first, owner scoped.
	all, err := store.List(ctx, "owner-1", engine.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, engine.EntryID("e-3"), all[0].ID)
	assert.Equal(t, engine.EntryID("e-1"), all[2].ID)

	// Action filter.
	buys, err := store.List(ctx, "owner-1", engine.Filter{Action: engine.ActionBuy})
	require.NoError(t, err)
	assert.Len(t, buys, 2)

	// Limit.
	limited, err := store.List(ctx, "owner-1", engine.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, engine.EntryID("e-3"), limited[0].ID)
}

// =============================================================================
// WALLET
// =============================================================================

func TestWallet_ProvisionsStartingBalance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	balance, err := store.Balance(ctx, "new-owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.IntPart())
}

func TestWallet_CreditAndDebit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	balance, err := store.Credit(ctx, "owner-1", engine.NewCoins(250))
	require.NoError(t, err)
	assert.Equal(t, int64(1250), balance.IntPart())

	balance, err = store.Debit(ctx, "owner-1", engine.NewCoins(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(250), balance.IntPart())
}

func TestWallet_OverDebit_RejectedAndUnchanged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Debit(ctx, "owner-1", engine.NewCoins(5000))
	assert.ErrorIs(t, err, engine.ErrInsufficientFunds)

	balance, err := store.Balance(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.IntPart(), "failed debit must write nothing")
}
