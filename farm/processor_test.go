package farm_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/farm-engine/engine"
	"github.com/warp/farm-engine/engine/store"
	"github.com/warp/farm-engine/farm"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var t0 = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

const owner = engine.OwnerID("owner-1")

// stepClock is a mutable clock the tests advance by hand.
type stepClock struct{ at time.Time }

func (c *stepClock) Now() time.Time { return c.at }
func (c *stepClock) advance(d time.Duration) { c.at = c.at.Add(d) }

// pinnedRand keeps the valuation random factor at exactly 1.0.
type pinnedRand struct{}

func (pinnedRand) Float64() float64 { return 0.5 }

func newTestProcessor(t *testing.T, startingCoins int64) (*farm.Processor, *store.Memory, *stepClock) {
	t.Helper()
	mem := store.NewMemory(engine.NewCoins(startingCoins))
	catalog := engine.DefaultCatalog()
	clock := &stepClock{at: t0}
	valuer := engine.NewValuer(catalog, pinnedRand{})
	return farm.NewProcessor(mem, catalog, valuer, clock), mem, clock
}

func buyDog(t *testing.T, p *farm.Processor) farm.BuyResult {
	t.Helper()
	result, err := p.BuyAnimal(context.Background(), owner, farm.BuyAnimalInput{
		Kind: engine.KindDog,
		Name: "Rex",
	})
	require.NoError(t, err)
	return result
}

// =============================================================================
// BUY ANIMAL
// =============================================================================

func TestBuyAnimal_DebitsAndLogs(t *testing.T) {
	// GIVEN: A wallet with the 1000-coin starting balance
	// WHEN: Buying a dog (base price 150)
	// THEN: The wallet holds 850, the dog is at full health, one buy entry exists

	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	result := buyDog(t, p)

	assert.Equal(t, int64(150), result.Cost.IntPart())
	assert.Equal(t, int64(850), result.Balance.IntPart())
	assert.Equal(t, 100, result.Animal.Animal.Health)
	assert.Equal(t, engine.CategoryPet, result.Animal.Animal.Category)

	entries, err := p.Transactions(ctx, owner, engine.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, engine.ActionBuy, entries[0].Action)
	assert.Equal(t, engine.SubjectAnimal, entries[0].Subject)
	assert.Equal(t, int64(150), entries[0].Amount.IntPart())
}

func TestBuyAnimal_UnnamedPet_Rejected(t *testing.T) {
	// GIVEN: A pet purchase without a name
	// WHEN: Buying
	// THEN: Validation fails before any coin moves

	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	_, err := p.BuyAnimal(ctx, owner, farm.BuyAnimalInput{Kind: engine.KindCat})

	assert.ErrorIs(t, err, engine.ErrValidation)

	balance, err := p.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.IntPart())
}

func TestBuyAnimal_LivestockHerd(t *testing.T) {
	// Livestock may come as a herd; the debit scales with the head count.

	p, _, _ := newTestProcessor(t, 1000)

	result, err := p.BuyAnimal(context.Background(), owner, farm.BuyAnimalInput{
		Kind:     engine.KindChicken,
		Quantity: 6,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(300), result.Cost.IntPart())
	assert.Equal(t, 6, result.Animal.Animal.Quantity)
	assert.Equal(t, engine.CategoryLivestock, result.Animal.Animal.Category)
}

func TestBuyAnimal_InsufficientFunds(t *testing.T) {
	p, _, _ := newTestProcessor(t, 100)

	_, err := p.BuyAnimal(context.Background(), owner, farm.BuyAnimalInput{
		Kind: engine.KindHorse, // 500 coins
	})

	assert.ErrorIs(t, err, engine.ErrInsufficientFunds)
}

// =============================================================================
// READ PATH SETTLES DECAY
// =============================================================================

func TestListAnimals_SettlesAndPersistsDecay(t *testing.T) {
	// GIVEN: A dog bought 48 hours ago and never cared for
	// WHEN: Listing animals
	// THEN: Health shows 70 and the settled value is what the store now holds

	p, mem, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	result := buyDog(t, p)
	clock.advance(48 * time.Hour)

	views, err := p.ListAnimals(ctx, owner)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 70, views[0].Animal.Health)

	stored, err := mem.GetAnimal(ctx, owner, result.Animal.Animal.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, stored.Health, "settlement must be persisted")
}

func TestGetAnimal_ForeignOwner_NotFound(t *testing.T) {
	p, _, _ := newTestProcessor(t, 1000)

	result := buyDog(t, p)

	_, err := p.GetAnimal(context.Background(), "someone-else", result.Animal.Animal.ID)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

// =============================================================================
// CARE ACTIONS
// =============================================================================

func TestUseItem_LastUnitDeletesStack(t *testing.T) {
	// GIVEN: A single unit of dog food and a decayed dog
	// WHEN: The food is used
	// THEN: Health recovers, the stack is gone, one use entry exists

	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p)
	bought, err := p.BuyItem(ctx, owner, engine.ItemDogFood, 1)
	require.NoError(t, err)

	clock.advance(48 * time.Hour)
	result, err := p.UseItem(ctx, owner, dog.Animal.Animal.ID, bought.Item.ID)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Boost)
	assert.Equal(t, 80, result.Animal.Animal.Health)
	assert.Nil(t, result.Item, "emptied stack should be deleted")

	_, err = p.ListItems(ctx, owner)
	require.NoError(t, err)
	entries, err := p.Transactions(ctx, owner, engine.Filter{Action: engine.ActionUse})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Used Dog Food on Rex", entries[0].Description)

	// The entry's subject is the consumed item, even though the stack was
	// deleted before the entry was written.
	assert.Equal(t, engine.SubjectItem, entries[0].Subject)
	assert.Equal(t, string(bought.Item.ID), entries[0].SubjectID)
	assert.Equal(t, "Dog Food", entries[0].SubjectName)
}

func TestUseItem_Incompatible_NothingMutates(t *testing.T) {
	// GIVEN: Cat food and a dog
	// WHEN: Trying to use it
	// THEN: IncompatibleItemError, and neither record changed

	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p)
	bought, err := p.BuyItem(ctx, owner, engine.ItemCatFood, 2)
	require.NoError(t, err)

	clock.advance(48 * time.Hour)
	_, err = p.UseItem(ctx, owner, dog.Animal.Animal.ID, bought.Item.ID)

	assert.ErrorIs(t, err, engine.ErrIncompatibleItem)

	items, err := p.ListItems(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity, "failed use must not consume")
}

func TestUseItem_EmptyStack_Rejected(t *testing.T) {
	p, mem, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p)
	empty := &engine.Item{
		ID: "stale-stack", OwnerID: owner, Kind: engine.ItemDogFood,
		Name: "Dog Food", Quantity: 0, Targets: []engine.AnimalKind{engine.KindDog},
		CreatedAt: t0,
	}
	require.NoError(t, mem.SaveItem(ctx, empty))

	_, err := p.UseItem(ctx, owner, dog.Animal.Animal.ID, empty.ID)
	assert.ErrorIs(t, err, engine.ErrInsufficientQuantity)
}

func TestWater_UsesWaterStackByKind(t *testing.T) {
	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p)
	_, err := p.BuyItem(ctx, owner, engine.ItemWater, 5)
	require.NoError(t, err)

	clock.advance(48 * time.Hour)
	result, err := p.Water(ctx, owner, dog.Animal.Animal.ID)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Boost)
	require.NotNil(t, result.Item)
	assert.Equal(t, 4, result.Item.Quantity)
	assert.True(t, result.Animal.Animal.LastWatered.Equal(clock.Now()))
}

func TestCallVet_FullRestoreAndDebit(t *testing.T) {
	// GIVEN: A dog at 70 health
	// WHEN: The vet is called (dog visit costs 100)
	// THEN: Health is 100, wallet debited, one vet entry exists

	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p) // balance 850
	clock.advance(48 * time.Hour)

	result, err := p.CallVet(ctx, owner, dog.Animal.Animal.ID)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Animal.Animal.Health)
	assert.Equal(t, int64(100), result.Cost.IntPart())
	assert.Equal(t, int64(750), result.Balance.IntPart())

	entries, err := p.Transactions(ctx, owner, engine.Filter{Action: engine.ActionVet})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCallVet_InsufficientFunds_NothingMutates(t *testing.T) {
	// GIVEN: A wallet too small for the visit
	// WHEN: The vet is called on a decayed dog
	// THEN: InsufficientFundsError, and the stored health is untouched by the visit

	p, mem, clock := newTestProcessor(t, 150)
	ctx := context.Background()

	dog := buyDog(t, p) // balance 0
	clock.advance(48 * time.Hour)

	_, err := p.CallVet(ctx, owner, dog.Animal.Animal.ID)
	assert.ErrorIs(t, err, engine.ErrInsufficientFunds)

	stored, err := mem.GetAnimal(ctx, owner, dog.Animal.Animal.ID)
	require.NoError(t, err)
	assert.NotEqual(t, 100, stored.Health, "failed visit must not restore")
}

// =============================================================================
// SELL ANIMAL
// =============================================================================

func TestSellAnimal_CreditsAndDeletes(t *testing.T) {
	// GIVEN: A 90-day-old healthy dog, random factor pinned to 1.0
	// WHEN: It is sold
	// THEN: Wallet credited with 150*0.66*1.5*2.1 = 312, record deleted,
	//       one sell entry under the default idempotency key

	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p) // balance 850
	id := dog.Animal.Animal.ID
	clock.advance(90 * 24 * time.Hour)

	// Keep it fully cared for so the health factor stays at 1.5.
	_, err := p.CallVet(ctx, owner, id) // balance 750
	require.NoError(t, err)

	result, err := p.SellAnimal(ctx, owner, id, "")
	require.NoError(t, err)

	assert.Equal(t, int64(312), result.Price.IntPart())
	assert.Equal(t, int64(1062), result.Balance.IntPart())

	_, err = p.GetAnimal(ctx, owner, id)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	entries, err := p.Transactions(ctx, owner, engine.Filter{Action: engine.ActionSell})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sell-animal-"+string(id), entries[0].IdempotencyKey)
}

func TestSellAnimal_DuplicateKey_NoDoubleCredit(t *testing.T) {
	// GIVEN: A sell entry already recorded under the client's key
	// WHEN: The sell is retried with the same key
	// THEN: ErrDuplicateIdempotencyKey, no credit, animal still present

	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p) // balance 850
	id := dog.Animal.Animal.ID

	_, err := p.SellAnimal(ctx, owner, id, "client-key-7")
	require.NoError(t, err)

	second := buyDog(t, p)
	_, err = p.SellAnimal(ctx, owner, second.Animal.Animal.ID, "client-key-7")

	assert.ErrorIs(t, err, engine.ErrDuplicateIdempotencyKey)

	// The second animal survives and no second credit happened.
	_, err = p.GetAnimal(ctx, owner, second.Animal.Animal.ID)
	assert.NoError(t, err)
}

func TestSellAnimal_SettlesDecayBeforeValuing(t *testing.T) {
	// GIVEN: A dog neglected for 48 hours (health 70)
	// WHEN: It is sold
	// THEN: The price reflects the settled health factor (0.5 + 0.70 = 1.2)

	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p)
	clock.advance(48 * time.Hour)

	result, err := p.SellAnimal(ctx, owner, dog.Animal.Animal.ID, "")
	require.NoError(t, err)

	// 150*0.66 = 99; age 2 days -> 1.1; 99 * 1.2 * 1.1 = 130.68 -> 131
	assert.Equal(t, int64(131), result.Price.IntPart())
}

// =============================================================================
// ITEM MARKET
// =============================================================================

func TestBuyItem_TopsUpExistingStack(t *testing.T) {
	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	first, err := p.BuyItem(ctx, owner, engine.ItemWater, 5)
	require.NoError(t, err)
	second, err := p.BuyItem(ctx, owner, engine.ItemWater, 3)
	require.NoError(t, err)

	assert.Equal(t, first.Item.ID, second.Item.ID, "same kind goes to the same stack")
	assert.Equal(t, 8, second.Item.Quantity)
	assert.Equal(t, int64(15), second.Amount.IntPart())
	assert.Equal(t, int64(960), second.Balance.IntPart())
}

func TestBuyItem_UnknownKind_Rejected(t *testing.T) {
	p, _, _ := newTestProcessor(t, 1000)

	_, err := p.BuyItem(context.Background(), owner, "rocket_fuel", 1)
	assert.ErrorIs(t, err, engine.ErrValidation)
}

func TestSellItem_EightyPercentBuyback(t *testing.T) {
	// GIVEN: 10 gallons of water bought at 5 coins each
	// WHEN: Selling 4 back
	// THEN: Credit is 4*5*0.8 = 16 and 6 gallons remain

	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	bought, err := p.BuyItem(ctx, owner, engine.ItemWater, 10) // balance 950
	require.NoError(t, err)

	result, err := p.SellItem(ctx, owner, bought.Item.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, int64(16), result.Amount.IntPart())
	assert.Equal(t, int64(966), result.Balance.IntPart())
	require.NotNil(t, result.Item)
	assert.Equal(t, 6, result.Item.Quantity)
}

func TestSellItem_WholeStack_Deleted(t *testing.T) {
	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	bought, err := p.BuyItem(ctx, owner, engine.ItemTreats, 2)
	require.NoError(t, err)

	result, err := p.SellItem(ctx, owner, bought.Item.ID, 2)
	require.NoError(t, err)
	assert.Nil(t, result.Item)

	items, err := p.ListItems(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSellItem_ConcurrentSales_NeverOversell(t *testing.T) {
	// GIVEN: A stack of 3 water (bought for 15, unit sell-back 4)
	// WHEN: Five goroutines each try to sell one concurrently
	// THEN: Exactly three sales succeed and exactly three credits land

	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	bought, err := p.BuyItem(ctx, owner, engine.ItemWater, 3) // balance 985
	require.NoError(t, err)

	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.SellItem(ctx, owner, bought.Item.ID, 1); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), successes)

	balance, err := p.Balance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(997), balance.IntPart(), "985 + 3 sales at 4 each, never more")

	items, err := p.ListItems(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUseItem_ConcurrentUse_SingleConsumption(t *testing.T) {
	// GIVEN: One unit of premium feed and two animals (different lock keys)
	// WHEN: Both animals are fed from it concurrently
	// THEN: Exactly one use succeeds and exactly one use entry is logged

	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	dog := buyDog(t, p)
	cow, err := p.BuyAnimal(ctx, owner, farm.BuyAnimalInput{Kind: engine.KindCow})
	require.NoError(t, err)
	bought, err := p.BuyItem(ctx, owner, engine.ItemPremiumFeed, 1)
	require.NoError(t, err)

	clock.advance(48 * time.Hour)

	var wg sync.WaitGroup
	var successes int32
	for _, id := range []engine.AnimalID{dog.Animal.Animal.ID, cow.Animal.Animal.ID} {
		wg.Add(1)
		go func(id engine.AnimalID) {
			defer wg.Done()
			if _, err := p.UseItem(ctx, owner, id, bought.Item.ID); err == nil {
				atomic.AddInt32(&successes, 1)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)

	entries, err := p.Transactions(ctx, owner, engine.Filter{Action: engine.ActionUse})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSellItem_MoreThanOwned_Rejected(t *testing.T) {
	p, _, _ := newTestProcessor(t, 1000)
	ctx := context.Background()

	bought, err := p.BuyItem(ctx, owner, engine.ItemWater, 2)
	require.NoError(t, err)

	_, err = p.SellItem(ctx, owner, bought.Item.ID, 5)
	assert.ErrorIs(t, err, engine.ErrInsufficientQuantity)
}

// =============================================================================
// LEDGER READS
// =============================================================================

func TestTransactions_NewestFirstWithLimit(t *testing.T) {
	p, _, clock := newTestProcessor(t, 1000)
	ctx := context.Background()

	buyDog(t, p)
	clock.advance(time.Minute)
	_, err := p.BuyItem(ctx, owner, engine.ItemWater, 1)
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = p.BuyItem(ctx, owner, engine.ItemTreats, 1)
	require.NoError(t, err)

	entries, err := p.Transactions(ctx, owner, engine.Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Treats", entries[0].SubjectName)
	assert.Equal(t, "Water", entries[1].SubjectName)
}
