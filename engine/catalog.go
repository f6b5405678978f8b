/*
catalog.go - Injected lookup tables

PURPOSE:
  Gathers every per-kind default (base prices, vet costs, item effects and
  compatibility) into one configuration structure owned by the caller. The
  engine never reaches for scattered literals, which keeps tests free to
  run against synthetic catalogs.

DATA SHAPE:
  BasePrices: animal kind -> purchase/valuation base price
  VetCosts:   animal kind -> cost of a full-restore vet visit
  Items:      item kind   -> defaults for a purchasable inventory stack

  Boost magnitudes deliberately live on item records, not in the health
  engine; historical variants of this logic disagreed on water and premium
  feed boosts, and carrying them as data ends the drift.
*/
package engine

// ItemSpec holds the purchasable defaults for one item kind.
type ItemSpec struct {
	Name        string
	Unit        string
	UnitPrice   Coins
	HealthBoost int
	Targets     []AnimalKind
}

// Catalog bundles the per-kind lookup tables the engine operates against.
type Catalog struct {
	BasePrices map[AnimalKind]Coins
	VetCosts   map[AnimalKind]Coins
	Items      map[ItemKind]ItemSpec
}

// BasePrice returns the fixed base price for an animal kind.
func (c *Catalog) BasePrice(k AnimalKind) Coins {
	return c.BasePrices[k]
}

// VetCost returns the vet visit cost for an animal kind, defaulting to 100
// coins for kinds the table doesn't name.
func (c *Catalog) VetCost(k AnimalKind) Coins {
	if cost, ok := c.VetCosts[k]; ok {
		return cost
	}
	return NewCoins(100)
}

// ItemSpec returns the defaults for an item kind.
func (c *Catalog) ItemSpec(k ItemKind) (ItemSpec, bool) {
	spec, ok := c.Items[k]
	return spec, ok
}

// allKinds is the compatibility set for items usable on every animal.
var allKinds = []AnimalKind{
	KindDog, KindCat, KindCow, KindPig, KindChicken, KindHorse, KindSheep, KindGoat,
}

var livestockKinds = []AnimalKind{
	KindCow, KindPig, KindChicken, KindHorse, KindSheep, KindGoat,
}

// DefaultCatalog returns the stock game data.
func DefaultCatalog() *Catalog {
	return &Catalog{
		BasePrices: map[AnimalKind]Coins{
			KindCat:     NewCoins(100),
			KindDog:     NewCoins(150),
			KindChicken: NewCoins(50),
			KindCow:     NewCoins(300),
			KindHorse:   NewCoins(500),
			KindPig:     NewCoins(200),
			KindSheep:   NewCoins(250),
			KindGoat:    NewCoins(200),
		},
		VetCosts: map[AnimalKind]Coins{
			KindDog:     NewCoins(100),
			KindCat:     NewCoins(80),
			KindCow:     NewCoins(150),
			KindPig:     NewCoins(120),
			KindChicken: NewCoins(30),
			KindHorse:   NewCoins(200),
			KindSheep:   NewCoins(100),
			KindGoat:    NewCoins(90),
		},
		Items: map[ItemKind]ItemSpec{
			ItemDogFood: {
				Name: "Dog Food", Unit: "lbs", UnitPrice: NewCoins(20),
				HealthBoost: 10, Targets: []AnimalKind{KindDog},
			},
			ItemCatFood: {
				Name: "Cat Food", Unit: "lbs", UnitPrice: NewCoins(15),
				HealthBoost: 10, Targets: []AnimalKind{KindCat},
			},
			ItemLivestockFeed: {
				Name: "Livestock Feed", Unit: "lbs", UnitPrice: NewCoins(10),
				HealthBoost: 10, Targets: livestockKinds,
			},
			ItemFeed: {
				Name: "Animal Feed", Unit: "lbs", UnitPrice: NewCoins(20),
				HealthBoost: 10, Targets: livestockKinds,
			},
			ItemPremiumFeed: {
				Name: "Premium Feed", Unit: "lbs", UnitPrice: NewCoins(50),
				HealthBoost: 25, Targets: allKinds,
			},
			ItemWater: {
				Name: "Water", Unit: "gallons", UnitPrice: NewCoins(5),
				HealthBoost: 10, Targets: allKinds,
			},
			ItemMedicine: {
				Name: "General Medicine", Unit: "units", UnitPrice: NewCoins(50),
				HealthBoost: 30, Targets: allKinds,
			},
			ItemBasicMedicine: {
				Name: "Basic Medicine", Unit: "units", UnitPrice: NewCoins(30),
				HealthBoost: 20, Targets: allKinds,
			},
			ItemAdvancedMedicine: {
				Name: "Advanced Medicine", Unit: "units", UnitPrice: NewCoins(80),
				HealthBoost: 40, Targets: allKinds,
			},
			ItemVitamins: {
				Name: "Animal Vitamins", Unit: "units", UnitPrice: NewCoins(40),
				HealthBoost: 15, Targets: allKinds,
			},
			ItemTreats: {
				Name: "Treats", Unit: "units", UnitPrice: NewCoins(10),
				HealthBoost: 2, Targets: []AnimalKind{KindDog, KindCat},
			},
		},
	}
}
