/*
seed.go - Demo farm seeding

PURPOSE:
  Populates a recognizable demo farm for local development and manual
  testing. Everything goes through the processor's own buy operations so
  the ledger and wallet reflect the purchases, just like real traffic.
*/
package api

import (
	"context"
	"fmt"
	"log"

	"github.com/warp/farm-engine/engine"
	"github.com/warp/farm-engine/farm"
)

// DemoOwner is the account the demo farm is seeded under.
const DemoOwner engine.OwnerID = "demo"

// SeedDemoFarm buys a small spread of animals and supplies for the demo
// owner. Idempotent in effect: a second run just fails the purchases once
// the wallet runs dry, and the existing records stay put.
func SeedDemoFarm(ctx context.Context, p *farm.Processor) error {
	// Everything below fits inside the default 1000-coin starting balance.
	animals := []farm.BuyAnimalInput{
		{Kind: engine.KindDog, Name: "Rex"},
		{Kind: engine.KindCat, Name: "Whiskers"},
		{Kind: engine.KindChicken, Quantity: 4},
		{Kind: engine.KindCow, Quantity: 1},
	}
	for _, in := range animals {
		if _, err := p.BuyAnimal(ctx, DemoOwner, in); err != nil {
			return fmt.Errorf("failed to seed %s: %w", in.Kind, err)
		}
	}

	items := []struct {
		kind engine.ItemKind
		qty  int
	}{
		{engine.ItemDogFood, 3},
		{engine.ItemCatFood, 3},
		{engine.ItemLivestockFeed, 8},
		{engine.ItemWater, 10},
	}
	for _, it := range items {
		if _, err := p.BuyItem(ctx, DemoOwner, it.kind, it.qty); err != nil {
			return fmt.Errorf("failed to seed %s: %w", it.kind, err)
		}
	}

	log.Printf("seeded demo farm for owner %q", DemoOwner)
	return nil
}
