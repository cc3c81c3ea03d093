/*
Package seed loads a demo tea shop menu into an empty database.

PURPOSE:
  Gives the kiosk, cashier and manager screens something to show on a
  fresh install: ingredients with stock, products with prices and
  allergens, and the recipes linking them.

HOW IT WORKS:
  1. Skip if any product exists (never touches a live menu)
  2. Create ingredients
  3. Create products
  4. Attach recipes by ingredient name

USAGE:
  SEED_DEMO=true ./server
  ./server -seed
*/
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/warp/teapos/pos"
)

// =============================================================================
// DEMO MENU
// =============================================================================

type ingredient struct {
	name   string
	amount int64
}

type product struct {
	name      string
	price     string
	category  string
	allergens string
	// ingredient name -> units per cup
	recipe map[string]int64
}

var ingredients = []ingredient{
	{"Black Tea", 500},
	{"Green Tea", 500},
	{"Oolong Tea", 300},
	{"Milk", 800},
	{"Oat Milk", 200},
	{"Brown Sugar Syrup", 300},
	{"Taro Powder", 150},
	{"Matcha Powder", 120},
	{"Mango Puree", 150},
	{"Strawberry Puree", 150},
	{"Tapioca Pearls", 400},
	{"Lychee Jelly", 200},
	{"Cups", 1000},
}

var menu = []product{
	{"Classic Milk Tea", "5.50", "Milk Tea", "dairy",
		map[string]int64{"Black Tea": 1, "Milk": 2, "Tapioca Pearls": 1, "Cups": 1}},
	{"Brown Sugar Boba Milk", "6.25", "Milk Tea", "dairy",
		map[string]int64{"Milk": 3, "Brown Sugar Syrup": 1, "Tapioca Pearls": 2, "Cups": 1}},
	{"Taro Milk Tea", "6.00", "Milk Tea", "dairy",
		map[string]int64{"Black Tea": 1, "Milk": 2, "Taro Powder": 1, "Cups": 1}},
	{"Oolong Oat Latte", "6.00", "Milk Tea", "oats",
		map[string]int64{"Oolong Tea": 1, "Oat Milk": 2, "Cups": 1}},
	{"Matcha Latte", "6.50", "Specialty", "dairy",
		map[string]int64{"Matcha Powder": 1, "Milk": 2, "Cups": 1}},
	{"Mango Green Tea", "5.25", "Fruit Tea", pos.NoAllergens,
		map[string]int64{"Green Tea": 1, "Mango Puree": 1, "Cups": 1}},
	{"Strawberry Lychee Tea", "5.75", "Fruit Tea", pos.NoAllergens,
		map[string]int64{"Green Tea": 1, "Strawberry Puree": 1, "Lychee Jelly": 1, "Cups": 1}},
	{"Jasmine Green Tea", "4.25", "Brewed Tea", pos.NoAllergens,
		map[string]int64{"Green Tea": 1, "Cups": 1}},
}

// =============================================================================
// LOADER
// =============================================================================

// Load creates the demo menu when the catalog is empty. It reports whether
// anything was written.
func Load(ctx context.Context, catalog *pos.Catalog, logger *slog.Logger) (bool, error) {
	existing, err := catalog.Store.ListProducts(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check catalog: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("catalog not empty, skipping demo seed", "products", len(existing))
		return false, nil
	}

	itemIDs := make(map[string]int64, len(ingredients))
	for _, ing := range ingredients {
		amount := ing.amount
		item, err := catalog.CreateInventoryItem(ctx, pos.InventoryInput{Name: ing.name, Amount: &amount})
		if err != nil {
			return false, fmt.Errorf("failed to seed ingredient %s: %w", ing.name, err)
		}
		itemIDs[ing.name] = item.ID
	}

	for _, p := range menu {
		price := decimal.RequireFromString(p.price)
		created, err := catalog.CreateProduct(ctx, pos.ProductInput{
			Name:      p.name,
			Price:     &price,
			Category:  p.category,
			Allergens: p.allergens,
		})
		if err != nil {
			return false, fmt.Errorf("failed to seed product %s: %w", p.name, err)
		}

		entries := make([]pos.RecipeEntry, 0, len(p.recipe))
		for name, qty := range p.recipe {
			id, ok := itemIDs[name]
			if !ok {
				return false, fmt.Errorf("recipe for %s uses unknown ingredient %s", p.name, name)
			}
			entries = append(entries, pos.RecipeEntry{ItemID: id, QuantityUsed: qty})
		}
		if err := catalog.ReplaceRecipe(ctx, created.ID, entries); err != nil {
			return false, fmt.Errorf("failed to seed recipe for %s: %w", p.name, err)
		}
	}

	logger.Info("demo menu seeded", "products", len(menu), "ingredients", len(ingredients))
	return true, nil
}
