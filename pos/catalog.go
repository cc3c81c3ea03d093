package pos

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductInput is a create or update request for a product.
type ProductInput struct {
	Name      string
	Price     *decimal.Decimal
	Category  string
	Allergens string
}

// Normalize trims fields and checks them. Allergens default to NoAllergens.
func (in ProductInput) Normalize() (Product, error) {
	p := Product{
		Name:      strings.TrimSpace(in.Name),
		Category:  strings.TrimSpace(in.Category),
		Allergens: strings.TrimSpace(in.Allergens),
	}
	if p.Name == "" {
		return Product{}, invalid("product_name", "must not be empty")
	}
	if in.Price == nil {
		return Product{}, invalid("price", "is required")
	}
	if in.Price.IsNegative() {
		return Product{}, invalid("price", "must not be negative")
	}
	p.Price = *in.Price
	if p.Allergens == "" {
		p.Allergens = NoAllergens
	}
	return p, nil
}

// InventoryInput is a create or update request for an ingredient.
type InventoryInput struct {
	Name   string
	Amount *int64
}

func (in InventoryInput) Normalize() (InventoryItem, error) {
	item := InventoryItem{Name: strings.TrimSpace(in.Name)}
	if item.Name == "" {
		return InventoryItem{}, invalid("item_name", "must not be empty")
	}
	if in.Amount == nil {
		return InventoryItem{}, invalid("amount", "is required")
	}
	if *in.Amount < 0 {
		return InventoryItem{}, invalid("amount", "must not be negative")
	}
	item.Amount = *in.Amount
	return item, nil
}

// ValidateRecipe checks a recipe before it replaces the stored one.
func ValidateRecipe(entries []RecipeEntry) error {
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if e.ItemID <= 0 {
			return invalid("item_id", "is required for every entry")
		}
		if e.QuantityUsed <= 0 {
			return invalid("quantity_used", "must be positive")
		}
		if seen[e.ItemID] {
			return invalid("item_id", "listed more than once")
		}
		seen[e.ItemID] = true
	}
	return nil
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog wraps CatalogStore with input validation.
type Catalog struct {
	Store  CatalogStore
	Logger *slog.Logger
}

func NewCatalog(store CatalogStore, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{Store: store, Logger: logger}
}

func (c *Catalog) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	p, err := in.Normalize()
	if err != nil {
		return Product{}, err
	}
	return c.Store.CreateProduct(ctx, p)
}

func (c *Catalog) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	p, err := in.Normalize()
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	return c.Store.UpdateProduct(ctx, p)
}

// DeleteProduct removes the product, then its recipe rows.
//
// The second step is best effort: a product with no recipe is expected
// (ErrNotFound is swallowed silently) and any other failure is logged
// and swallowed, since the product is already gone.
func (c *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.Store.DeleteProduct(ctx, id); err != nil {
		return err
	}

	err := c.Store.DeleteRecipe(ctx, id)
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
	default:
		c.Logger.Warn("recipe cleanup failed after product delete",
			"product_id", id,
			"error", err)
	}
	return nil
}

func (c *Catalog) CreateInventoryItem(ctx context.Context, in InventoryInput) (InventoryItem, error) {
	item, err := in.Normalize()
	if err != nil {
		return InventoryItem{}, err
	}
	return c.Store.CreateInventoryItem(ctx, item)
}

func (c *Catalog) UpdateInventoryItem(ctx context.Context, id int64, in InventoryInput) (InventoryItem, error) {
	item, err := in.Normalize()
	if err != nil {
		return InventoryItem{}, err
	}
	item.ID = id
	return c.Store.UpdateInventoryItem(ctx, item)
}

// ReplaceRecipe validates the entries and swaps them in for productID.
func (c *Catalog) ReplaceRecipe(ctx context.Context, productID int64, entries []RecipeEntry) error {
	if err := ValidateRecipe(entries); err != nil {
		return err
	}
	if _, err := c.Store.GetProduct(ctx, productID); err != nil {
		return err
	}
	for i := range entries {
		entries[i].ProductID = productID
	}
	return c.Store.ReplaceRecipe(ctx, productID, entries)
}
