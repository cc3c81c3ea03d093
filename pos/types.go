/*
Package pos provides the point-of-sale core for the tea shop.

PURPOSE:
  Holds the domain types shared by the store, the HTTP layer and the
  two workflows that matter: recording an order (sale lines + inventory
  decrement, all or nothing) and aggregating persisted sales into reports.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: something on the menu with a price
  - InventoryItem: an ingredient with stock on hand
  - RecipeEntry: how much of an ingredient one unit of a product consumes
  - SaleLine: one persisted cart line (append-only)
  - ClosureMarker: a reporting-period boundary ("Z close")
  - Order / OrderItem: what a kiosk or cashier submits

MONEY:
  Prices use decimal.Decimal. Quantities of stock are whole units.

SEE ALSO:
  - recorder.go: order submission
  - reports.go: X/Z reports, range reports
  - catalog.go: product and inventory validation
*/
package pos

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG
// =============================================================================

// NoAllergens is stored when a product declares no allergen tags.
const NoAllergens = "none"

type Product struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	Category  string
	Allergens string
}

// InventoryItem is one ingredient in the stock ledger.
// Amount never goes below zero in a committed state.
type InventoryItem struct {
	ID     int64
	Name   string
	Amount int64
}

// RecipeEntry says one unit of ProductID consumes QuantityUsed of ItemID.
type RecipeEntry struct {
	ProductID    int64
	ItemID       int64
	QuantityUsed int64
}

// =============================================================================
// SALES LEDGER
// =============================================================================

const (
	// GuestCustomer is the customer id recorded for walk-in sales.
	GuestCustomer int64 = 0

	DefaultIce    = "Regular"
	NoToppings    = "None"
	toppingJoiner = ", "
)

// SaleLine is one persisted cart line. Lines are never updated after insert.
type SaleLine struct {
	OrderID           int64
	TransactionNumber int64
	ProductID         int64
	ProductName       string // populated on reads only
	CustomerID        int64
	PurchasedAt       time.Time
	Quantity          int64
	UnitPrice         decimal.Decimal
	IceAmount         string
	ToppingSelection  string
}

// Total is the revenue the line contributes.
func (l SaleLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

type ClosureMarker struct {
	ID       int64
	ClosedAt time.Time
}

// =============================================================================
// ORDERS
// =============================================================================

// Order is a submission from a client surface.
// TransactionNumber is accepted for compatibility; the recorder assigns its own.
type Order struct {
	CustomerID        int64
	TransactionDate   *time.Time
	TransactionNumber int64
	Items             []OrderItem
}

type OrderItem struct {
	ProductID      int64
	Quantity       int64
	Price          decimal.Decimal
	Customizations Customizations
}

// Customizations carries drink options from the client.
// Toppings values are arbitrary JSON; a topping counts when its value is truthy.
type Customizations struct {
	Ice      string         `json:"ice,omitempty"`
	Toppings map[string]any `json:"toppings,omitempty"`
}

// IceAmount returns the ice level to record, defaulting to DefaultIce.
func (c Customizations) IceAmount() string {
	if ice := strings.TrimSpace(c.Ice); ice != "" {
		return ice
	}
	return DefaultIce
}

// ToppingSelection joins the selected topping keys in sorted order.
// Returns NoToppings when nothing is selected.
func (c Customizations) ToppingSelection() string {
	var keys []string
	for k, v := range c.Toppings {
		k = strings.TrimSpace(k)
		if k == "" || !truthy(v) {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return NoToppings
	}
	sort.Strings(keys)
	return strings.Join(keys, toppingJoiner)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		return strings.TrimSpace(t) != ""
	default:
		// objects and arrays
		return true
	}
}
