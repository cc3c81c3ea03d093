/*
store.go - Persistence interfaces used by the core workflows

KEY INTERFACES:
  LedgerStore:  Scoped transactions for order submission
  LedgerTx:     The reads and writes allowed inside one order
  CatalogStore: Product / inventory / recipe CRUD
  ReportStore:  Read-only aggregations over sale lines

SCOPED TRANSACTIONS:
  WithTx runs fn inside one database transaction. A nil return commits,
  any error (or panic) rolls back. The recorder never calls BEGIN or
  COMMIT itself.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite
  - pos/store: in-memory LedgerStore for tests
*/
package pos

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER - order submission
// =============================================================================

// LedgerStore opens scoped transactions.
type LedgerStore interface {
	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(LedgerTx) error) error
}

// LedgerTx is the view of the store inside one order transaction.
type LedgerTx interface {
	// NextTransactionNumber returns max(transaction_number) + 1.
	NextTransactionNumber(ctx context.Context) (int64, error)

	// InsertSaleLine appends a line and sets line.OrderID.
	InsertSaleLine(ctx context.Context, line *SaleLine) error

	// RecipeFor returns the ingredients one unit of productID consumes.
	RecipeFor(ctx context.Context, productID int64) ([]RecipeEntry, error)

	// InventoryItem returns ErrNotFound if the item has no row.
	InventoryItem(ctx context.Context, itemID int64) (InventoryItem, error)

	// DecrementInventory subtracts by from the item's amount.
	DecrementInventory(ctx context.Context, itemID int64, by int64) error
}

// =============================================================================
// CATALOG - manager CRUD
// =============================================================================

type CatalogStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListInventory(ctx context.Context) ([]InventoryItem, error)
	GetInventoryItem(ctx context.Context, id int64) (InventoryItem, error)
	CreateInventoryItem(ctx context.Context, item InventoryItem) (InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, item InventoryItem) (InventoryItem, error)

	ListRecipe(ctx context.Context, productID int64) ([]RecipeEntry, error)
	ReplaceRecipe(ctx context.Context, productID int64, entries []RecipeEntry) error
	// DeleteRecipe returns ErrNotFound when the product had no recipe rows.
	DeleteRecipe(ctx context.Context, productID int64) error
}

// =============================================================================
// REPORTS - read-only
// =============================================================================

// Period is the open reporting period: sales after Since, or at or after
// Since when Inclusive is set (no closure yet, period starts at midnight).
type Period struct {
	Since     time.Time
	Inclusive bool
}

// HourlySales is one hour-of-day bucket as returned by the store.
type HourlySales struct {
	Hour   int
	Orders int64
	Sales  decimal.Decimal
}

// ClosingTotals is the raw Z-report aggregate.
type ClosingTotals struct {
	TotalSales        decimal.Decimal
	TotalTransactions int64
	BestSeller        *BestSeller
}

type BestSeller struct {
	ProductID   int64
	ProductName string
	Orders      int64
}

// ProductSales is revenue and quantity for one product in a date range.
type ProductSales struct {
	ProductID    int64
	ProductName  string
	QuantitySold int64
	Revenue      decimal.Decimal
}

// IngredientUsage is consumption of one ingredient in a date range.
type IngredientUsage struct {
	ItemID       int64
	ItemName     string
	Used         int64
	CurrentStock int64
}

type ReportStore interface {
	// LatestClosure returns ErrNotFound when the business was never closed.
	LatestClosure(ctx context.Context) (ClosureMarker, error)
	HourlySales(ctx context.Context, p Period) ([]HourlySales, error)
	ClosingTotals(ctx context.Context, p Period) (ClosingTotals, error)
	// ProductSales and IngredientUsage cover [from, to).
	ProductSales(ctx context.Context, from, to time.Time) ([]ProductSales, error)
	IngredientUsage(ctx context.Context, from, to time.Time) ([]IngredientUsage, error)
}
