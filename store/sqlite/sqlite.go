/*
Package sqlite provides a SQLite-backed implementation of the pos store interfaces.

PURPOSE:
  Implements pos.LedgerStore, pos.CatalogStore and pos.ReportStore on a
  single SQLite database through sqlx. The store handle is created once
  at startup and closed on shutdown; handlers receive it explicitly.

KEY TABLES:
  products:          menu items, price stored as decimal text
  inventory:         ingredients, amount >= 0 enforced by CHECK
  recipes:           (product, ingredient) -> quantity used per unit
  sale_lines:        append-only sales ledger, one row per cart line
  business_closures: append-only reporting period boundaries

TIMESTAMPS:
  Stored as 'YYYY-MM-DD HH:MM:SS' in the store's business timezone so
  string comparison orders them and strftime('%H') yields local hours.

CONCURRENCY:
  The pool is limited to one connection; SQLite serializes writers and
  an in-memory database stays a single database. Stock checks inside
  an order are not version-checked.

USAGE:
  store, err := sqlite.New("./data/teapos.db", sqlite.WithLocation(loc))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/teapos/pos"
)

// Timestamps are stored with a fixed six-digit fraction so text order is
// time order. Parsing accepts any fraction, including none.
const (
	timeLayout  = "2006-01-02 15:04:05.000000"
	parseLayout = "2006-01-02 15:04:05"
)

var (
	_ pos.LedgerStore  = (*Store)(nil)
	_ pos.CatalogStore = (*Store)(nil)
	_ pos.ReportStore  = (*Store)(nil)
)

// Store implements the pos storage interfaces using SQLite.
type Store struct {
	db     *sqlx.DB
	loc    *time.Location
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the business timezone used for stored timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New opens the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, loc: time.Local, logger: slog.Default()}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing database")
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Location is the business timezone timestamps are stored in.
func (s *Store) Location() *time.Location {
	return s.loc
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		product_id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_name TEXT NOT NULL,
		price TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		allergens TEXT NOT NULL DEFAULT 'none'
	);

	CREATE TABLE IF NOT EXISTS inventory (
		item_id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_name TEXT NOT NULL,
		amount INTEGER NOT NULL CHECK (amount >= 0)
	);

	-- Static per-product consumption. Not FK-bound: a recipe may outlive
	-- its product until cleanup, and a missing ingredient fails the order.
	CREATE TABLE IF NOT EXISTS recipes (
		product_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		quantity_used INTEGER NOT NULL CHECK (quantity_used > 0),
		PRIMARY KEY (product_id, item_id)
	);

	-- Sales ledger (append-only)
	CREATE TABLE IF NOT EXISTS sale_lines (
		order_id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_number INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		customer_id INTEGER NOT NULL DEFAULT 0,
		purchased_at TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		ice_amount TEXT NOT NULL,
		topping_selection TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sale_lines_purchased_at
		ON sale_lines(purchased_at);
	CREATE INDEX IF NOT EXISTS idx_sale_lines_transaction
		ON sale_lines(transaction_number);
	CREATE INDEX IF NOT EXISTS idx_sale_lines_product
		ON sale_lines(product_id);

	CREATE TABLE IF NOT EXISTS business_closures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		closed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_business_closures_closed_at
		ON business_closures(closed_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCOPED TRANSACTIONS (pos.LedgerStore)
// =============================================================================

// WithTx executes fn within a database transaction.
// A nil return commits; an error or panic rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(pos.LedgerTx) error) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&ledgerTx{tx: tx, store: s})
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// no-op after a successful commit
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		s.logger.Debug("transaction rolled back", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type ledgerTx struct {
	tx    *sqlx.Tx
	store *Store
}

func (l *ledgerTx) NextTransactionNumber(ctx context.Context) (int64, error) {
	var next int64
	err := l.tx.GetContext(ctx, &next,
		"SELECT COALESCE(MAX(transaction_number), 0) + 1 FROM sale_lines")
	if err != nil {
		return 0, fmt.Errorf("failed to read transaction number: %w", err)
	}
	return next, nil
}

func (l *ledgerTx) InsertSaleLine(ctx context.Context, line *pos.SaleLine) error {
	row := l.store.toSaleLineRow(*line)

	res, err := l.tx.NamedExecContext(ctx, `
		INSERT INTO sale_lines
		(transaction_number, product_id, customer_id, purchased_at, quantity,
		 unit_price, ice_amount, topping_selection)
		VALUES (:transaction_number, :product_id, :customer_id, :purchased_at, :quantity,
		 :unit_price, :ice_amount, :topping_selection)
	`, row)
	if err != nil {
		return fmt.Errorf("failed to insert sale line: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read sale line id: %w", err)
	}
	line.OrderID = id
	return nil
}

func (l *ledgerTx) RecipeFor(ctx context.Context, productID int64) ([]pos.RecipeEntry, error) {
	return selectRecipe(ctx, l.tx, productID)
}

func (l *ledgerTx) InventoryItem(ctx context.Context, itemID int64) (pos.InventoryItem, error) {
	return getInventoryItem(ctx, l.tx, itemID)
}

func (l *ledgerTx) DecrementInventory(ctx context.Context, itemID int64, by int64) error {
	res, err := l.tx.ExecContext(ctx,
		"UPDATE inventory SET amount = amount - ? WHERE item_id = ?", by, itemID)
	if err != nil {
		return fmt.Errorf("failed to decrement inventory %d: %w", itemID, err)
	}
	return expectRow(res, itemID)
}

// =============================================================================
// PRODUCTS
// =============================================================================

type productRow struct {
	ID        int64  `db:"product_id"`
	Name      string `db:"product_name"`
	Price     string `db:"price"`
	Category  string `db:"category"`
	Allergens string `db:"allergens"`
}

func (r productRow) toProduct() pos.Product {
	return pos.Product{
		ID:        r.ID,
		Name:      r.Name,
		Price:     parseDecimal(r.Price),
		Category:  r.Category,
		Allergens: r.Allergens,
	}
}

const productColumns = "product_id, product_name, price, category, allergens"

// ListProducts returns the catalog ordered by id.
func (s *Store) ListProducts(ctx context.Context) ([]pos.Product, error) {
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT "+productColumns+" FROM products ORDER BY product_id"); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]pos.Product, len(rows))
	for i, r := range rows {
		products[i] = r.toProduct()
	}
	return products, nil
}

// GetProduct returns pos.ErrNotFound if id is absent.
func (s *Store) GetProduct(ctx context.Context, id int64) (pos.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+productColumns+" FROM products WHERE product_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return pos.Product{}, fmt.Errorf("product %d: %w", id, pos.ErrNotFound)
	}
	if err != nil {
		return pos.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return row.toProduct(), nil
}

func (s *Store) CreateProduct(ctx context.Context, p pos.Product) (pos.Product, error) {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO products (product_name, price, category, allergens)
		VALUES (:product_name, :price, :category, :allergens)
	`, toProductRow(p))
	if err != nil {
		return pos.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return pos.Product{}, fmt.Errorf("failed to read product id: %w", err)
	}
	return s.GetProduct(ctx, id)
}

// UpdateProduct overwrites every field; pos.ErrNotFound if p.ID is absent.
func (s *Store) UpdateProduct(ctx context.Context, p pos.Product) (pos.Product, error) {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE products
		SET product_name = :product_name, price = :price, category = :category, allergens = :allergens
		WHERE product_id = :product_id
	`, toProductRow(p))
	if err != nil {
		return pos.Product{}, fmt.Errorf("failed to update product: %w", err)
	}
	if err := expectRow(res, p.ID); err != nil {
		return pos.Product{}, err
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE product_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectRow(res, id)
}

func toProductRow(p pos.Product) productRow {
	return productRow{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.String(),
		Category:  p.Category,
		Allergens: p.Allergens,
	}
}

// =============================================================================
// INVENTORY
// =============================================================================

type inventoryRow struct {
	ID     int64  `db:"item_id"`
	Name   string `db:"item_name"`
	Amount int64  `db:"amount"`
}

func (r inventoryRow) toItem() pos.InventoryItem {
	return pos.InventoryItem{ID: r.ID, Name: r.Name, Amount: r.Amount}
}

func (s *Store) ListInventory(ctx context.Context) ([]pos.InventoryItem, error) {
	var rows []inventoryRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT item_id, item_name, amount FROM inventory ORDER BY item_id"); err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	items := make([]pos.InventoryItem, len(rows))
	for i, r := range rows {
		items[i] = r.toItem()
	}
	return items, nil
}

func (s *Store) GetInventoryItem(ctx context.Context, id int64) (pos.InventoryItem, error) {
	return getInventoryItem(ctx, s.db, id)
}

func getInventoryItem(ctx context.Context, q sqlx.QueryerContext, id int64) (pos.InventoryItem, error) {
	var row inventoryRow
	err := sqlx.GetContext(ctx, q, &row,
		"SELECT item_id, item_name, amount FROM inventory WHERE item_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return pos.InventoryItem{}, fmt.Errorf("inventory item %d: %w", id, pos.ErrNotFound)
	}
	if err != nil {
		return pos.InventoryItem{}, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return row.toItem(), nil
}

func (s *Store) CreateInventoryItem(ctx context.Context, item pos.InventoryItem) (pos.InventoryItem, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO inventory (item_name, amount) VALUES (?, ?)", item.Name, item.Amount)
	if err != nil {
		return pos.InventoryItem{}, fmt.Errorf("failed to create inventory item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return pos.InventoryItem{}, fmt.Errorf("failed to read inventory id: %w", err)
	}
	return s.GetInventoryItem(ctx, id)
}

// UpdateInventoryItem sets name and amount (restock or correction).
func (s *Store) UpdateInventoryItem(ctx context.Context, item pos.InventoryItem) (pos.InventoryItem, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inventory SET item_name = ?, amount = ? WHERE item_id = ?",
		item.Name, item.Amount, item.ID)
	if err != nil {
		return pos.InventoryItem{}, fmt.Errorf("failed to update inventory item: %w", err)
	}
	if err := expectRow(res, item.ID); err != nil {
		return pos.InventoryItem{}, err
	}
	return s.GetInventoryItem(ctx, item.ID)
}

// =============================================================================
// RECIPES
// =============================================================================

type recipeRow struct {
	ProductID    int64 `db:"product_id"`
	ItemID       int64 `db:"item_id"`
	QuantityUsed int64 `db:"quantity_used"`
}

func (s *Store) ListRecipe(ctx context.Context, productID int64) ([]pos.RecipeEntry, error) {
	return selectRecipe(ctx, s.db, productID)
}

func selectRecipe(ctx context.Context, q sqlx.QueryerContext, productID int64) ([]pos.RecipeEntry, error) {
	var rows []recipeRow
	if err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT product_id, item_id, quantity_used
		FROM recipes WHERE product_id = ? ORDER BY item_id
	`, productID); err != nil {
		return nil, fmt.Errorf("failed to load recipe for product %d: %w", productID, err)
	}

	entries := make([]pos.RecipeEntry, len(rows))
	for i, r := range rows {
		entries[i] = pos.RecipeEntry{ProductID: r.ProductID, ItemID: r.ItemID, QuantityUsed: r.QuantityUsed}
	}
	return entries, nil
}

// ReplaceRecipe swaps a product's recipe atomically. Every referenced
// ingredient must exist.
func (s *Store) ReplaceRecipe(ctx context.Context, productID int64, entries []pos.RecipeEntry) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, e := range entries {
			if _, err := getInventoryItem(ctx, tx, e.ItemID); err != nil {
				if pos.IsNotFound(err) {
					return fmt.Errorf("%w: inventory item %d does not exist", pos.ErrValidation, e.ItemID)
				}
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM recipes WHERE product_id = ?", productID); err != nil {
			return fmt.Errorf("failed to clear recipe: %w", err)
		}
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO recipes (product_id, item_id, quantity_used) VALUES (?, ?, ?)",
				productID, e.ItemID, e.QuantityUsed); err != nil {
				return fmt.Errorf("failed to insert recipe entry: %w", err)
			}
		}
		return nil
	})
}

// DeleteRecipe returns pos.ErrNotFound when the product had no recipe rows.
func (s *Store) DeleteRecipe(ctx context.Context, productID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE product_id = ?", productID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return expectRow(res, productID)
}

// =============================================================================
// SALES LEDGER
// =============================================================================

type saleLineRow struct {
	OrderID           int64          `db:"order_id"`
	TransactionNumber int64          `db:"transaction_number"`
	ProductID         int64          `db:"product_id"`
	ProductName       sql.NullString `db:"product_name"`
	CustomerID        int64          `db:"customer_id"`
	PurchasedAt       string         `db:"purchased_at"`
	Quantity          int64          `db:"quantity"`
	UnitPrice         string         `db:"unit_price"`
	IceAmount         string         `db:"ice_amount"`
	ToppingSelection  string         `db:"topping_selection"`
}

func (s *Store) toSaleLineRow(l pos.SaleLine) saleLineRow {
	return saleLineRow{
		OrderID:           l.OrderID,
		TransactionNumber: l.TransactionNumber,
		ProductID:         l.ProductID,
		CustomerID:        l.CustomerID,
		PurchasedAt:       s.formatTime(l.PurchasedAt),
		Quantity:          l.Quantity,
		UnitPrice:         l.UnitPrice.String(),
		IceAmount:         l.IceAmount,
		ToppingSelection:  l.ToppingSelection,
	}
}

func (s *Store) fromSaleLineRow(r saleLineRow) pos.SaleLine {
	return pos.SaleLine{
		OrderID:           r.OrderID,
		TransactionNumber: r.TransactionNumber,
		ProductID:         r.ProductID,
		ProductName:       r.ProductName.String,
		CustomerID:        r.CustomerID,
		PurchasedAt:       s.parseTime(r.PurchasedAt),
		Quantity:          r.Quantity,
		UnitPrice:         parseDecimal(r.UnitPrice),
		IceAmount:         r.IceAmount,
		ToppingSelection:  r.ToppingSelection,
	}
}

// ListSaleLines returns the newest limit lines.
func (s *Store) ListSaleLines(ctx context.Context, limit int) ([]pos.SaleLine, error) {
	var rows []saleLineRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT sl.order_id, sl.transaction_number, sl.product_id, p.product_name,
		       sl.customer_id, sl.purchased_at, sl.quantity, sl.unit_price,
		       sl.ice_amount, sl.topping_selection
		FROM sale_lines sl
		LEFT JOIN products p ON p.product_id = sl.product_id
		ORDER BY sl.purchased_at DESC, sl.order_id DESC
		LIMIT ?
	`, limit); err != nil {
		return nil, fmt.Errorf("failed to list sale lines: %w", err)
	}

	lines := make([]pos.SaleLine, len(rows))
	for i, r := range rows {
		lines[i] = s.fromSaleLineRow(r)
	}
	return lines, nil
}

// =============================================================================
// BUSINESS CLOSURES
// =============================================================================

type closureRow struct {
	ID       int64  `db:"id"`
	ClosedAt string `db:"closed_at"`
}

// CloseBusiness appends a closure marker at the given time.
func (s *Store) CloseBusiness(ctx context.Context, at time.Time) (pos.ClosureMarker, error) {
	closedAt := s.formatTime(at)
	res, err := s.db.ExecContext(ctx, "INSERT INTO business_closures (closed_at) VALUES (?)", closedAt)
	if err != nil {
		return pos.ClosureMarker{}, fmt.Errorf("failed to close business: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return pos.ClosureMarker{}, fmt.Errorf("failed to read closure id: %w", err)
	}
	return pos.ClosureMarker{ID: id, ClosedAt: s.parseTime(closedAt)}, nil
}

// LatestClosure returns pos.ErrNotFound when no closure exists.
func (s *Store) LatestClosure(ctx context.Context) (pos.ClosureMarker, error) {
	var row closureRow
	err := s.db.GetContext(ctx, &row,
		"SELECT id, closed_at FROM business_closures ORDER BY closed_at DESC, id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return pos.ClosureMarker{}, pos.ErrNotFound
	}
	if err != nil {
		return pos.ClosureMarker{}, fmt.Errorf("failed to get latest closure: %w", err)
	}
	return pos.ClosureMarker{ID: row.ID, ClosedAt: s.parseTime(row.ClosedAt)}, nil
}

func (s *Store) ListClosures(ctx context.Context) ([]pos.ClosureMarker, error) {
	var rows []closureRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT id, closed_at FROM business_closures ORDER BY closed_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("failed to list closures: %w", err)
	}

	markers := make([]pos.ClosureMarker, len(rows))
	for i, r := range rows {
		markers[i] = pos.ClosureMarker{ID: r.ID, ClosedAt: s.parseTime(r.ClosedAt)}
	}
	return markers, nil
}

// =============================================================================
// REPORTS (pos.ReportStore)
// =============================================================================

// saleAmount is one sale line priced for aggregation. Money is summed with
// decimal in Go, never in SQL.
type saleAmount struct {
	Hour      int    `db:"hour"`
	ProductID int64  `db:"product_id"`
	Name      string `db:"product_name"`
	Quantity  int64  `db:"quantity"`
	UnitPrice string `db:"unit_price"`
	TxNumber  int64  `db:"transaction_number"`
}

func (a saleAmount) total() decimal.Decimal {
	return parseDecimal(a.UnitPrice).Mul(decimal.NewFromInt(a.Quantity))
}

// periodLines loads every sale line in the open period.
func (s *Store) periodLines(ctx context.Context, p pos.Period) ([]saleAmount, error) {
	op := ">"
	if p.Inclusive {
		op = ">="
	}
	var rows []saleAmount
	err := s.db.SelectContext(ctx, &rows, `
		SELECT CAST(strftime('%H', sl.purchased_at) AS INTEGER) AS hour,
		       sl.product_id,
		       COALESCE(p.product_name, '') AS product_name,
		       sl.quantity, sl.unit_price, sl.transaction_number
		FROM sale_lines sl
		LEFT JOIN products p ON p.product_id = sl.product_id
		WHERE sl.purchased_at `+op+` ?
		ORDER BY sl.order_id
	`, s.formatTime(p.Since))
	return rows, err
}

func (s *Store) HourlySales(ctx context.Context, p pos.Period) ([]pos.HourlySales, error) {
	rows, err := s.periodLines(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate hourly sales: %w", err)
	}

	byHour := make(map[int]*pos.HourlySales)
	for _, r := range rows {
		h, ok := byHour[r.Hour]
		if !ok {
			h = &pos.HourlySales{Hour: r.Hour, Sales: decimal.Zero}
			byHour[r.Hour] = h
		}
		h.Orders++
		h.Sales = h.Sales.Add(r.total())
	}

	out := make([]pos.HourlySales, 0, len(byHour))
	for _, h := range byHour {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out, nil
}

func (s *Store) ClosingTotals(ctx context.Context, p pos.Period) (pos.ClosingTotals, error) {
	rows, err := s.periodLines(ctx, p)
	if err != nil {
		return pos.ClosingTotals{}, fmt.Errorf("failed to aggregate closing totals: %w", err)
	}

	result := pos.ClosingTotals{TotalSales: decimal.Zero}
	transactions := make(map[int64]struct{})
	counts := make(map[int64]*pos.BestSeller)
	for _, r := range rows {
		result.TotalSales = result.TotalSales.Add(r.total())
		transactions[r.TxNumber] = struct{}{}

		b, ok := counts[r.ProductID]
		if !ok {
			b = &pos.BestSeller{ProductID: r.ProductID, ProductName: r.Name}
			counts[r.ProductID] = b
		}
		b.Orders++
		// first product to reach the top count keeps it
		if result.BestSeller == nil || b.Orders > result.BestSeller.Orders {
			result.BestSeller = b
		}
	}
	result.TotalTransactions = int64(len(transactions))
	return result, nil
}

func (s *Store) ProductSales(ctx context.Context, from, to time.Time) ([]pos.ProductSales, error) {
	var rows []saleAmount
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT sl.product_id,
		       COALESCE(p.product_name, '') AS product_name,
		       sl.quantity, sl.unit_price
		FROM sale_lines sl
		LEFT JOIN products p ON p.product_id = sl.product_id
		WHERE sl.purchased_at >= ? AND sl.purchased_at < ?
	`, s.formatTime(from), s.formatTime(to)); err != nil {
		return nil, fmt.Errorf("failed to aggregate product sales: %w", err)
	}

	byProduct := make(map[int64]*pos.ProductSales)
	for _, r := range rows {
		ps, ok := byProduct[r.ProductID]
		if !ok {
			ps = &pos.ProductSales{ProductID: r.ProductID, ProductName: r.Name, Revenue: decimal.Zero}
			byProduct[r.ProductID] = ps
		}
		ps.QuantitySold += r.Quantity
		ps.Revenue = ps.Revenue.Add(r.total())
	}

	out := make([]pos.ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (s *Store) IngredientUsage(ctx context.Context, from, to time.Time) ([]pos.IngredientUsage, error) {
	var rows []struct {
		ItemID       int64  `db:"item_id"`
		ItemName     string `db:"item_name"`
		Used         int64  `db:"used"`
		CurrentStock int64  `db:"current_stock"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT i.item_id, i.item_name, i.amount AS current_stock,
		       COALESCE(SUM(r.quantity_used * sl.quantity), 0) AS used
		FROM inventory i
		LEFT JOIN recipes r ON r.item_id = i.item_id
		LEFT JOIN sale_lines sl ON sl.product_id = r.product_id
		      AND sl.purchased_at >= ? AND sl.purchased_at < ?
		GROUP BY i.item_id
		ORDER BY used DESC, i.item_id
	`, s.formatTime(from), s.formatTime(to)); err != nil {
		return nil, fmt.Errorf("failed to aggregate inventory usage: %w", err)
	}

	out := make([]pos.IngredientUsage, len(rows))
	for i, r := range rows {
		out[i] = pos.IngredientUsage{ItemID: r.ItemID, ItemName: r.ItemName, Used: r.Used, CurrentStock: r.CurrentStock}
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) formatTime(t time.Time) string {
	return t.In(s.loc).Format(timeLayout)
}

func (s *Store) parseTime(v string) time.Time {
	t, err := time.ParseInLocation(parseLayout, strings.TrimSpace(v), s.loc)
	if err != nil {
		s.logger.Warn("unparseable timestamp in database", "value", v, "error", err)
	}
	return t
}

func parseDecimal(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// expectRow maps "no row touched" to pos.ErrNotFound.
func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, pos.ErrNotFound)
	}
	return nil
}
