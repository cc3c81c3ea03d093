/*
recorder.go - Order submission (sale lines + inventory decrement)

PURPOSE:
  Turns one client order into persisted sale lines and inventory
  decrements as a single unit. Either every line is written and every
  ingredient is decremented, or nothing is.

FLOW (inside one WithTx):
  1. Assign the transaction number (max + 1, wall-clock fallback)
  2. For each item, in input order:
     a. require product_id, quantity, price
     b. insert the sale line (one per cart line, not per unit)
     c. for each recipe ingredient: needed = per_unit * quantity,
        reject if missing or short, else decrement
  3. Commit

KNOWN GAPS:
  - Toppings are recorded on the line but consume no inventory.
  - Stock checks read then write with no version check; concurrent
    orders rely on the store's isolation.
  - The fallback transaction number is not guaranteed unique against
    numbers other processes assign.
  - Cancelling the caller's context does not stop an order in flight.
*/
package pos

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Receipt is returned for a committed order.
type Receipt struct {
	TransactionNumber int64
	Lines             []SaleLine
}

// Recorder commits orders against a LedgerStore.
type Recorder struct {
	Store  LedgerStore
	Logger *slog.Logger
	Now    func() time.Time
	// Location is the business timezone sale timestamps are recorded in.
	Location *time.Location

	lastFallback atomic.Int64
}

// NewRecorder creates a recorder using the wall clock and local timezone.
func NewRecorder(store LedgerStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		Store:    store,
		Logger:   logger,
		Now:      time.Now,
		Location: time.Local,
	}
}

// SubmitOrder validates and commits an order.
//
// Returns ErrEmptyOrder before touching the store when there are no items.
// Returns a *ValidationError, *MissingInventoryError or
// *InsufficientInventoryError with every write of this call discarded.
func (r *Recorder) SubmitOrder(ctx context.Context, order Order) (*Receipt, error) {
	if len(order.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	purchasedAt := r.Now()
	if order.TransactionDate != nil {
		purchasedAt = *order.TransactionDate
	}
	purchasedAt = purchasedAt.In(r.location())

	// a caller that disconnects does not abort the ledger write
	ctx = context.WithoutCancel(ctx)

	var receipt *Receipt
	err := r.Store.WithTx(ctx, func(tx LedgerTx) error {
		txNumber := r.transactionNumber(ctx, tx)
		lines := make([]SaleLine, 0, len(order.Items))

		for i, item := range order.Items {
			if err := validateItem(i, item); err != nil {
				return err
			}

			line := SaleLine{
				TransactionNumber: txNumber,
				ProductID:         item.ProductID,
				CustomerID:        order.CustomerID,
				PurchasedAt:       purchasedAt,
				Quantity:          item.Quantity,
				UnitPrice:         item.Price,
				IceAmount:         item.Customizations.IceAmount(),
				ToppingSelection:  item.Customizations.ToppingSelection(),
			}
			if err := tx.InsertSaleLine(ctx, &line); err != nil {
				return err
			}

			if err := consume(ctx, tx, i, item); err != nil {
				return err
			}
			lines = append(lines, line)
		}

		receipt = &Receipt{TransactionNumber: txNumber, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Logger.Info("order recorded",
		"transaction_number", receipt.TransactionNumber,
		"lines", len(receipt.Lines),
		"customer_id", order.CustomerID)
	return receipt, nil
}

func validateItem(i int, item OrderItem) error {
	field := fmt.Sprintf("items[%d]", i)
	switch {
	case item.ProductID == 0:
		return invalid(field, "product_id is required for every item")
	case item.Quantity == 0:
		return invalid(field, "quantity is required for every item")
	case item.Quantity < 0:
		return invalid(field, "quantity must be positive")
	case item.Price.IsZero():
		return invalid(field, "price is required for every item")
	case item.Price.IsNegative():
		return invalid(field, "price must not be negative")
	}
	return nil
}

// consume decrements every ingredient the item's recipe uses.
func consume(ctx context.Context, tx LedgerTx, i int, item OrderItem) error {
	recipe, err := tx.RecipeFor(ctx, item.ProductID)
	if err != nil {
		return err
	}

	for _, entry := range recipe {
		if entry.QuantityUsed > 0 && item.Quantity > math.MaxInt64/entry.QuantityUsed {
			return invalid(fmt.Sprintf("items[%d]", i), "quantity is too large")
		}
		needed := entry.QuantityUsed * item.Quantity

		stock, err := tx.InventoryItem(ctx, entry.ItemID)
		if IsNotFound(err) {
			return &MissingInventoryError{ItemID: entry.ItemID, ProductID: item.ProductID}
		}
		if err != nil {
			return err
		}

		// equal is fine: stock may reach exactly zero
		if stock.Amount < needed {
			return &InsufficientInventoryError{
				ItemID:    stock.ID,
				ItemName:  stock.Name,
				Available: stock.Amount,
				Needed:    needed,
			}
		}

		if err := tx.DecrementInventory(ctx, entry.ItemID, needed); err != nil {
			return err
		}
	}
	return nil
}

// transactionNumber returns max+1, or a strictly increasing wall-clock
// value when the lookup fails.
func (r *Recorder) transactionNumber(ctx context.Context, tx LedgerTx) int64 {
	n, err := tx.NextTransactionNumber(ctx)
	if err == nil {
		return n
	}

	fallback := r.fallbackNumber()
	r.Logger.Warn("transaction number lookup failed, using clock fallback",
		"error", err,
		"transaction_number", fallback)
	return fallback
}

func (r *Recorder) fallbackNumber() int64 {
	for {
		last := r.lastFallback.Load()
		next := r.Now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if r.lastFallback.CompareAndSwap(last, next) {
			return next
		}
	}
}

func (r *Recorder) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}
