package pos_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teapos/pos"
	"github.com/warp/teapos/pos/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	milkTea  int64 = 1
	taroTea  int64 = 2
	milk     int64 = 10
	tapioca  int64 = 11
	taroPwdr int64 = 12
)

var fixedNow = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func newTestRecorder(t *testing.T) (*pos.Recorder, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.PutInventory(pos.InventoryItem{ID: milk, Name: "Milk", Amount: 50})
	mem.PutInventory(pos.InventoryItem{ID: tapioca, Name: "Tapioca Pearls", Amount: 40})
	mem.PutInventory(pos.InventoryItem{ID: taroPwdr, Name: "Taro Powder", Amount: 6})

	mem.PutRecipe(pos.RecipeEntry{ProductID: milkTea, ItemID: milk, QuantityUsed: 10})
	mem.PutRecipe(pos.RecipeEntry{ProductID: milkTea, ItemID: tapioca, QuantityUsed: 2})
	mem.PutRecipe(pos.RecipeEntry{ProductID: taroTea, ItemID: milk, QuantityUsed: 5})
	mem.PutRecipe(pos.RecipeEntry{ProductID: taroTea, ItemID: taroPwdr, QuantityUsed: 3})

	rec := pos.NewRecorder(mem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec.Now = func() time.Time { return fixedNow }
	rec.Location = time.UTC
	return rec, mem
}

func item(productID, qty int64, price string) pos.OrderItem {
	return pos.OrderItem{
		ProductID: productID,
		Quantity:  qty,
		Price:     decimal.RequireFromString(price),
	}
}

func amountOf(t *testing.T, mem *store.Memory, id int64) int64 {
	t.Helper()
	it, ok := mem.Inventory(id)
	require.True(t, ok)
	return it.Amount
}

// =============================================================================
// SUCCESSFUL ORDERS
// =============================================================================

func TestSubmitOrder_DecrementsByRecipeTimesQuantity(t *testing.T) {
	// GIVEN: Milk 50, milk tea uses 10 milk per cup
	// WHEN: Ordering 3 milk teas
	// THEN: Milk is 20 and one sale line exists
	rec, mem := newTestRecorder(t)

	receipt, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{item(milkTea, 3, "5.50")},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), receipt.TransactionNumber)
	assert.Equal(t, int64(20), amountOf(t, mem, milk))
	assert.Equal(t, int64(34), amountOf(t, mem, tapioca))

	lines := mem.SaleLines()
	require.Len(t, lines, 1, "one line per cart item, not per unit")
	assert.Equal(t, int64(3), lines[0].Quantity)
	assert.Equal(t, pos.GuestCustomer, lines[0].CustomerID)
	assert.Equal(t, fixedNow, lines[0].PurchasedAt)
}

func TestSubmitOrder_SharedIngredientSummedAcrossLines(t *testing.T) {
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		CustomerID: 42,
		Items: []pos.OrderItem{
			item(milkTea, 2, "5.50"), // 20 milk
			item(taroTea, 1, "6.00"), // 5 milk, 3 taro
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25), amountOf(t, mem, milk))
	assert.Equal(t, int64(3), amountOf(t, mem, taroPwdr))

	lines := mem.SaleLines()
	require.Len(t, lines, 2)
	assert.Equal(t, lines[0].TransactionNumber, lines[1].TransactionNumber)
	assert.Equal(t, int64(42), lines[1].CustomerID)
}

func TestSubmitOrder_ExactStockIsAccepted(t *testing.T) {
	// Taro powder 6, taro tea uses 3 per cup, 2 cups -> exactly 0
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{item(taroTea, 2, "6.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), amountOf(t, mem, taroPwdr))
}

func TestSubmitOrder_ProductWithoutRecipeConsumesNothing(t *testing.T) {
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{item(99, 1, "2.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), amountOf(t, mem, milk))
	assert.Len(t, mem.SaleLines(), 1)
}

func TestSubmitOrder_TransactionNumbersIncrease(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	first, err := rec.SubmitOrder(ctx, pos.Order{Items: []pos.OrderItem{item(99, 1, "2.00")}})
	require.NoError(t, err)
	second, err := rec.SubmitOrder(ctx, pos.Order{
		TransactionNumber: 500, // ignored
		Items:             []pos.OrderItem{item(99, 1, "2.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, first.TransactionNumber+1, second.TransactionNumber)
}

func TestSubmitOrder_UsesTransactionDate(t *testing.T) {
	rec, mem := newTestRecorder(t)
	when := time.Date(2025, time.February, 1, 14, 5, 0, 0, time.UTC)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		TransactionDate: &when,
		Items:           []pos.OrderItem{item(99, 1, "2.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, when, mem.SaleLines()[0].PurchasedAt)
}

func TestSubmitOrder_RecordsCustomizations(t *testing.T) {
	rec, mem := newTestRecorder(t)
	it := item(99, 1, "2.00")
	it.Customizations = pos.Customizations{
		Ice: "Less",
		Toppings: map[string]any{
			"pudding": true,
			"boba":    float64(1),
			"jelly":   false,
			"":        true,
		},
	}

	_, err := rec.SubmitOrder(context.Background(), pos.Order{Items: []pos.OrderItem{it}})
	require.NoError(t, err)

	line := mem.SaleLines()[0]
	assert.Equal(t, "Less", line.IceAmount)
	assert.Equal(t, "boba, pudding", line.ToppingSelection)
}

// =============================================================================
// ROLLBACK
// =============================================================================

func TestSubmitOrder_InsufficientInventory_RollsBackEverything(t *testing.T) {
	// GIVEN: Milk 50
	// WHEN: Line 1 takes 30 milk, line 2 needs 25 more
	// THEN: Nothing is written, milk stays 50
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{
			item(milkTea, 3, "5.50"),
			item(taroTea, 5, "6.00"),
		},
	})
	require.Error(t, err)

	var shortErr *pos.InsufficientInventoryError
	require.ErrorAs(t, err, &shortErr)
	assert.Equal(t, "Milk", shortErr.ItemName)
	assert.Equal(t, int64(20), shortErr.Available)
	assert.Equal(t, int64(25), shortErr.Needed)
	assert.True(t, pos.IsClientError(err))

	assert.Empty(t, mem.SaleLines())
	assert.Equal(t, int64(50), amountOf(t, mem, milk))
	assert.Equal(t, int64(40), amountOf(t, mem, tapioca))
}

func TestSubmitOrder_SecondOrderRejectedWhenStockLow(t *testing.T) {
	rec, mem := newTestRecorder(t)
	mem.PutInventory(pos.InventoryItem{ID: milk, Name: "Milk", Amount: 5})

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{item(milkTea, 3, "5.50")},
	})
	require.Error(t, err)
	assert.Equal(t, "Insufficient inventory for Milk. Available: 5, Needed: 30", err.Error())
	assert.Equal(t, int64(5), amountOf(t, mem, milk))
}

func TestSubmitOrder_MissingInventoryRow(t *testing.T) {
	rec, mem := newTestRecorder(t)
	mem.PutRecipe(pos.RecipeEntry{ProductID: 7, ItemID: 404, QuantityUsed: 1})

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{item(milkTea, 1, "5.50"), item(7, 1, "3.00")},
	})
	require.Error(t, err)

	var missing *pos.MissingInventoryError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, int64(404), missing.ItemID)
	assert.True(t, pos.IsNotFound(err))
	assert.Empty(t, mem.SaleLines())
	assert.Equal(t, int64(50), amountOf(t, mem, milk))
}

func TestSubmitOrder_InvalidLaterItem_RollsBackEarlierLines(t *testing.T) {
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{
			item(milkTea, 1, "5.50"),
			{ProductID: taroTea, Quantity: 1}, // no price
		},
	})
	require.Error(t, err)

	var vErr *pos.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items[1]", vErr.Field)
	assert.ErrorIs(t, err, pos.ErrValidation)
	assert.Empty(t, mem.SaleLines())
	assert.Equal(t, int64(50), amountOf(t, mem, milk))
}

func TestSubmitOrder_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		item pos.OrderItem
	}{
		{"no product", pos.OrderItem{Quantity: 1, Price: decimal.NewFromInt(1)}},
		{"no quantity", pos.OrderItem{ProductID: milkTea, Price: decimal.NewFromInt(1)}},
		{"negative quantity", pos.OrderItem{ProductID: milkTea, Quantity: -1, Price: decimal.NewFromInt(1)}},
		{"no price", pos.OrderItem{ProductID: milkTea, Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, mem := newTestRecorder(t)
			_, err := rec.SubmitOrder(context.Background(), pos.Order{Items: []pos.OrderItem{tt.item}})
			assert.ErrorIs(t, err, pos.ErrValidation)
			assert.Empty(t, mem.SaleLines())
		})
	}
}

func TestSubmitOrder_QuantityOverflow_IsRejected(t *testing.T) {
	// GIVEN: Milk 50, milk tea uses 10 milk per cup
	// WHEN: A quantity whose milk requirement overflows int64
	// THEN: Validation error, stock untouched, nothing written
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{item(milkTea, 922337203685477581, "5.50")},
	})
	require.Error(t, err)

	var vErr *pos.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items[0]", vErr.Field)
	assert.Empty(t, mem.SaleLines())
	assert.Equal(t, int64(50), amountOf(t, mem, milk))
	assert.Equal(t, int64(40), amountOf(t, mem, tapioca))
}

func TestSubmitOrder_LargeQuantityWithinRange_IsShortNotOverflow(t *testing.T) {
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{
		Items: []pos.OrderItem{item(milkTea, 922337203685477580, "5.50")},
	})

	var shortErr *pos.InsufficientInventoryError
	require.ErrorAs(t, err, &shortErr)
	assert.Equal(t, int64(9223372036854775800), shortErr.Needed)
	assert.Equal(t, int64(50), amountOf(t, mem, milk))
}

func TestSubmitOrder_CancelledCaller_StillCommits(t *testing.T) {
	// GIVEN: A caller whose context is already cancelled
	rec, mem := newTestRecorder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN: The order is submitted
	receipt, err := rec.SubmitOrder(ctx, pos.Order{Items: []pos.OrderItem{item(milkTea, 1, "5.50")}})

	// THEN: The ledger write completes
	require.NoError(t, err)
	assert.Len(t, receipt.Lines, 1)
	assert.Len(t, mem.SaleLines(), 1)
	assert.Equal(t, int64(40), amountOf(t, mem, milk))
}

func TestSubmitOrder_EmptyItems_NoStoreInteraction(t *testing.T) {
	rec, mem := newTestRecorder(t)

	_, err := rec.SubmitOrder(context.Background(), pos.Order{})
	assert.ErrorIs(t, err, pos.ErrEmptyOrder)
	assert.ErrorIs(t, err, pos.ErrValidation)
	assert.Equal(t, 0, mem.TxCount)
}

// =============================================================================
// TRANSACTION NUMBER FALLBACK
// =============================================================================

func TestSubmitOrder_NumberLookupFails_FallsBackToClock(t *testing.T) {
	rec, mem := newTestRecorder(t)
	mem.NumberErr = errors.New("boom")

	first, err := rec.SubmitOrder(context.Background(), pos.Order{Items: []pos.OrderItem{item(99, 1, "2.00")}})
	require.NoError(t, err)
	second, err := rec.SubmitOrder(context.Background(), pos.Order{Items: []pos.OrderItem{item(99, 1, "2.00")}})
	require.NoError(t, err)

	assert.Equal(t, fixedNow.UnixMilli(), first.TransactionNumber)
	assert.Greater(t, second.TransactionNumber, first.TransactionNumber, "fallback must keep increasing on a frozen clock")
}
