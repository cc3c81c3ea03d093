// Package store provides in-memory implementations of the pos store interfaces.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/warp/teapos/pos"
)

// =============================================================================
// MEMORY STORE - In-memory LedgerStore (for testing/dev)
// =============================================================================

// Memory keeps inventory, recipes and sale lines in maps. WithTx works on a
// copy and swaps it in only when fn succeeds, so a failed order leaves no trace.
type Memory struct {
	mu    sync.Mutex
	state state

	// NumberErr, when set, makes NextTransactionNumber fail.
	NumberErr error
	// TxCount counts WithTx calls.
	TxCount int
}

type state struct {
	inventory map[int64]pos.InventoryItem
	recipes   map[int64][]pos.RecipeEntry
	lines     []pos.SaleLine
	lastOrder int64
}

func NewMemory() *Memory {
	return &Memory{
		state: state{
			inventory: make(map[int64]pos.InventoryItem),
			recipes:   make(map[int64][]pos.RecipeEntry),
		},
	}
}

// PutInventory inserts or replaces an ingredient.
func (m *Memory) PutInventory(item pos.InventoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.inventory[item.ID] = item
}

// PutRecipe adds a recipe entry.
func (m *Memory) PutRecipe(entry pos.RecipeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.recipes[entry.ProductID] = append(m.state.recipes[entry.ProductID], entry)
}

// Inventory returns the current amount for an ingredient.
func (m *Memory) Inventory(id int64) (pos.InventoryItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.state.inventory[id]
	return item, ok
}

// SaleLines returns a copy of all committed lines in insert order.
func (m *Memory) SaleLines() []pos.SaleLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pos.SaleLine, len(m.state.lines))
	copy(out, m.state.lines)
	return out
}

// WithTx runs fn against a snapshot and commits it on success.
func (m *Memory) WithTx(ctx context.Context, fn func(pos.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TxCount++

	tx := &memoryTx{state: m.state.clone(), numberErr: m.NumberErr}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (s state) clone() state {
	c := state{
		inventory: make(map[int64]pos.InventoryItem, len(s.inventory)),
		recipes:   make(map[int64][]pos.RecipeEntry, len(s.recipes)),
		lines:     make([]pos.SaleLine, len(s.lines)),
		lastOrder: s.lastOrder,
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.recipes {
		c.recipes[k] = append([]pos.RecipeEntry(nil), v...)
	}
	copy(c.lines, s.lines)
	return c
}

// =============================================================================
// TRANSACTION VIEW
// =============================================================================

type memoryTx struct {
	state     state
	numberErr error
}

func (t *memoryTx) NextTransactionNumber(_ context.Context) (int64, error) {
	if t.numberErr != nil {
		return 0, t.numberErr
	}
	var max int64
	for _, l := range t.state.lines {
		if l.TransactionNumber > max {
			max = l.TransactionNumber
		}
	}
	return max + 1, nil
}

func (t *memoryTx) InsertSaleLine(_ context.Context, line *pos.SaleLine) error {
	t.state.lastOrder++
	line.OrderID = t.state.lastOrder
	t.state.lines = append(t.state.lines, *line)
	return nil
}

func (t *memoryTx) RecipeFor(_ context.Context, productID int64) ([]pos.RecipeEntry, error) {
	entries := append([]pos.RecipeEntry(nil), t.state.recipes[productID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ItemID < entries[j].ItemID })
	return entries, nil
}

func (t *memoryTx) InventoryItem(_ context.Context, itemID int64) (pos.InventoryItem, error) {
	item, ok := t.state.inventory[itemID]
	if !ok {
		return pos.InventoryItem{}, pos.ErrNotFound
	}
	return item, nil
}

func (t *memoryTx) DecrementInventory(_ context.Context, itemID int64, by int64) error {
	item, ok := t.state.inventory[itemID]
	if !ok {
		return pos.ErrNotFound
	}
	if item.Amount < by {
		return errors.New("inventory amount would go negative")
	}
	item.Amount -= by
	t.state.inventory[itemID] = item
	return nil
}
