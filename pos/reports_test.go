package pos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teapos/pos"
)

// fakeReports records the cutoff it was asked for.
type fakeReports struct {
	closure  *pos.ClosureMarker
	closeErr error
	hours    []pos.HourlySales
	totals   pos.ClosingTotals
	usage    []pos.IngredientUsage
	period   pos.Period
	from, to time.Time
}

func (f *fakeReports) LatestClosure(context.Context) (pos.ClosureMarker, error) {
	if f.closeErr != nil {
		return pos.ClosureMarker{}, f.closeErr
	}
	if f.closure == nil {
		return pos.ClosureMarker{}, pos.ErrNotFound
	}
	return *f.closure, nil
}

func (f *fakeReports) HourlySales(_ context.Context, p pos.Period) ([]pos.HourlySales, error) {
	f.period = p
	return f.hours, nil
}

func (f *fakeReports) ClosingTotals(_ context.Context, p pos.Period) (pos.ClosingTotals, error) {
	f.period = p
	return f.totals, nil
}

func (f *fakeReports) ProductSales(_ context.Context, from, to time.Time) ([]pos.ProductSales, error) {
	f.from, f.to = from, to
	return nil, nil
}

func (f *fakeReports) IngredientUsage(_ context.Context, from, to time.Time) ([]pos.IngredientUsage, error) {
	f.from, f.to = from, to
	return f.usage, nil
}

func newTestReporter(f *fakeReports) *pos.Reporter {
	r := pos.NewReporter(f)
	r.Now = func() time.Time { return time.Date(2025, time.March, 10, 16, 45, 0, 0, time.UTC) }
	r.Location = time.UTC
	return r
}

func TestXReport_NoClosure_UsesStartOfDay(t *testing.T) {
	f := &fakeReports{hours: []pos.HourlySales{
		{Hour: 9, Orders: 2, Sales: decimal.RequireFromString("11.00")},
		{Hour: 14, Orders: 1, Sales: decimal.RequireFromString("6.50")},
	}}

	report, err := newTestReporter(f).XReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), f.period.Since)
	assert.True(t, f.period.Inclusive, "a sale at midnight belongs to today")
	require.Len(t, report.Hours, 2)
	assert.Equal(t, "9 AM", report.Hours[0].Label)
	assert.Equal(t, int64(2), report.Hours[0].Orders)
	assert.True(t, report.Hours[0].AverageSale.Equal(decimal.RequireFromString("5.50")))
	assert.Equal(t, "2 PM", report.Hours[1].Label)
	assert.Equal(t, int64(3), report.TotalOrders)
	assert.True(t, report.TotalSales.Equal(decimal.RequireFromString("17.50")))
	assert.True(t, report.AverageSale.Equal(decimal.RequireFromString("5.83")))
}

func TestXReport_UsesLatestClosure(t *testing.T) {
	closedAt := time.Date(2025, time.March, 9, 22, 0, 0, 0, time.UTC)
	f := &fakeReports{closure: &pos.ClosureMarker{ID: 1, ClosedAt: closedAt}}

	report, err := newTestReporter(f).XReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, closedAt, f.period.Since)
	assert.False(t, f.period.Inclusive, "the closing instant belongs to the previous period")
	assert.Empty(t, report.Hours)
	assert.True(t, report.AverageSale.IsZero())
}

func TestZReport_PropagatesStoreError(t *testing.T) {
	f := &fakeReports{closeErr: errors.New("db down")}

	_, err := newTestReporter(f).ZReport(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestZReport_Totals(t *testing.T) {
	f := &fakeReports{totals: pos.ClosingTotals{
		TotalSales:        decimal.RequireFromString("120.456"),
		TotalTransactions: 9,
		BestSeller:        &pos.BestSeller{ProductID: 3, ProductName: "Classic Milk Tea", Orders: 5},
	}}

	report, err := newTestReporter(f).ZReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "120.46", report.TotalSales.StringFixed(2))
	assert.Equal(t, int64(9), report.TotalTransactions)
	require.NotNil(t, report.BestSeller)
	assert.Equal(t, "Classic Milk Tea", report.BestSeller.ProductName)
}

func TestInventoryUsage_Percentages(t *testing.T) {
	f := &fakeReports{usage: []pos.IngredientUsage{
		{ItemID: 1, ItemName: "Milk", Used: 30, CurrentStock: 20},
		{ItemID: 2, ItemName: "Taro", Used: 1, CurrentStock: 2},
		{ItemID: 3, ItemName: "Ice", Used: 0, CurrentStock: 0},
	}}

	rows, err := newTestReporter(f).InventoryUsage(context.Background(), "2025-03-01", "2025-03-10")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(60), rows[0].UsagePercent)
	assert.Equal(t, int64(33), rows[1].UsagePercent, "truncated, not rounded")
	assert.Equal(t, int64(0), rows[2].UsagePercent)

	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), f.from)
	assert.Equal(t, time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC), f.to, "end date covers its full day")
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"valid", "2025-01-01", "2025-01-31", false},
		{"same day", "2025-01-01", "2025-01-01", false},
		{"missing start", "", "2025-01-31", true},
		{"missing end", "2025-01-01", " ", true},
		{"bad format", "01/01/2025", "2025-01-31", true},
		{"reversed", "2025-02-01", "2025-01-31", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := pos.ParseDateRange(tt.start, tt.end, time.UTC)
			if tt.wantErr {
				assert.ErrorIs(t, err, pos.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHourLabel(t *testing.T) {
	assert.Equal(t, "12 AM", pos.HourLabel(0))
	assert.Equal(t, "9 AM", pos.HourLabel(9))
	assert.Equal(t, "12 PM", pos.HourLabel(12))
	assert.Equal(t, "11 PM", pos.HourLabel(23))
}
