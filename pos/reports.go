/*
reports.go - Read-only aggregations over the sales ledger

REPORTS:
  X-Report:  hourly buckets since the last close (or start of today)
  Z-Report:  closing totals and best seller since the same cutoff
  Sales:     per-product revenue for [startDate, endDate] (whole end day)
  Usage:     per-ingredient consumption for the same kind of range

None of these mutate state; the store does the SQL, the Reporter does
the cutoff, date-range and percentage arithmetic.
*/
package pos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the accepted format for report date parameters.
const DateLayout = "2006-01-02"

// HourBucket is one row of the X-report.
type HourBucket struct {
	Hour        int
	Label       string
	Orders      int64
	Sales       decimal.Decimal
	AverageSale decimal.Decimal
}

type XReport struct {
	Since       time.Time
	Hours       []HourBucket
	TotalOrders int64
	TotalSales  decimal.Decimal
	AverageSale decimal.Decimal
}

type ZReport struct {
	Since             time.Time
	GeneratedAt       time.Time
	TotalSales        decimal.Decimal
	TotalTransactions int64
	BestSeller        *BestSeller
}

// UsageRow adds the usage percentage to IngredientUsage.
type UsageRow struct {
	IngredientUsage
	UsagePercent int64
}

// Reporter computes reports from a ReportStore.
type Reporter struct {
	Store    ReportStore
	Now      func() time.Time
	Location *time.Location
}

func NewReporter(store ReportStore) *Reporter {
	return &Reporter{Store: store, Now: time.Now, Location: time.Local}
}

// Cutoff returns the open period: after the latest closure, or from
// midnight today (inclusive) when there is none.
func (r *Reporter) Cutoff(ctx context.Context) (Period, error) {
	marker, err := r.Store.LatestClosure(ctx)
	if IsNotFound(err) {
		return Period{Since: StartOfDay(r.Now().In(r.location())), Inclusive: true}, nil
	}
	if err != nil {
		return Period{}, err
	}
	return Period{Since: marker.ClosedAt}, nil
}

// XReport groups sales since the cutoff by hour of day.
func (r *Reporter) XReport(ctx context.Context) (XReport, error) {
	period, err := r.Cutoff(ctx)
	if err != nil {
		return XReport{}, err
	}

	rows, err := r.Store.HourlySales(ctx, period)
	if err != nil {
		return XReport{}, err
	}

	report := XReport{Since: period.Since, Hours: make([]HourBucket, 0, len(rows)), TotalSales: decimal.Zero}
	for _, row := range rows {
		report.Hours = append(report.Hours, HourBucket{
			Hour:        row.Hour,
			Label:       HourLabel(row.Hour),
			Orders:      row.Orders,
			Sales:       row.Sales.Round(2),
			AverageSale: average(row.Sales, row.Orders),
		})
		report.TotalOrders += row.Orders
		report.TotalSales = report.TotalSales.Add(row.Sales)
	}
	report.TotalSales = report.TotalSales.Round(2)
	report.AverageSale = average(report.TotalSales, report.TotalOrders)
	return report, nil
}

// ZReport summarizes sales since the cutoff. It does not close the period.
func (r *Reporter) ZReport(ctx context.Context) (ZReport, error) {
	period, err := r.Cutoff(ctx)
	if err != nil {
		return ZReport{}, err
	}

	totals, err := r.Store.ClosingTotals(ctx, period)
	if err != nil {
		return ZReport{}, err
	}

	return ZReport{
		Since:             period.Since,
		GeneratedAt:       r.Now().In(r.location()),
		TotalSales:        totals.TotalSales.Round(2),
		TotalTransactions: totals.TotalTransactions,
		BestSeller:        totals.BestSeller,
	}, nil
}

// SalesByRange returns per-product sales for [start, end], end inclusive.
func (r *Reporter) SalesByRange(ctx context.Context, start, end string) ([]ProductSales, error) {
	from, to, err := ParseDateRange(start, end, r.location())
	if err != nil {
		return nil, err
	}
	rows, err := r.Store.ProductSales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

// InventoryUsage returns per-ingredient consumption for [start, end].
func (r *Reporter) InventoryUsage(ctx context.Context, start, end string) ([]UsageRow, error) {
	from, to, err := ParseDateRange(start, end, r.location())
	if err != nil {
		return nil, err
	}
	rows, err := r.Store.IngredientUsage(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]UsageRow, len(rows))
	for i, row := range rows {
		out[i] = UsageRow{
			IngredientUsage: row,
			UsagePercent:    UsagePercent(row.Used, row.CurrentStock),
		}
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// ParseDateRange parses YYYY-MM-DD bounds and returns the half-open
// interval [start 00:00, end+1day 00:00) in loc.
func ParseDateRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, invalid("", "startDate and endDate are required")
	}
	from, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("startDate", "must be in YYYY-MM-DD format")
	}
	to, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("endDate", "must be in YYYY-MM-DD format")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalid("endDate", "must not be before startDate")
	}
	return from, to.AddDate(0, 0, 1), nil
}

// UsagePercent is used / (stock + used) * 100, truncated.
func UsagePercent(used, stock int64) int64 {
	total := stock + used
	if total <= 0 || used <= 0 {
		return 0
	}
	return used * 100 / total
}

// HourLabel renders 0..23 as "12 AM".."11 PM".
func HourLabel(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d %s", h, suffix)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count)).Round(2)
}

func (r *Reporter) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}
