package api

import (
	"net/http"
)

// =============================================================================
// REPORT HANDLERS
// =============================================================================
//
//   GET /api/reports/x-report                                 Hourly summary since last close
//   GET /api/reports/z-report                                 Closing summary since last close
//   GET /api/reports/sales?startDate=..&endDate=..            Per-product sales
//   GET /api/reports/inventory-usage?startDate=..&endDate=..  Per-ingredient usage
//
// Dates are YYYY-MM-DD in the business timezone; endDate covers its whole day.

func (h *Handler) XReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reporter.XReport(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to generate X-Report", err)
		return
	}
	writeJSON(w, http.StatusOK, toXReportDTO(report))
}

// ZReport summarizes the open period. Closing it is a separate call.
func (h *Handler) ZReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reporter.ZReport(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to generate Z-Report", err)
		return
	}
	writeJSON(w, http.StatusOK, toZReportDTO(report))
}

func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.Reporter.SalesByRange(r.Context(), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.fail(w, r, "Failed to generate sales report", err)
		return
	}

	dtos := make([]ProductSalesDTO, len(rows))
	for i, row := range rows {
		dtos[i] = ProductSalesDTO{
			ProductID:    row.ProductID,
			ProductName:  row.ProductName,
			QuantitySold: row.QuantitySold,
			TotalRevenue: money(row.Revenue),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) InventoryUsageReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.Reporter.InventoryUsage(r.Context(), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.fail(w, r, "Failed to generate inventory usage report", err)
		return
	}

	dtos := make([]InventoryUsageDTO, len(rows))
	for i, row := range rows {
		dtos[i] = InventoryUsageDTO{
			ItemID:       row.ItemID,
			ItemName:     row.ItemName,
			AmountUsed:   row.Used,
			CurrentStock: row.CurrentStock,
			UsagePercent: row.UsagePercent,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}
