/*
handlers.go - HTTP API handlers for the tea shop POS

PURPOSE:
  Exposes the pos package over a REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the recorder, reporter and catalog.

ENDPOINTS:
  Products:
    GET    /api/products                List the menu
    GET    /api/products/{id}           Get one product
    POST   /api/products                Create product
    PUT    /api/products/{id}           Update product
    DELETE /api/products/{id}           Delete product (and its recipe)
    GET    /api/products/{id}/recipe    Recipe entries
    PUT    /api/products/{id}/recipe    Replace recipe

  Inventory:
    GET    /api/inventory               List ingredients
    GET    /api/inventory/{id}          Get one ingredient
    POST   /api/inventory               Create ingredient
    PUT    /api/inventory/{id}          Update (restock) ingredient

  Transactions:
    POST   /api/transactions            Submit an order
    GET    /api/transactions?limit=N    Sales ledger, newest first

  Business day:
    POST   /api/business/close          Insert a closure marker
    GET    /api/business/closures       Closure history

  Reports: see reports.go

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (lifecycle owned by main)
  - Catalog, Recorder, Reporter: pos workflows over the same store
  - Logger: structured logger for infrastructure failures

ERROR HANDLING:
  Errors are returned as JSON {"error": ..., "details": ...}:
  - 400: Validation errors, insufficient inventory
  - 404: Resource not found
  - 500: Internal errors (logged with the request id)

SEE ALSO:
  - dto.go: Request/response data structures
  - reports.go: Report handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/teapos/pos"
	"github.com/warp/teapos/store/sqlite"
)

const (
	defaultTransactionLimit = 100
	maxTransactionLimit     = 1000
)

// accepted transaction_date layouts, tried in order
var transactionDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", pos.DateLayout}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Catalog  *pos.Catalog
	Recorder *pos.Recorder
	Reporter *pos.Reporter
	Logger   *slog.Logger

	// Now is the clock used for closure markers.
	Now func() time.Time
}

// NewHandler wires the pos workflows to the given store. Sale timestamps and
// report buckets use the store's business timezone.
func NewHandler(store *sqlite.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	recorder := pos.NewRecorder(store, logger)
	recorder.Location = store.Location()

	reporter := pos.NewReporter(store)
	reporter.Location = store.Location()

	return &Handler{
		Store:    store,
		Catalog:  pos.NewCatalog(store, logger),
		Recorder: recorder,
		Reporter: reporter,
		Logger:   logger,
		Now:      time.Now,
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the whole menu.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list products", err)
		return
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.Catalog.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		h.fail(w, r, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(product))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.Catalog.UpdateProduct(r.Context(), id, req.toInput())
	if err != nil {
		h.fail(w, r, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// DeleteProduct removes a product; its recipe rows go with it when present.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to delete product", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteProductResponse{ProductID: id, Message: "Product deleted"})
}

func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.Store.GetProduct(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to get product", err)
		return
	}

	entries, err := h.Store.ListRecipe(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to load recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeDTOs(entries))
}

func (h *Handler) ReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req RecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entries := make([]pos.RecipeEntry, len(req.Ingredients))
	for i, in := range req.Ingredients {
		entries[i] = pos.RecipeEntry{ItemID: in.ItemID, QuantityUsed: in.QuantityUsed}
	}

	if err := h.Catalog.ReplaceRecipe(r.Context(), id, entries); err != nil {
		h.fail(w, r, "Failed to replace recipe", err)
		return
	}

	saved, err := h.Store.ListRecipe(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to load recipe", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeDTOs(saved))
}

func toRecipeDTOs(entries []pos.RecipeEntry) []RecipeEntryDTO {
	dtos := make([]RecipeEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = RecipeEntryDTO{ItemID: e.ItemID, QuantityUsed: e.QuantityUsed}
	}
	return dtos
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListInventory(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list inventory", err)
		return
	}

	dtos := make([]InventoryDTO, len(items))
	for i, item := range items {
		dtos[i] = toInventoryDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.Store.GetInventoryItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get inventory item", err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryDTO(item))
}

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req InventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.Catalog.CreateInventoryItem(r.Context(), pos.InventoryInput{Name: req.ItemName, Amount: req.Amount})
	if err != nil {
		h.fail(w, r, "Failed to create inventory item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInventoryDTO(item))
}

// UpdateInventoryItem is how stock gets replenished.
func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req InventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.Catalog.UpdateInventoryItem(r.Context(), id, pos.InventoryInput{Name: req.ItemName, Amount: req.Amount})
	if err != nil {
		h.fail(w, r, "Failed to update inventory item", err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryDTO(item))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// SubmitTransaction records an order: one sale line per item plus the
// inventory its recipes consume, all or nothing.
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order := pos.Order{
		CustomerID:        req.CustomerID,
		TransactionNumber: req.TransactionNumber,
		Items:             make([]pos.OrderItem, len(req.Items)),
	}
	for i, item := range req.Items {
		order.Items[i] = pos.OrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			Price:          item.Price,
			Customizations: item.Customizations,
		}
	}

	if strings.TrimSpace(req.TransactionDate) != "" {
		when, err := parseTransactionDate(req.TransactionDate, h.Store.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		order.TransactionDate = &when
	}

	receipt, err := h.Recorder.SubmitOrder(r.Context(), order)
	if err != nil {
		// a recipe pointing at a missing ingredient is the order's fault here
		if pos.IsNotFound(err) {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		h.fail(w, r, "Failed to process transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, TransactionResponse{
		TransactionID: receipt.TransactionNumber,
		Message:       "Transaction completed successfully",
	})
}

// ListTransactions returns the newest sale lines.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxTransactionLimit)
	}

	lines, err := h.Store.ListSaleLines(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "Failed to list transactions", err)
		return
	}

	dtos := make([]SaleLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toSaleLineDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func parseTransactionDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range transactionDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("transaction_date %q is not a valid date", raw)
}

// =============================================================================
// BUSINESS DAY HANDLERS
// =============================================================================

// CloseBusiness ends the current reporting period. X/Z reports start over
// from this instant.
func (h *Handler) CloseBusiness(w http.ResponseWriter, r *http.Request) {
	marker, err := h.Store.CloseBusiness(r.Context(), h.Now())
	if err != nil {
		h.fail(w, r, "Failed to close business day", err)
		return
	}

	h.Logger.Info("business day closed", "closure_id", marker.ID, "closed_at", marker.ClosedAt)
	writeJSON(w, http.StatusCreated, ClosureDTO{ID: marker.ID, ClosedAt: formatTime(marker.ClosedAt)})
}

func (h *Handler) ListClosures(w http.ResponseWriter, r *http.Request) {
	markers, err := h.Store.ListClosures(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list closures", err)
		return
	}

	dtos := make([]ClosureDTO, len(markers))
	for i, m := range markers {
		dtos[i] = ClosureDTO{ID: m.ID, ClosedAt: formatTime(m.ClosedAt)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a pos error to a status code. Client errors carry their own
// message; infrastructure errors are logged and reported under message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case pos.IsClientError(err):
		h.Logger.Debug("rejected request", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case pos.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error(message,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			writeError(w, http.StatusBadRequest, "Malformed JSON", err)
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
