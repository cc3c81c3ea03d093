/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures the kiosk, cashier and manager clients
  exchange with the server. Field names follow the database column names
  the clients already use (product_id, item_name, ...).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Small response wrappers

MONEY:
  Requests accept prices as JSON numbers or strings (decimal.Decimal).
  Responses render money as JSON numbers rounded to cents.

VALIDATION:
  Validation is done in the pos package, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - pos/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/teapos/pos"
)

// =============================================================================
// CATALOG
// =============================================================================

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Allergens   string  `json:"allergens"`
}

// ProductRequest is the body for creating or updating a product.
type ProductRequest struct {
	ProductName string           `json:"product_name"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category"`
	Allergens   string           `json:"allergens"`
}

func (req ProductRequest) toInput() pos.ProductInput {
	return pos.ProductInput{
		Name:      req.ProductName,
		Price:     req.Price,
		Category:  req.Category,
		Allergens: req.Allergens,
	}
}

type InventoryDTO struct {
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	Amount   int64  `json:"amount"`
}

type InventoryRequest struct {
	ItemName string `json:"item_name"`
	Amount   *int64 `json:"amount"`
}

type RecipeEntryDTO struct {
	ItemID       int64 `json:"item_id"`
	QuantityUsed int64 `json:"quantity_used"`
}

// RecipeRequest replaces a product's recipe.
type RecipeRequest struct {
	Ingredients []RecipeEntryDTO `json:"ingredients"`
}

// DeleteProductResponse confirms a removal.
type DeleteProductResponse struct {
	ProductID int64  `json:"product_id"`
	Message   string `json:"message"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionRequest is an order submitted by the kiosk or cashier.
// transaction_number is accepted and ignored.
type TransactionRequest struct {
	CustomerID        int64                    `json:"customer_id"`
	TransactionDate   string                   `json:"transaction_date,omitempty"`
	TransactionNumber int64                    `json:"transaction_number,omitempty"`
	Items             []TransactionItemRequest `json:"items"`
}

type TransactionItemRequest struct {
	ProductID      int64              `json:"product_id"`
	Quantity       int64              `json:"quantity"`
	Price          decimal.Decimal    `json:"price"`
	Customizations pos.Customizations `json:"customizations"`
}

type TransactionResponse struct {
	TransactionID int64  `json:"transaction_id"`
	Message       string `json:"message"`
}

// SaleLineDTO is one row of the sales ledger.
type SaleLineDTO struct {
	OrderID           int64   `json:"order_id"`
	TransactionNumber int64   `json:"transaction_number"`
	ProductID         int64   `json:"product_id"`
	ProductName       string  `json:"product_name,omitempty"`
	CustomerID        int64   `json:"customer_id"`
	PurchaseDate      string  `json:"purchase_date"`
	Quantity          int64   `json:"quantity"`
	Price             float64 `json:"price"`
	IceAmount         string  `json:"ice_amount"`
	ToppingSelection  string  `json:"topping_selection"`
}

// =============================================================================
// REPORTS
// =============================================================================

type HourDTO struct {
	Hour        int     `json:"hour"`
	Label       string  `json:"label"`
	OrderCount  int64   `json:"order_count"`
	TotalSales  float64 `json:"total_sales"`
	AverageSale float64 `json:"average_sale"`
}

// XReportDTO is the hourly summary since the last close.
type XReportDTO struct {
	Since       string    `json:"since"`
	Hours       []HourDTO `json:"hours"`
	TotalOrders int64     `json:"total_orders"`
	TotalSales  float64   `json:"total_sales"`
	AverageSale float64   `json:"average_sale"`
}

type BestSellerDTO struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	OrderCount  int64  `json:"order_count"`
}

// ZReportDTO is the closing summary since the last close.
type ZReportDTO struct {
	Since             string         `json:"since"`
	GeneratedAt       string         `json:"generated_at"`
	TotalSales        float64        `json:"total_sales"`
	TotalTransactions int64          `json:"total_transactions"`
	BestSeller        *BestSellerDTO `json:"best_seller"`
}

type ProductSalesDTO struct {
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	QuantitySold int64   `json:"quantity_sold"`
	TotalRevenue float64 `json:"total_revenue"`
}

type InventoryUsageDTO struct {
	ItemID       int64  `json:"item_id"`
	ItemName     string `json:"item_name"`
	AmountUsed   int64  `json:"amount_used"`
	CurrentStock int64  `json:"current_stock"`
	UsagePercent int64  `json:"usage_percent"`
}

// =============================================================================
// BUSINESS DAY
// =============================================================================

type ClosureDTO struct {
	ID       int64  `json:"id"`
	ClosedAt string `json:"closed_at"`
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func toProductDTO(p pos.Product) ProductDTO {
	return ProductDTO{
		ProductID:   p.ID,
		ProductName: p.Name,
		Price:       money(p.Price),
		Category:    p.Category,
		Allergens:   p.Allergens,
	}
}

func toInventoryDTO(item pos.InventoryItem) InventoryDTO {
	return InventoryDTO{ItemID: item.ID, ItemName: item.Name, Amount: item.Amount}
}

func toSaleLineDTO(l pos.SaleLine) SaleLineDTO {
	return SaleLineDTO{
		OrderID:           l.OrderID,
		TransactionNumber: l.TransactionNumber,
		ProductID:         l.ProductID,
		ProductName:       l.ProductName,
		CustomerID:        l.CustomerID,
		PurchaseDate:      formatTime(l.PurchasedAt),
		Quantity:          l.Quantity,
		Price:             money(l.UnitPrice),
		IceAmount:         l.IceAmount,
		ToppingSelection:  l.ToppingSelection,
	}
}

func toXReportDTO(r pos.XReport) XReportDTO {
	dto := XReportDTO{
		Since:       formatTime(r.Since),
		Hours:       make([]HourDTO, len(r.Hours)),
		TotalOrders: r.TotalOrders,
		TotalSales:  money(r.TotalSales),
		AverageSale: money(r.AverageSale),
	}
	for i, h := range r.Hours {
		dto.Hours[i] = HourDTO{
			Hour:        h.Hour,
			Label:       h.Label,
			OrderCount:  h.Orders,
			TotalSales:  money(h.Sales),
			AverageSale: money(h.AverageSale),
		}
	}
	return dto
}

func toZReportDTO(r pos.ZReport) ZReportDTO {
	dto := ZReportDTO{
		Since:             formatTime(r.Since),
		GeneratedAt:       formatTime(r.GeneratedAt),
		TotalSales:        money(r.TotalSales),
		TotalTransactions: r.TotalTransactions,
	}
	if r.BestSeller != nil {
		dto.BestSeller = &BestSellerDTO{
			ProductID:   r.BestSeller.ProductID,
			ProductName: r.BestSeller.ProductName,
			OrderCount:  r.BestSeller.Orders,
		}
	}
	return dto
}
