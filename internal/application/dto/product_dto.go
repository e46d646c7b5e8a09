package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto con su stock inicial.
type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	InitialStock decimal.Decimal `json:"initial_stock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Available   decimal.Decimal `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// StockChangeRequest body para restock (Quantity > 0) y ajuste (Quantity con signo).
type StockChangeRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes,omitempty"`
}

// StockResponse disponible actual de un producto.
type StockResponse struct {
	ProductID string          `json:"product_id"`
	Available decimal.Decimal `json:"available"`
}

// StockMovementResponse movimiento del ledger.
type StockMovementResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Type      string          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	BillID    string          `json:"bill_id,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}
