package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest línea de venta. UnitPrice nil = precio del producto.
type SaleItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  decimal.Decimal  `json:"discount"`
}

// CreateSaleRequest body de POST /api/sales.
type CreateSaleRequest struct {
	WarehouseID   string            `json:"warehouse_id" validate:"required,uuid"`
	CustomerName  string            `json:"customer_name" validate:"max=200"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=efectivo tarjeta transferencia"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount      decimal.Decimal   `json:"discount"`
	TaxRate       decimal.Decimal   `json:"tax_rate"` // porcentaje, 0 por defecto
	AmountPaid    *decimal.Decimal  `json:"amount_paid,omitempty"`
	Notes         string            `json:"notes" validate:"max=500"`
}

// CancelSaleRequest anulación.
type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// SaleDetailResponse línea de venta.
type SaleDetailResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta con sus líneas.
type SaleResponse struct {
	ID            string               `json:"id"`
	Number        string               `json:"number"`
	WarehouseID   string               `json:"warehouse_id"`
	UserID        string               `json:"user_id"`
	CustomerName  string               `json:"customer_name"`
	PaymentMethod string               `json:"payment_method"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	Tax           decimal.Decimal      `json:"tax"`
	Total         decimal.Decimal      `json:"total"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	Change        decimal.Decimal      `json:"change"`
	Status        string               `json:"status"`
	Notes         string               `json:"notes"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	Items         []SaleDetailResponse `json:"items,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// SaleFilterRequest query de GET /api/sales.
type SaleFilterRequest struct {
	PageRequest
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	UserID      string `query:"user_id" validate:"omitempty,uuid"`
	Status      string `query:"status" validate:"omitempty,oneof=completada anulada"`
	From        string `query:"from"`
	To          string `query:"to"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ReceiptResponse resultado de generar el recibo cuando se archiva.
type ReceiptResponse struct {
	SaleID string `json:"sale_id"`
	URL    string `json:"url,omitempty"`
}
