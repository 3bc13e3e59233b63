package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID       string           `json:"product_id" validate:"required,uuid"`
	WarehouseID     string           `json:"warehouse_id,omitempty" validate:"omitempty,uuid"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty" validate:"omitempty,uuid"`
	ToWarehouseID   string           `json:"to_warehouse_id,omitempty" validate:"omitempty,uuid"`
	Type            string           `json:"type" validate:"required,oneof=entrada salida ajuste transferencia"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Reference       string           `json:"reference" validate:"max=120"`
	Notes           string           `json:"notes" validate:"max=500"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementFilterRequest query de GET /api/inventory/movements.
type MovementFilterRequest struct {
	PageRequest
	ProductID   string `query:"product_id" validate:"omitempty,uuid"`
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	Type        string `query:"type" validate:"omitempty,oneof=entrada salida transferencia ajuste venta devolucion"`
	From        string `query:"from"` // YYYY-MM-DD
	To          string `query:"to"`   // YYYY-MM-DD, inclusive
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// InventoryFilterRequest query de GET /api/inventory.
type InventoryFilterRequest struct {
	PageRequest
	WarehouseID  string `query:"warehouse_id" validate:"omitempty,uuid"`
	Search       string `query:"search"`
	LowStockOnly bool   `query:"low_stock"`
}

// InventoryItemResponse fila de inventario.
type InventoryItemResponse struct {
	WarehouseID   string          `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	SKU           string          `json:"sku"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	LowStock      bool            `json:"low_stock"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InventoryListResponse lista paginada de inventario.
type InventoryListResponse struct {
	Items []InventoryItemResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// WarehouseStock cantidad de un producto en un almacén.
type WarehouseStock struct {
	WarehouseID   string          `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// ProductStockResponse stock por almacén y total.
type ProductStockResponse struct {
	ProductID  string           `json:"product_id"`
	Warehouses []WarehouseStock `json:"warehouses"`
	Total      decimal.Decimal  `json:"total"`
}

// LowStockDTO producto bajo mínimo con sugerencia de reposición.
type LowStockDTO struct {
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	WarehouseID       string          `json:"warehouse_id"`
	WarehouseName     string          `json:"warehouse_name"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	MinStock          decimal.Decimal `json:"min_stock"`
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"`  // MinStock * 1.5 - CurrentStock
	EstimatedCost     decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * costo
	UnitsSold90Days   decimal.Decimal `json:"units_sold_last_90_days"`
	Priority          int             `json:"priority"`             // 1 = más urgente
}
