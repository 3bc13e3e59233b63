package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryRequest alta/edición de categoría.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=500"`
}

// CategoryResponse salida de categoría.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnitRequest alta/edición de unidad de medida.
type UnitRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=60"`
	Abbreviation string `json:"abbreviation" validate:"required,min=1,max=10"`
}

// UnitResponse salida de unidad.
type UnitResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU         string          `json:"sku" validate:"required,min=1,max=100"`
	Barcode     string          `json:"barcode" validate:"max=64"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description"`
	CategoryID  *string         `json:"category_id" validate:"omitempty,uuid"`
	UnitID      *string         `json:"unit_id" validate:"omitempty,uuid"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

// StockSetting cantidad absoluta deseada en un almacén.
type StockSetting struct {
	WarehouseID string          `json:"warehouse_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// UpdateProductRequest entrada para actualizar un producto. Stock (opcional) fija la cantidad
// por almacén mediante movimientos de ajuste en la misma transacción.
type UpdateProductRequest struct {
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Barcode     *string          `json:"barcode" validate:"omitempty,max=64"`
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
	UnitID      *string          `json:"unit_id" validate:"omitempty,uuid"`
	Price       *decimal.Decimal `json:"price"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	Active      *bool            `json:"active"`
	Stock       []StockSetting   `json:"stock" validate:"omitempty,dive"`
}

// ProductFilterRequest query de GET /api/products.
type ProductFilterRequest struct {
	PageRequest
	Search     string `query:"search"`
	CategoryID string `query:"category_id" validate:"omitempty,uuid"`
	ActiveOnly bool   `query:"active_only"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  *string         `json:"category_id"`
	UnitID      *string         `json:"unit_id"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	MinStock    decimal.Decimal `json:"min_stock"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// DeleteProductResponse Deactivated=true cuando el producto tenía ventas y solo se desactivó.
type DeleteProductResponse struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}
