package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto vendible. Cost es costo promedio ponderado, recalculado en cada entrada.
// El stock vive por almacén en InventoryLine.
type Product struct {
	ID          string
	TenantID    string
	CategoryID  *string
	UnitID      *string
	SKU         string
	Barcode     string
	Name        string
	Description string
	Price       decimal.Decimal
	Cost        decimal.Decimal
	MinStock    decimal.Decimal
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
