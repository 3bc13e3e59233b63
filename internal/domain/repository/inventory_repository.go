package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// InventoryItem fila de inventario con datos de producto y almacén para listados.
type InventoryItem struct {
	WarehouseID   string
	WarehouseName string
	ProductID     string
	ProductName   string
	SKU           string
	Quantity      decimal.Decimal
	MinStock      decimal.Decimal
	Cost          decimal.Decimal
	UpdatedAt     time.Time
}

// InventoryFilter criterios de listado de inventario.
type InventoryFilter struct {
	TenantID     string
	WarehouseID  string
	Search       string
	LowStockOnly bool // cantidad <= stock mínimo
	Limit        int
	Offset       int
}

// InventoryRepository stock por almacén+producto (tabla inventario).
// Usado dentro de transacciones para garantizar consistencia.
type InventoryRepository interface {
	Get(ctx context.Context, tenantID, warehouseID, productID string) (*entity.InventoryLine, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); si no existe la crea en 0 y la bloquea.
	GetForUpdate(ctx context.Context, tenantID, warehouseID, productID string) (*entity.InventoryLine, error)
	Upsert(ctx context.Context, line *entity.InventoryLine) error
	// TotalForProduct suma de cantidades del producto en todos los almacenes.
	TotalForProduct(ctx context.Context, tenantID, productID string) (decimal.Decimal, error)
	List(ctx context.Context, f InventoryFilter) ([]*InventoryItem, int, error)
}

// MovementFilter criterios de listado de movimientos.
type MovementFilter struct {
	TenantID    string
	ProductID   string
	WarehouseID string
	Type        string
	From, To    *time.Time
	Limit       int
	Offset      int
}

// MovementRepository define el puerto de persistencia para movimientos (tabla movimientos).
type MovementRepository interface {
	Create(ctx context.Context, m *entity.Movement) error
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, int, error)
}
