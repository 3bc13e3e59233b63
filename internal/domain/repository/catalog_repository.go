package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para categorías.
type CategoryRepository interface {
	Create(ctx context.Context, c *entity.Category) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Category, error)
	Update(ctx context.Context, c *entity.Category) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID, search string) ([]*entity.Category, error)
}

// UnitRepository define el puerto de persistencia para unidades de medida.
type UnitRepository interface {
	Create(ctx context.Context, u *entity.Unit) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Unit, error)
	Update(ctx context.Context, u *entity.Unit) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string) ([]*entity.Unit, error)
}

// ProductFilter criterios de listado de productos.
type ProductFilter struct {
	TenantID   string
	Search     string // nombre, SKU o código de barras (ILIKE)
	CategoryID string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
	// GetForUpdate lee y bloquea la fila (SELECT FOR UPDATE); solo dentro de una transacción.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
	UpdateCost(ctx context.Context, tenantID, id string, cost decimal.Decimal) error
	SetActive(ctx context.Context, tenantID, id string, active bool) error
	List(ctx context.Context, f ProductFilter) ([]*entity.Product, int, error)
	Count(ctx context.Context, tenantID string) (int, error)
	HasSales(ctx context.Context, tenantID, id string) (bool, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// WarehouseRepository define el puerto de persistencia para almacenes.
type WarehouseRepository interface {
	Create(ctx context.Context, w *entity.Warehouse) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, w *entity.Warehouse) error
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, activeOnly bool) ([]*entity.Warehouse, error)
	Count(ctx context.Context, tenantID string) (int, error)
}
