package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// SaleFilter criterios de listado de ventas.
type SaleFilter struct {
	TenantID    string
	WarehouseID string
	UserID      string
	Status      string
	From, To    *time.Time
	Limit       int
	Offset      int
}

// SaleRepository define el puerto de persistencia para ventas y sus detalles.
type SaleRepository interface {
	Create(ctx context.Context, s *entity.Sale) error
	CreateDetail(ctx context.Context, d *entity.SaleDetail) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Sale, error)
	ListDetails(ctx context.Context, saleID string) ([]*entity.SaleDetail, error)
	UpdateStatus(ctx context.Context, s *entity.Sale) error
	List(ctx context.Context, f SaleFilter) ([]*entity.Sale, int, error)
	// NextNumber reserva el siguiente consecutivo de la organización ("V-000001").
	NextNumber(ctx context.Context, tenantID string) (string, error)
	// CountSince cuenta ventas completadas desde since (límite mensual del plan).
	CountSince(ctx context.Context, tenantID string, since time.Time) (int, error)
}
