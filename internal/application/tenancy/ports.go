package tenancy

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// TenantCache organización activa por usuario (Redis). GetCurrent devuelve "" si no hay valor.
type TenantCache interface {
	GetCurrent(ctx context.Context, userID string) (string, error)
	SetCurrent(ctx context.Context, userID, tenantID string) error
	ClearCurrent(ctx context.Context, userID string) error
}
