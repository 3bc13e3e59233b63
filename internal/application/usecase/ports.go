package usecase

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// LimitChecker valida topes del plan antes de crear registros.
type LimitChecker interface {
	CheckLimit(ctx context.Context, tenantID, resource string) error
}
