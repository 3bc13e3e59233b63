package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// StockLocker lock distribuido previo a la transacción (Redis). Opcional: nil desactiva el lock.
type StockLocker interface {
	Acquire(ctx context.Context, keys []string) (release func(), err error)
}

// LockKey llave del lock de stock por organización, almacén y producto.
func LockKey(tenantID, warehouseID, productID string) string {
	return fmt.Sprintf("lock:inventory:%s:%s:%s", tenantID, warehouseID, productID)
}

// acquire toma los locks si hay locker configurado.
func acquire(ctx context.Context, locker StockLocker, keys []string) (func(), error) {
	if locker == nil || len(keys) == 0 {
		return func() {}, nil
	}
	return locker.Acquire(ctx, keys)
}
