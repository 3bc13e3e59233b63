package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/inventory"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// LockProducts bloquea las filas de productos en orden de ID y las devuelve por ID.
// Toda transacción que toque inventario bloquea primero sus productos y luego las filas de
// inventario: con el mismo orden en todos los caminos no hay interbloqueos.
func LockProducts(ctx context.Context, repos repository.Repositories, tenantID string, ids ...string) (map[string]*entity.Product, error) {
	sorted := make([]string, 0, len(ids))
	out := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		if _, dup := out[id]; dup {
			continue
		}
		out[id] = nil
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)
	for _, id := range sorted {
		p, err := repos.Products.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		out[id] = p
	}
	return out, nil
}

// StockChange cambio de stock sobre una fila de inventario.
// Delta es con signo; si SetTo no es nil se fija la cantidad absoluta (ajuste) y Delta se ignora.
type StockChange struct {
	TenantID    string
	WarehouseID string
	ProductID   string
	Type        string
	Delta       decimal.Decimal
	SetTo       *decimal.Decimal
	UnitCost    decimal.Decimal
	Reference   string
	Notes       string
	UserID      string
}

// ApplyStockChange bloquea la fila (SELECT FOR UPDATE), aplica el cambio y registra el movimiento
// con stock anterior y nuevo. Debe llamarse con repositorios atados a una transacción y con el
// producto ya bloqueado por LockProducts.
// Devuelve ErrInsufficientStock si el resultado sería negativo.
func ApplyStockChange(ctx context.Context, repos repository.Repositories, ch StockChange, now time.Time) (*entity.Movement, error) {
	line, err := repos.Inventory.GetForUpdate(ctx, ch.TenantID, ch.WarehouseID, ch.ProductID)
	if err != nil {
		return nil, err
	}
	previous := line.Quantity
	delta := ch.Delta
	if ch.SetTo != nil {
		delta = ch.SetTo.Sub(previous)
	}
	next, ok := inventory.ApplyDelta(previous, delta)
	if !ok {
		return nil, domain.ErrInsufficientStock
	}

	line.Quantity = next
	line.UpdatedAt = now
	if err := repos.Inventory.Upsert(ctx, line); err != nil {
		return nil, err
	}

	mov := &entity.Movement{
		ID:            uuid.New().String(),
		TenantID:      ch.TenantID,
		ProductID:     ch.ProductID,
		WarehouseID:   ch.WarehouseID,
		Type:          ch.Type,
		Quantity:      delta,
		PreviousStock: previous,
		NewStock:      next,
		UnitCost:      ch.UnitCost,
		Reference:     ch.Reference,
		Notes:         ch.Notes,
		CreatedBy:     ch.UserID,
		CreatedAt:     now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}
