package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo almacenes (tabla almacenes).
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de almacenes.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

const warehouseColumns = `id, tenant_id, nombre, direccion, telefono, es_principal, activo, created_at, updated_at`

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	if err := row.Scan(&w.ID, &w.TenantID, &w.Name, &w.Address, &w.Phone, &w.IsMain, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// Create persiste un almacén.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO almacenes (`+warehouseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.ID, w.TenantID, w.Name, w.Address, w.Phone, w.IsMain, w.Active, w.CreatedAt, w.UpdatedAt)
	return wrap("insert warehouse", err)
}

// GetByID almacén de la organización o nil.
func (r *WarehouseRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM almacenes WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get warehouse", err)
	}
	return w, nil
}

// Update actualiza datos del almacén.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE almacenes SET nombre = $3, direccion = $4, telefono = $5, es_principal = $6, activo = $7, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`,
		w.TenantID, w.ID, w.Name, w.Address, w.Phone, w.IsMain, w.Active)
	if err != nil {
		return wrap("update warehouse", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el almacén. Con inventario, movimientos o ventas -> ErrReferenceInUse.
func (r *WarehouseRepo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM almacenes WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return wrap("delete warehouse", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List almacenes; el principal primero.
func (r *WarehouseRepo) List(ctx context.Context, tenantID string, activeOnly bool) ([]*entity.Warehouse, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+warehouseColumns+` FROM almacenes
		WHERE tenant_id = $1 AND (NOT $2 OR activo)
		ORDER BY es_principal DESC, nombre`, tenantID, activeOnly)
	if err != nil {
		return nil, wrap("list warehouses", err)
	}
	defer rows.Close()
	var out []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, wrap("scan warehouse", err)
		}
		out = append(out, w)
	}
	return out, wrap("list warehouses", rows.Err())
}

// Count almacenes de la organización.
func (r *WarehouseRepo) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM almacenes WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, wrap("count warehouses", err)
}
