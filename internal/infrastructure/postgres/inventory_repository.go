package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var (
	_ repository.InventoryRepository = (*InventoryRepo)(nil)
	_ repository.MovementRepository  = (*MovementRepo)(nil)
)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de inventario. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// Get cantidad actual; una fila inexistente equivale a stock 0.
func (r *InventoryRepo) Get(ctx context.Context, tenantID, warehouseID, productID string) (*entity.InventoryLine, error) {
	var l entity.InventoryLine
	err := r.q.QueryRow(ctx, `
		SELECT tenant_id, almacen_id, producto_id, cantidad, updated_at
		FROM inventario WHERE tenant_id = $1 AND almacen_id = $2 AND producto_id = $3`,
		tenantID, warehouseID, productID).
		Scan(&l.TenantID, &l.WarehouseID, &l.ProductID, &l.Quantity, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &entity.InventoryLine{TenantID: tenantID, WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero}, nil
	}
	if err != nil {
		return nil, wrap("get inventory", err)
	}
	return &l, nil
}

// GetForUpdate asegura que la fila exista y la bloquea (SELECT FOR UPDATE) hasta el fin de la transacción.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, tenantID, warehouseID, productID string) (*entity.InventoryLine, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO inventario (tenant_id, almacen_id, producto_id, cantidad, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (almacen_id, producto_id) DO NOTHING`, tenantID, warehouseID, productID); err != nil {
		return nil, wrap("ensure inventory row", err)
	}
	var l entity.InventoryLine
	err := r.q.QueryRow(ctx, `
		SELECT tenant_id, almacen_id, producto_id, cantidad, updated_at
		FROM inventario WHERE tenant_id = $1 AND almacen_id = $2 AND producto_id = $3
		FOR UPDATE`, tenantID, warehouseID, productID).
		Scan(&l.TenantID, &l.WarehouseID, &l.ProductID, &l.Quantity, &l.UpdatedAt)
	if err != nil {
		return nil, wrap("lock inventory", err)
	}
	return &l, nil
}

// Upsert inserta o actualiza la cantidad (por almacén y producto).
func (r *InventoryRepo) Upsert(ctx context.Context, l *entity.InventoryLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventario (tenant_id, almacen_id, producto_id, cantidad, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (almacen_id, producto_id)
		DO UPDATE SET cantidad = EXCLUDED.cantidad, updated_at = now()`,
		l.TenantID, l.WarehouseID, l.ProductID, l.Quantity)
	return wrap("upsert inventory", err)
}

// TotalForProduct stock total del producto en la organización.
func (r *InventoryRepo) TotalForProduct(ctx context.Context, tenantID, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(cantidad), 0) FROM inventario
		WHERE tenant_id = $1 AND producto_id = $2`, tenantID, productID).Scan(&total)
	return total, wrap("total inventory", err)
}

// List inventario con nombres de producto y almacén.
func (r *InventoryRepo) List(ctx context.Context, f repository.InventoryFilter) ([]*repository.InventoryItem, int, error) {
	const from = `
		FROM inventario i
		JOIN productos p ON p.id = i.producto_id
		JOIN almacenes a ON a.id = i.almacen_id
		WHERE i.tenant_id = $1
		  AND ($2 = '' OR i.almacen_id::text = $2)
		  AND ($3 = '' OR p.nombre ILIKE '%' || $3 || '%' OR p.sku ILIKE '%' || $3 || '%')
		  AND (NOT $4 OR i.cantidad <= p.stock_minimo)`
	args := []any{f.TenantID, f.WarehouseID, f.Search, f.LowStockOnly}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, wrap("count inventory", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT i.almacen_id, a.nombre, i.producto_id, p.nombre, p.sku, i.cantidad, p.stock_minimo, p.costo, i.updated_at`+from+`
		ORDER BY p.nombre, a.nombre LIMIT $5 OFFSET $6`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, wrap("list inventory", err)
	}
	defer rows.Close()
	var out []*repository.InventoryItem
	for rows.Next() {
		var it repository.InventoryItem
		if err := rows.Scan(&it.WarehouseID, &it.WarehouseName, &it.ProductID, &it.ProductName, &it.SKU,
			&it.Quantity, &it.MinStock, &it.Cost, &it.UpdatedAt); err != nil {
			return nil, 0, wrap("scan inventory", err)
		}
		out = append(out, &it)
	}
	return out, total, wrap("list inventory", rows.Err())
}

// MovementRepo movimientos (tabla movimientos).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador de movimientos.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	var createdBy *string
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO movimientos (id, tenant_id, producto_id, almacen_id, tipo, cantidad, stock_anterior, stock_nuevo,
			costo_unitario, referencia, notas, creado_por, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, m.TenantID, m.ProductID, m.WarehouseID, m.Type, m.Quantity, m.PreviousStock, m.NewStock,
		m.UnitCost, m.Reference, m.Notes, createdBy, m.CreatedAt)
	return wrap("insert movement", err)
}

// List movimientos filtrados, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	const where = `
		WHERE tenant_id = $1
		  AND ($2 = '' OR producto_id::text = $2)
		  AND ($3 = '' OR almacen_id::text = $3)
		  AND ($4 = '' OR tipo = $4)
		  AND ($5::timestamptz IS NULL OR created_at >= $5)
		  AND ($6::timestamptz IS NULL OR created_at < $6)`
	args := []any{f.TenantID, f.ProductID, f.WarehouseID, f.Type, f.From, f.To}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM movimientos`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrap("count movements", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, tenant_id, producto_id, almacen_id, tipo, cantidad, stock_anterior, stock_nuevo,
			costo_unitario, referencia, notas, COALESCE(creado_por::text, ''), created_at
		FROM movimientos`+where+`
		ORDER BY created_at DESC LIMIT $7 OFFSET $8`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, wrap("list movements", err)
	}
	defer rows.Close()
	var out []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.WarehouseID, &m.Type, &m.Quantity,
			&m.PreviousStock, &m.NewStock, &m.UnitCost, &m.Reference, &m.Notes, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, 0, wrap("scan movement", err)
		}
		out = append(out, &m)
	}
	return out, total, wrap("list movements", rows.Err())
}
