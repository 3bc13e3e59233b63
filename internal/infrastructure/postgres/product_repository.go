package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, tenant_id, categoria_id, unidad_id, sku, codigo_barras, nombre, descripcion,
	precio, costo, stock_minimo, activo, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.CategoryID, &p.UnitID, &p.SKU, &p.Barcode, &p.Name, &p.Description,
		&p.Price, &p.Cost, &p.MinStock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. SKU repetido en la organización -> ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO productos (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.TenantID, p.CategoryID, p.UnitID, p.SKU, p.Barcode, p.Name, p.Description,
		p.Price, p.Cost, p.MinStock, p.Active, p.CreatedAt, p.UpdatedAt)
	return wrap("insert product", err)
}

func (r *ProductRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM productos WHERE `+where, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get product", err)
	}
	return p, nil
}

// GetByID obtiene un producto de la organización.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	return r.getOne(ctx, `tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate obtiene el producto bloqueando su fila hasta el fin de la transacción.
// Serializa las entradas concurrentes que recalculan el costo promedio.
func (r *ProductRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	return r.getOne(ctx, `tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*entity.Product, error) {
	return r.getOne(ctx, `tenant_id = $1 AND sku = $2`, tenantID, sku)
}

// Update actualiza los datos editables (el costo solo cambia con entradas, ver UpdateCost).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE productos SET categoria_id = $3, unidad_id = $4, sku = $5, codigo_barras = $6, nombre = $7,
			descripcion = $8, precio = $9, stock_minimo = $10, activo = $11, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`,
		p.TenantID, p.ID, p.CategoryID, p.UnitID, p.SKU, p.Barcode, p.Name, p.Description,
		p.Price, p.MinStock, p.Active)
	if err != nil {
		return wrap("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCost actualiza el costo promedio ponderado.
func (r *ProductRepo) UpdateCost(ctx context.Context, tenantID, id string, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE productos SET costo = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`, tenantID, id, cost)
	return wrap("update product cost", err)
}

// SetActive activa o desactiva el producto.
func (r *ProductRepo) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	_, err := r.q.Exec(ctx, `UPDATE productos SET activo = $3, updated_at = now() WHERE tenant_id = $1 AND id = $2`, tenantID, id, active)
	return wrap("set product active", err)
}

// List productos filtrados y paginados; devuelve también el total sin paginar.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, int, error) {
	const where = `
		WHERE tenant_id = $1
		  AND ($2 = '' OR nombre ILIKE '%' || $2 || '%' OR sku ILIKE '%' || $2 || '%' OR codigo_barras = $2)
		  AND ($3 = '' OR categoria_id::text = $3)
		  AND (NOT $4 OR activo)`
	args := []any{f.TenantID, f.Search, f.CategoryID, f.ActiveOnly}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM productos`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrap("count products", err)
	}

	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM productos`+where+`
		ORDER BY nombre LIMIT $5 OFFSET $6`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, wrap("list products", err)
	}
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, wrap("scan product", err)
		}
		out = append(out, p)
	}
	return out, total, wrap("list products", rows.Err())
}

// Count productos de la organización (para límite de plan).
func (r *ProductRepo) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM productos WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, wrap("count products", err)
}

// HasSales indica si el producto figura en algún detalle de venta.
func (r *ProductRepo) HasSales(ctx context.Context, tenantID, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM detalles_venta d JOIN ventas v ON v.id = d.venta_id
			WHERE v.tenant_id = $1 AND d.producto_id = $2
		)`, tenantID, id).Scan(&exists)
	return exists, wrap("product has sales", err)
}

// Delete elimina el producto (y su inventario/movimientos por cascada).
func (r *ProductRepo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM productos WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return wrap("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
