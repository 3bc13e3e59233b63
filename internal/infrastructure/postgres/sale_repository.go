package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y detalles (tablas ventas, detalles_venta).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, tenant_id, almacen_id, usuario_id, numero, cliente, metodo_pago, subtotal, descuento,
	impuesto, total, monto_pagado, cambio, estado, notas, motivo_anulacion, created_at, updated_at`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.TenantID, &s.WarehouseID, &s.UserID, &s.Number, &s.CustomerName, &s.PaymentMethod,
		&s.Subtotal, &s.Discount, &s.Tax, &s.Total, &s.AmountPaid, &s.Change, &s.Status, &s.Notes,
		&s.CancelReason, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserta la cabecera de la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ventas (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		s.ID, s.TenantID, s.WarehouseID, s.UserID, s.Number, s.CustomerName, s.PaymentMethod,
		s.Subtotal, s.Discount, s.Tax, s.Total, s.AmountPaid, s.Change, s.Status, s.Notes,
		s.CancelReason, s.CreatedAt, s.UpdatedAt)
	return wrap("insert sale", err)
}

// CreateDetail inserta una línea de venta.
func (r *SaleRepo) CreateDetail(ctx context.Context, d *entity.SaleDetail) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO detalles_venta (id, venta_id, producto_id, cantidad, precio_unitario, descuento, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.SaleID, d.ProductID, d.Quantity, d.UnitPrice, d.Discount, d.Subtotal)
	return wrap("insert sale detail", err)
}

func (r *SaleRepo) getOne(ctx context.Context, query, tenantID, id string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get sale", err)
	}
	return s, nil
}

// GetByID venta de la organización o nil.
func (r *SaleRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM ventas WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate venta bloqueada para modificar su estado.
func (r *SaleRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM ventas WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

// ListDetails líneas de la venta con el nombre del producto.
func (r *SaleRepo) ListDetails(ctx context.Context, saleID string) ([]*entity.SaleDetail, error) {
	rows, err := r.q.Query(ctx, `
		SELECT d.id, d.venta_id, d.producto_id, p.nombre, d.cantidad, d.precio_unitario, d.descuento, d.subtotal
		FROM detalles_venta d
		JOIN productos p ON p.id = d.producto_id
		WHERE d.venta_id = $1
		ORDER BY p.nombre`, saleID)
	if err != nil {
		return nil, wrap("list sale details", err)
	}
	defer rows.Close()
	var out []*entity.SaleDetail
	for rows.Next() {
		var d entity.SaleDetail
		if err := rows.Scan(&d.ID, &d.SaleID, &d.ProductID, &d.ProductName, &d.Quantity, &d.UnitPrice, &d.Discount, &d.Subtotal); err != nil {
			return nil, wrap("scan sale detail", err)
		}
		out = append(out, &d)
	}
	return out, wrap("list sale details", rows.Err())
}

// UpdateStatus guarda estado y motivo de anulación.
func (r *SaleRepo) UpdateStatus(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		UPDATE ventas SET estado = $3, motivo_anulacion = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`, s.TenantID, s.ID, s.Status, s.CancelReason)
	return wrap("update sale status", err)
}

// List ventas filtradas, más recientes primero.
func (r *SaleRepo) List(ctx context.Context, f repository.SaleFilter) ([]*entity.Sale, int, error) {
	const where = `
		WHERE tenant_id = $1
		  AND ($2 = '' OR almacen_id::text = $2)
		  AND ($3 = '' OR usuario_id::text = $3)
		  AND ($4 = '' OR estado = $4)
		  AND ($5::timestamptz IS NULL OR created_at >= $5)
		  AND ($6::timestamptz IS NULL OR created_at < $6)`
	args := []any{f.TenantID, f.WarehouseID, f.UserID, f.Status, f.From, f.To}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM ventas`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrap("count sales", err)
	}
	rows, err := r.q.Query(ctx, `SELECT `+saleColumns+` FROM ventas`+where+`
		ORDER BY created_at DESC LIMIT $7 OFFSET $8`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, wrap("list sales", err)
	}
	defer rows.Close()
	var out []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, wrap("scan sale", err)
		}
		out = append(out, s)
	}
	return out, total, wrap("list sales", rows.Err())
}

// NextNumber incrementa el consecutivo de la organización. Dentro de una tx la fila queda
// bloqueada hasta el commit, así dos ventas concurrentes nunca comparten número.
func (r *SaleRepo) NextNumber(ctx context.Context, tenantID string) (string, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO venta_consecutivos (tenant_id, ultimo) VALUES ($1, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET ultimo = venta_consecutivos.ultimo + 1
		RETURNING ultimo`, tenantID).Scan(&n)
	if err != nil {
		return "", wrap("next sale number", err)
	}
	return FormatSaleNumber(n), nil
}

// FormatSaleNumber "V-000123".
func FormatSaleNumber(n int64) string {
	return fmt.Sprintf("V-%06d", n)
}

// CountSince ventas completadas desde since.
func (r *SaleRepo) CountSince(ctx context.Context, tenantID string, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*) FROM ventas
		WHERE tenant_id = $1 AND estado = 'completada' AND created_at >= $2`, tenantID, since).Scan(&n)
	return n, wrap("count sales", err)
}
