package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para tableros. Se construye sobre el pool (fuera de transacciones).
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// SalesSummary ingresos, número de ventas y unidades vendidas en [from, to).
func (r *AnalyticsRepo) SalesSummary(ctx context.Context, tenantID string, from, to time.Time) (repository.SalesSummary, error) {
	var s repository.SalesSummary
	err := r.q.QueryRow(ctx, `
		SELECT
		    COALESCE(SUM(v.total), 0),
		    COUNT(*),
		    COALESCE((
		        SELECT SUM(d.cantidad)
		        FROM detalles_venta d JOIN ventas v2 ON v2.id = d.venta_id
		        WHERE v2.tenant_id = $1 AND v2.estado = 'completada'
		          AND v2.created_at >= $2 AND v2.created_at < $3
		    ), 0)
		FROM ventas v
		WHERE v.tenant_id = $1 AND v.estado = 'completada'
		  AND v.created_at >= $2 AND v.created_at < $3`,
		tenantID, from, to).Scan(&s.Revenue, &s.SaleCount, &s.UnitsSold)
	if err != nil {
		return s, wrap("sales summary", err)
	}
	return s, nil
}

// SalesByDay serie diaria (solo días con ventas; el caso de uso rellena huecos).
// Los días se cortan en la zona de from, no en la de la sesión.
func (r *AnalyticsRepo) SalesByDay(ctx context.Context, tenantID string, from, to time.Time) ([]repository.DaySales, error) {
	loc := from.Location()
	rows, err := r.q.Query(ctx, `
		SELECT date_trunc('day', created_at AT TIME ZONE $4) AS dia, COALESCE(SUM(total), 0), COUNT(*)
		FROM ventas
		WHERE tenant_id = $1 AND estado = 'completada' AND created_at >= $2 AND created_at < $3
		GROUP BY dia
		ORDER BY dia`, tenantID, from, to, pgTimeZone(from))
	if err != nil {
		return nil, wrap("sales by day", err)
	}
	return collect(rows, "sales by day", func(row pgx.Rows) (repository.DaySales, error) {
		var d repository.DaySales
		err := row.Scan(&d.Day, &d.Revenue, &d.SaleCount)
		d.Day = localDay(d.Day, loc)
		return d, err
	})
}

// pgTimeZone nombre de zona para AT TIME ZONE. "Local" no existe en PostgreSQL: se usa el
// desplazamiento de t en notación POSIX, donde el signo va invertido ("UTC+05" es UTC-5).
func pgTimeZone(t time.Time) string {
	if name := t.Location().String(); name != "Local" && name != "" {
		return name
	}
	_, off := t.Zone()
	mins := off % 3600 / 60
	if mins < 0 {
		mins = -mins
	}
	return fmt.Sprintf("UTC%+03d:%02d", -off/3600, mins)
}

// localDay interpreta el timestamp sin zona que devuelve date_trunc como medianoche en loc.
func localDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// TopProducts productos con mayor ingreso en el período.
func (r *AnalyticsRepo) TopProducts(ctx context.Context, tenantID string, from, to time.Time, limit int) ([]repository.ProductSales, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.nombre, p.sku, SUM(d.cantidad), SUM(d.subtotal) AS ingresos
		FROM detalles_venta d
		JOIN ventas v    ON v.id = d.venta_id
		JOIN productos p ON p.id = d.producto_id
		WHERE v.tenant_id = $1 AND v.estado = 'completada' AND v.created_at >= $2 AND v.created_at < $3
		GROUP BY p.id, p.nombre, p.sku
		ORDER BY ingresos DESC
		LIMIT $4`, tenantID, from, to, limit)
	if err != nil {
		return nil, wrap("top products", err)
	}
	return collect(rows, "top products", func(row pgx.Rows) (repository.ProductSales, error) {
		var p repository.ProductSales
		err := row.Scan(&p.ProductID, &p.ProductName, &p.SKU, &p.UnitsSold, &p.Revenue)
		return p, err
	})
}

// SalesByCategory ingresos por categoría; productos sin categoría se agrupan bajo "Sin categoría".
func (r *AnalyticsRepo) SalesByCategory(ctx context.Context, tenantID string, from, to time.Time) ([]repository.GroupSales, error) {
	rows, err := r.q.Query(ctx, `
		SELECT COALESCE(c.id::text, ''), COALESCE(c.nombre, 'Sin categoría'),
		       COUNT(DISTINCT v.id), SUM(d.subtotal) AS ingresos
		FROM detalles_venta d
		JOIN ventas v    ON v.id = d.venta_id
		JOIN productos p ON p.id = d.producto_id
		LEFT JOIN categorias c ON c.id = p.categoria_id
		WHERE v.tenant_id = $1 AND v.estado = 'completada' AND v.created_at >= $2 AND v.created_at < $3
		GROUP BY c.id, c.nombre
		ORDER BY ingresos DESC`, tenantID, from, to)
	if err != nil {
		return nil, wrap("sales by category", err)
	}
	return collect(rows, "sales by category", scanGroup)
}

// SalesByWarehouse ingresos por almacén.
func (r *AnalyticsRepo) SalesByWarehouse(ctx context.Context, tenantID string, from, to time.Time) ([]repository.GroupSales, error) {
	rows, err := r.q.Query(ctx, `
		SELECT a.id::text, a.nombre, COUNT(*), SUM(v.total) AS ingresos
		FROM ventas v
		JOIN almacenes a ON a.id = v.almacen_id
		WHERE v.tenant_id = $1 AND v.estado = 'completada' AND v.created_at >= $2 AND v.created_at < $3
		GROUP BY a.id, a.nombre
		ORDER BY ingresos DESC`, tenantID, from, to)
	if err != nil {
		return nil, wrap("sales by warehouse", err)
	}
	return collect(rows, "sales by warehouse", scanGroup)
}

// SalesByPaymentMethod ingresos por medio de pago.
func (r *AnalyticsRepo) SalesByPaymentMethod(ctx context.Context, tenantID string, from, to time.Time) ([]repository.GroupSales, error) {
	rows, err := r.q.Query(ctx, `
		SELECT metodo_pago, metodo_pago, COUNT(*), SUM(total) AS ingresos
		FROM ventas
		WHERE tenant_id = $1 AND estado = 'completada' AND created_at >= $2 AND created_at < $3
		GROUP BY metodo_pago
		ORDER BY ingresos DESC`, tenantID, from, to)
	if err != nil {
		return nil, wrap("sales by payment method", err)
	}
	return collect(rows, "sales by payment method", scanGroup)
}

// InventoryValue Σ cantidad × costo promedio.
func (r *AnalyticsRepo) InventoryValue(ctx context.Context, tenantID string) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.cantidad * p.costo), 0)
		FROM inventario i JOIN productos p ON p.id = i.producto_id
		WHERE i.tenant_id = $1`, tenantID).Scan(&v)
	return v.Round(2), wrap("inventory value", err)
}

// LowStockCount filas de inventario de productos activos con cantidad <= stock mínimo.
func (r *AnalyticsRepo) LowStockCount(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*)
		FROM inventario i JOIN productos p ON p.id = i.producto_id
		WHERE i.tenant_id = $1 AND p.activo AND i.cantidad <= p.stock_minimo`, tenantID).Scan(&n)
	return n, wrap("low stock count", err)
}

// NonSellingProducts productos activos sin ventas completadas desde since, en una sola consulta.
func (r *AnalyticsRepo) NonSellingProducts(ctx context.Context, tenantID string, since time.Time, limit int) ([]repository.NonSellingProduct, error) {
	rows, err := r.q.Query(ctx, `
		WITH ultima AS (
		    SELECT d.producto_id, MAX(v.created_at) AS ultima_venta
		    FROM detalles_venta d
		    JOIN ventas v ON v.id = d.venta_id
		    WHERE v.tenant_id = $1 AND v.estado = 'completada'
		    GROUP BY d.producto_id
		), stock AS (
		    SELECT producto_id, SUM(cantidad) AS cantidad
		    FROM inventario WHERE tenant_id = $1
		    GROUP BY producto_id
		)
		SELECT p.id, p.nombre, p.sku, COALESCE(s.cantidad, 0), p.costo, u.ultima_venta
		FROM productos p
		LEFT JOIN ultima u ON u.producto_id = p.id
		LEFT JOIN stock s  ON s.producto_id = p.id
		WHERE p.tenant_id = $1 AND p.activo
		  AND (u.ultima_venta IS NULL OR u.ultima_venta < $2)
		ORDER BY u.ultima_venta ASC NULLS FIRST, p.nombre
		LIMIT $3`, tenantID, since, limit)
	if err != nil {
		return nil, wrap("non selling products", err)
	}
	return collect(rows, "non selling products", func(row pgx.Rows) (repository.NonSellingProduct, error) {
		var p repository.NonSellingProduct
		err := row.Scan(&p.ProductID, &p.Name, &p.SKU, &p.Stock, &p.Cost, &p.LastSaleAt)
		return p, err
	})
}

func scanGroup(row pgx.Rows) (repository.GroupSales, error) {
	var g repository.GroupSales
	err := row.Scan(&g.Key, &g.Label, &g.SaleCount, &g.Revenue)
	return g, err
}

// collect recorre rows con scan y cierra el cursor.
func collect[T any](rows pgx.Rows, op string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, v)
	}
	return out, wrap(op, rows.Err())
}
