package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummary totales de ventas completadas en un período.
type SalesSummary struct {
	Revenue   decimal.Decimal
	SaleCount int
	UnitsSold decimal.Decimal
}

// DaySales punto de la serie diaria.
type DaySales struct {
	Day       time.Time
	Revenue   decimal.Decimal
	SaleCount int
}

// ProductSales agregado de ventas por producto.
type ProductSales struct {
	ProductID   string
	ProductName string
	SKU         string
	UnitsSold   decimal.Decimal
	Revenue     decimal.Decimal
}

// GroupSales agregado genérico (categoría, almacén, medio de pago).
type GroupSales struct {
	Key       string // id del grupo o valor (medio de pago); "" = sin categoría
	Label     string
	SaleCount int
	Revenue   decimal.Decimal
}

// NonSellingProduct producto activo sin ventas desde la fecha de corte.
type NonSellingProduct struct {
	ProductID  string
	Name       string
	SKU        string
	Stock      decimal.Decimal
	Cost       decimal.Decimal
	LastSaleAt *time.Time // nil = nunca vendido
}

// AnalyticsRepository consultas de lectura para tableros. Solo ventas con estado completada.
type AnalyticsRepository interface {
	SalesSummary(ctx context.Context, tenantID string, from, to time.Time) (SalesSummary, error)
	SalesByDay(ctx context.Context, tenantID string, from, to time.Time) ([]DaySales, error)
	TopProducts(ctx context.Context, tenantID string, from, to time.Time, limit int) ([]ProductSales, error)
	SalesByCategory(ctx context.Context, tenantID string, from, to time.Time) ([]GroupSales, error)
	SalesByWarehouse(ctx context.Context, tenantID string, from, to time.Time) ([]GroupSales, error)
	SalesByPaymentMethod(ctx context.Context, tenantID string, from, to time.Time) ([]GroupSales, error)
	// InventoryValue suma de cantidad × costo promedio en todos los almacenes.
	InventoryValue(ctx context.Context, tenantID string) (decimal.Decimal, error)
	LowStockCount(ctx context.Context, tenantID string) (int, error)
	// NonSellingProducts una sola consulta agregada, ordenada por última venta (nunca vendidos primero).
	NonSellingProducts(ctx context.Context, tenantID string, since time.Time, limit int) ([]NonSellingProduct, error)
}
