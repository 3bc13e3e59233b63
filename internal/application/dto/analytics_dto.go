package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardResponse KPIs del período y comparación contra el período anterior de igual duración.
type DashboardResponse struct {
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	Revenue            decimal.Decimal `json:"revenue"`
	SaleCount          int             `json:"sale_count"`
	AverageTicket      decimal.Decimal `json:"average_ticket"`
	UnitsSold          decimal.Decimal `json:"units_sold"`
	RevenueChange      decimal.Decimal `json:"revenue_change_pct"`
	SaleCountChange    decimal.Decimal `json:"sale_count_change_pct"`
	AverageTicketDelta decimal.Decimal `json:"average_ticket_change_pct"`
	InventoryValue     decimal.Decimal `json:"inventory_value"`
	LowStockCount      int             `json:"low_stock_count"`
}

// DaySalesDTO punto de la serie diaria.
type DaySalesDTO struct {
	Date      string          `json:"date"` // YYYY-MM-DD
	Label     string          `json:"label"`
	Revenue   decimal.Decimal `json:"revenue"`
	SaleCount int             `json:"sale_count"`
}

// TopProductDTO producto más vendido.
type TopProductDTO struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	UnitsSold   decimal.Decimal `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// GroupSalesDTO agregado por categoría, almacén o medio de pago.
type GroupSalesDTO struct {
	Key       string          `json:"key"`
	Label     string          `json:"label"`
	SaleCount int             `json:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue"`
	Share     decimal.Decimal `json:"share_pct"` // participación sobre el total del período
}

// NonSellingProductDTO producto sin ventas recientes.
type NonSellingProductDTO struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	Stock           decimal.Decimal `json:"stock"`
	StockValue      decimal.Decimal `json:"stock_value"`
	LastSaleAt      *time.Time      `json:"last_sale_at"`
	DaysWithoutSale *int            `json:"days_without_sale"`
}

// PeriodRequest query común de los reportes (YYYY-MM-DD, ambos inclusive).
// Vacíos = mes en curso hasta hoy.
type PeriodRequest struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}
