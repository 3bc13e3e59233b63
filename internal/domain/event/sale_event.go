// Package event eventos de dominio publicados hacia otros sistemas.
package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento de venta.
const (
	SaleCreated   = "sale.created"
	SaleCancelled = "sale.cancelled"
)

// SaleItem línea incluida en el evento.
type SaleItem struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleEvent evento de venta. La clave de partición es TenantID.
type SaleEvent struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	TenantID    string          `json:"tenant_id"`
	SaleID      string          `json:"sale_id"`
	Number      string          `json:"number"`
	WarehouseID string          `json:"warehouse_id"`
	UserID      string          `json:"user_id"`
	Total       decimal.Decimal `json:"total"`
	Items       []SaleItem      `json:"items,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
