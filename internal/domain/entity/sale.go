package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de venta.
const (
	SaleStatusCompleted = "completada"
	SaleStatusCanceled  = "anulada"
)

// Medios de pago.
const (
	PaymentCash     = "efectivo"
	PaymentCard     = "tarjeta"
	PaymentTransfer = "transferencia"
)

// ValidPaymentMethod informa si m es un medio de pago soportado.
func ValidPaymentMethod(m string) bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentTransfer
}

// Sale cabecera de venta (tabla ventas).
type Sale struct {
	ID            string
	TenantID      string
	WarehouseID   string
	UserID        string
	Number        string
	CustomerName  string
	PaymentMethod string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	Change        decimal.Decimal
	Status        string
	Notes         string
	CancelReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleDetail línea de venta (tabla detalles_venta).
type SaleDetail struct {
	ID          string
	SaleID      string
	ProductID   string
	ProductName string // solo lectura, viene del join con productos
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
}
