package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryLine cantidad de un producto en un almacén (tabla inventario).
type InventoryLine struct {
	TenantID    string
	WarehouseID string
	ProductID   string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

// Tipos de movimiento.
const (
	MovementEntrada       = "entrada"
	MovementSalida        = "salida"
	MovementTransferencia = "transferencia"
	MovementAjuste        = "ajuste"
	MovementVenta         = "venta"
	MovementDevolucion    = "devolucion"
)

// Movement registro de un cambio de stock (tabla movimientos).
// Quantity es con signo: positivo suma, negativo resta.
type Movement struct {
	ID            string
	TenantID      string
	ProductID     string
	WarehouseID   string
	Type          string
	Quantity      decimal.Decimal
	PreviousStock decimal.Decimal
	NewStock      decimal.Decimal
	UnitCost      decimal.Decimal
	Reference     string // venta, traslado u otro documento
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}
