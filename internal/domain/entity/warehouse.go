package entity

import "time"

// Warehouse almacén o sucursal con inventario propio.
type Warehouse struct {
	ID        string
	TenantID  string
	Name      string
	Address   string
	Phone     string
	IsMain    bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
