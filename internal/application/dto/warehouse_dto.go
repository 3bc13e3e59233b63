package dto

import "time"

// WarehouseRequest alta/edición de almacén.
type WarehouseRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=120"`
	Address string `json:"address" validate:"max=250"`
	Phone   string `json:"phone" validate:"max=40"`
	IsMain  bool   `json:"is_main"`
	Active  *bool  `json:"active"`
}

// WarehouseResponse salida de almacén.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	IsMain    bool      `json:"is_main"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
