package entity

import "time"

// Category categoría de productos de una organización.
type Category struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Unit unidad de medida (tabla unidades): "Unidad"/"und", "Kilogramo"/"kg"...
type Unit struct {
	ID           string
	TenantID     string
	Name         string
	Abbreviation string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
