package entity

import "time"

// Estados de una organización.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// Planes conocidos. Los límites concretos viven en la tabla plan_limits.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Tenant representa una organización cliente: delimita la visibilidad de los datos y el plan de facturación.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	Status    string
	PlanID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantUser membresía de un usuario en una organización (tabla tenant_users).
type TenantUser struct {
	TenantID  string
	UserID    string
	Role      string
	IsDefault bool
	CreatedAt time.Time
}

// Recursos limitados por plan.
const (
	ResourceProducts   = "products"
	ResourceUsers      = "users"
	ResourceWarehouses = "warehouses"
	ResourceSalesMonth = "sales_month"
)

// PlanLimit topes del plan (tabla plan_limits). Un valor <= 0 significa ilimitado.
type PlanLimit struct {
	PlanID           string
	MaxProducts      int
	MaxUsers         int
	MaxWarehouses    int
	MaxSalesPerMonth int
}

// Limit devuelve el tope configurado para el recurso.
func (p PlanLimit) Limit(resource string) int {
	switch resource {
	case ResourceProducts:
		return p.MaxProducts
	case ResourceUsers:
		return p.MaxUsers
	case ResourceWarehouses:
		return p.MaxWarehouses
	case ResourceSalesMonth:
		return p.MaxSalesPerMonth
	}
	return 0
}

// Allows informa si con `current` registros todavía se puede crear uno más.
func (p PlanLimit) Allows(resource string, current int) bool {
	limit := p.Limit(resource)
	if limit <= 0 {
		return true
	}
	return current < limit
}
