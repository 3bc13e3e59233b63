package dto

import "time"

// CreateTenantRequest alta de organización.
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

// SwitchTenantRequest cambio de organización activa.
type SwitchTenantRequest struct {
	TenantID string `json:"tenant_id" validate:"required,uuid"`
}

// TenantResponse organización con el rol del usuario en ella.
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	PlanID    string    `json:"plan_id"`
	Role      string    `json:"role,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// SwitchTenantResponse nuevo token emitido para la organización elegida.
type SwitchTenantResponse struct {
	Token  string         `json:"token"`
	Tenant TenantResponse `json:"tenant"`
}

// SubscriptionResponse suscripción y topes del plan.
type SubscriptionResponse struct {
	TenantID         string     `json:"tenant_id"`
	PlanID           string     `json:"plan_id"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	Limits           PlanLimits `json:"limits"`
}

// PlanLimits topes del plan (0 = ilimitado).
type PlanLimits struct {
	MaxProducts      int `json:"max_products"`
	MaxUsers         int `json:"max_users"`
	MaxWarehouses    int `json:"max_warehouses"`
	MaxSalesPerMonth int `json:"max_sales_per_month"`
}
