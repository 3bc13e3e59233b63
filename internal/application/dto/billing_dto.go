package dto

// CheckoutRequest body de POST /api/functions/create-checkout.
type CheckoutRequest struct {
	PlanID   string `json:"planId" validate:"required,oneof=basic pro enterprise"`
	TenantID string `json:"tenantId" validate:"required,uuid"`
}

// CheckoutResponse URL de la sesión de pago.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// WebhookResponse acuse de recibo del webhook.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventType string `json:"event_type,omitempty"`
	Handled   bool   `json:"handled"`
}
