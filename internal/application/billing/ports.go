// Package billing suscripciones de pago: sesión de checkout y webhook del proveedor.
package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// MembershipChecker rol del usuario en la organización (implementado por tenancy.UseCase).
type MembershipChecker interface {
	RoleIn(ctx context.Context, tenantID, userID string) (string, error)
}

// CustomerInput datos para crear el cliente en el proveedor de pagos.
type CustomerInput struct {
	TenantID string
	Email    string
	Name     string
}

// CheckoutInput sesión de checkout en modo suscripción.
type CheckoutInput struct {
	CustomerID string
	PriceID    string
	TenantID   string
	PlanID     string
}

// Tipos de evento del webhook que se procesan.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventSubscriptionUpdated = "customer.subscription.updated"
)

// WebhookEvent evento verificado y normalizado. Los campos que no aplican al tipo quedan vacíos.
type WebhookEvent struct {
	ID               string
	Type             string
	TenantID         string
	PlanID           string
	CustomerID       string
	SubscriptionID   string
	Status           string
	CurrentPeriodEnd *time.Time
}

// PaymentGateway puerto hacia el proveedor de pagos (Stripe).
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (string, error)
	// CreateCheckoutSession devuelve la URL a la que se redirige al usuario.
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (string, error)
	// ParseWebhook verifica la firma y normaliza el evento.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
