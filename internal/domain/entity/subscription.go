package entity

import "time"

// Estados de suscripción (alineados con los de Stripe que nos interesan).
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPending  = "pending"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

// Subscription suscripción de una organización a un plan (tabla subscriptions).
type Subscription struct {
	ID                   string
	TenantID             string
	PlanID               string
	Status               string
	StripeCustomerID     string
	StripeSubscriptionID string
	CurrentPeriodEnd     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
