// Package stripe adaptador de billing.PaymentGateway sobre stripe-go.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/jhoicas/Tienda-api/internal/application/billing"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// Gateway implementa billing.PaymentGateway.
type Gateway struct {
	cfg config.StripeConfig
	log *logger.Logger
}

// NewGateway configura la clave global del SDK.
func NewGateway(cfg config.StripeConfig, log *logger.Logger) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: STRIPE_SECRET_KEY requerido")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe: STRIPE_WEBHOOK_SECRET requerido")
	}
	if log == nil {
		log = logger.Nop()
	}
	stripego.Key = cfg.SecretKey
	return &Gateway{cfg: cfg, log: log.Component("stripe")}, nil
}

// CreateCustomer crea el cliente con el tenant_id en metadata.
func (g *Gateway) CreateCustomer(ctx context.Context, in billing.CustomerInput) (string, error) {
	params := &stripego.CustomerParams{
		Email: stripego.String(in.Email),
		Name:  stripego.String(in.Name),
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", in.TenantID)

	cust, err := customer.New(params)
	if err != nil {
		g.log.Error().Err(err).Str("tenant_id", in.TenantID).Msg("no se pudo crear el cliente")
		return "", fmt.Errorf("stripe: crear cliente: %w", err)
	}
	g.log.Info().Str("tenant_id", in.TenantID).Str("customer_id", cust.ID).Msg("cliente creado")
	return cust.ID, nil
}

// CreateCheckoutSession sesión en modo suscripción. La organización viaja como
// client_reference_id y el plan en metadata (de la sesión y de la suscripción).
func (g *Gateway) CreateCheckoutSession(ctx context.Context, in billing.CheckoutInput) (string, error) {
	params := &stripego.CheckoutSessionParams{
		Mode:              stripego.String(string(stripego.CheckoutSessionModeSubscription)),
		Customer:          stripego.String(in.CustomerID),
		ClientReferenceID: stripego.String(in.TenantID),
		SuccessURL:        stripego.String(g.cfg.SuccessURL),
		CancelURL:         stripego.String(g.cfg.CancelURL),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{Price: stripego.String(in.PriceID), Quantity: stripego.Int64(1)},
		},
		SubscriptionData: &stripego.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"tenant_id": in.TenantID, "plan_id": in.PlanID},
		},
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", in.TenantID)
	params.AddMetadata("plan_id", in.PlanID)

	s, err := session.New(params)
	if err != nil {
		g.log.Error().Err(err).Str("tenant_id", in.TenantID).Msg("no se pudo crear la sesión de checkout")
		return "", fmt.Errorf("stripe: crear checkout: %w", err)
	}
	return s.URL, nil
}

// ParseWebhook verifica la firma (Stripe-Signature) y extrae los datos que usa billing.
// La versión de API del endpoint puede diferir de la del SDK: solo se leen campos estables.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*billing.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return toWebhookEvent(event)
}

func toWebhookEvent(event stripego.Event) (*billing.WebhookEvent, error) {
	out := &billing.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case billing.EventCheckoutCompleted:
		var s stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("stripe: checkout session: %w", err)
		}
		out.TenantID = s.ClientReferenceID
		if out.TenantID == "" {
			out.TenantID = s.Metadata["tenant_id"]
		}
		out.PlanID = s.Metadata["plan_id"]
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Subscription != nil {
			out.SubscriptionID = s.Subscription.ID
			if s.Subscription.CurrentPeriodEnd > 0 {
				end := time.Unix(s.Subscription.CurrentPeriodEnd, 0).UTC()
				out.CurrentPeriodEnd = &end
			}
		}
	case billing.EventSubscriptionDeleted, billing.EventSubscriptionUpdated:
		var sub stripego.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("stripe: subscription: %w", err)
		}
		out.SubscriptionID = sub.ID
		out.TenantID = sub.Metadata["tenant_id"]
		out.PlanID = sub.Metadata["plan_id"]
		out.Status = mapStatus(sub.Status)
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		if sub.CurrentPeriodEnd > 0 {
			end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			out.CurrentPeriodEnd = &end
		}
	}
	return out, nil
}

// mapStatus reduce los estados de Stripe a los que maneja la suscripción local.
func mapStatus(s stripego.SubscriptionStatus) string {
	switch s {
	case stripego.SubscriptionStatusActive, stripego.SubscriptionStatusTrialing:
		return entity.SubscriptionStatusActive
	case stripego.SubscriptionStatusPastDue, stripego.SubscriptionStatusUnpaid:
		return entity.SubscriptionStatusPastDue
	case stripego.SubscriptionStatusCanceled, stripego.SubscriptionStatusIncompleteExpired:
		return entity.SubscriptionStatusCanceled
	default:
		return entity.SubscriptionStatusPending
	}
}
