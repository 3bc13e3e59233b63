package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// UseCase checkout de planes pagos y sincronización de suscripciones vía webhook.
type UseCase struct {
	repos    repository.Repositories
	txRunner TxRunner
	members  MembershipChecker
	gateway  PaymentGateway
	priceIDs map[string]string
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. priceIDs mapea plan → price id del proveedor.
func NewUseCase(
	repos repository.Repositories,
	txRunner TxRunner,
	members MembershipChecker,
	gateway PaymentGateway,
	priceIDs map[string]string,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		repos:    repos,
		txRunner: txRunner,
		members:  members,
		gateway:  gateway,
		priceIDs: priceIDs,
		log:      log.Component("billing"),
		now:      time.Now,
	}
}

// CreateCheckout abre una sesión de pago para cambiar la organización al plan pedido.
// Solo un admin de la organización puede hacerlo. El cliente del proveedor se crea una sola
// vez por organización y queda guardado en su suscripción.
func (uc *UseCase) CreateCheckout(ctx context.Context, userID string, in dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	role, err := uc.members.RoleIn(ctx, in.TenantID, userID)
	if err != nil {
		return nil, err
	}
	if role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: solo un admin puede cambiar el plan", domain.ErrForbidden)
	}
	priceID := uc.priceIDs[in.PlanID]
	if priceID == "" {
		return nil, fmt.Errorf("%w: el plan %q no tiene precio configurado", domain.ErrInvalidInput, in.PlanID)
	}
	tenant, err := uc.repos.Tenants.GetByID(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}

	sub, err := uc.repos.Subscriptions.GetByTenant(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	customerID := ""
	if sub != nil {
		customerID = sub.StripeCustomerID
	}
	if customerID == "" {
		user, err := uc.repos.AuthUsers.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, domain.ErrUserNotFound
		}
		customerID, err = uc.gateway.CreateCustomer(ctx, CustomerInput{TenantID: tenant.ID, Email: user.Email, Name: tenant.Name})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
		}
		now := uc.now()
		if sub == nil {
			sub = &entity.Subscription{
				ID:        uuid.NewString(),
				TenantID:  tenant.ID,
				PlanID:    tenant.PlanID,
				Status:    entity.SubscriptionStatusActive,
				CreatedAt: now,
			}
		}
		sub.StripeCustomerID = customerID
		sub.UpdatedAt = now
		if err := uc.repos.Subscriptions.Upsert(ctx, sub); err != nil {
			return nil, err
		}
	}

	url, err := uc.gateway.CreateCheckoutSession(ctx, CheckoutInput{
		CustomerID: customerID,
		PriceID:    priceID,
		TenantID:   tenant.ID,
		PlanID:     in.PlanID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
	}
	uc.log.Info().Str("tenant_id", tenant.ID).Str("plan_id", in.PlanID).Msg("checkout creado")
	return &dto.CheckoutResponse{URL: url}, nil
}

// HandleWebhook verifica el evento y actualiza suscripción y plan de la organización.
// Los tipos no procesados, y los que no tienen registro local, se acusan con Handled=false
// para que el proveedor no los reintente.
func (uc *UseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error) {
	ev, err := uc.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: firma de webhook inválida: %v", domain.ErrInvalidInput, err)
	}
	log := uc.log.Zerolog().With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	out := &dto.WebhookResponse{Received: true, EventType: ev.Type}
	switch ev.Type {
	case EventCheckoutCompleted:
		err = uc.checkoutCompleted(ctx, ev)
	case EventSubscriptionDeleted:
		err = uc.subscriptionChanged(ctx, ev, entity.SubscriptionStatusCanceled, entity.PlanFree)
	case EventSubscriptionUpdated:
		err = uc.subscriptionChanged(ctx, ev, ev.Status, "")
	default:
		log.Debug().Msg("evento ignorado")
		return out, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Msg("webhook sin registro local")
		return out, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("error procesando webhook")
		return nil, err
	}
	out.Handled = true
	log.Info().Str("tenant_id", ev.TenantID).Msg("webhook procesado")
	return out, nil
}

func (uc *UseCase) checkoutCompleted(ctx context.Context, ev *WebhookEvent) error {
	if ev.TenantID == "" || ev.PlanID == "" {
		return fmt.Errorf("%w: checkout sin organización o plan", domain.ErrInvalidInput)
	}
	now := uc.now()
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		tenant, err := repos.Tenants.GetByID(ctx, ev.TenantID)
		if err != nil {
			return err
		}
		if tenant == nil {
			return fmt.Errorf("%w: organización %s", domain.ErrNotFound, ev.TenantID)
		}
		// plan_id viene de la metadata de la sesión; solo se aceptan planes con fila en plan_limits.
		limits, err := repos.PlanLimits.Get(ctx, ev.PlanID)
		if err != nil {
			return err
		}
		if limits == nil {
			return fmt.Errorf("%w: plan %s", domain.ErrNotFound, ev.PlanID)
		}
		sub, err := repos.Subscriptions.GetByTenant(ctx, ev.TenantID)
		if err != nil {
			return err
		}
		if sub == nil {
			sub = &entity.Subscription{ID: uuid.NewString(), TenantID: ev.TenantID, CreatedAt: now}
		}
		sub.PlanID = ev.PlanID
		sub.Status = entity.SubscriptionStatusActive
		if ev.CustomerID != "" {
			sub.StripeCustomerID = ev.CustomerID
		}
		sub.StripeSubscriptionID = ev.SubscriptionID
		sub.CurrentPeriodEnd = ev.CurrentPeriodEnd
		sub.UpdatedAt = now
		if err := repos.Subscriptions.Upsert(ctx, sub); err != nil {
			return err
		}
		return repos.Tenants.UpdatePlan(ctx, ev.TenantID, ev.PlanID)
	})
}

// subscriptionChanged aplica el nuevo estado; plan vacío conserva el plan actual.
func (uc *UseCase) subscriptionChanged(ctx context.Context, ev *WebhookEvent, status, plan string) error {
	if ev.SubscriptionID == "" {
		return fmt.Errorf("%w: evento sin suscripción", domain.ErrInvalidInput)
	}
	now := uc.now()
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		sub, err := repos.Subscriptions.GetByStripeSubscriptionID(ctx, ev.SubscriptionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return fmt.Errorf("%w: suscripción %s", domain.ErrNotFound, ev.SubscriptionID)
		}
		ev.TenantID = sub.TenantID
		if status != "" {
			sub.Status = status
		}
		if plan != "" {
			sub.PlanID = plan
		}
		if ev.CurrentPeriodEnd != nil {
			sub.CurrentPeriodEnd = ev.CurrentPeriodEnd
		}
		sub.UpdatedAt = now
		if err := repos.Subscriptions.Upsert(ctx, sub); err != nil {
			return err
		}
		if plan == "" {
			return nil
		}
		return repos.Tenants.UpdatePlan(ctx, sub.TenantID, plan)
	})
}
