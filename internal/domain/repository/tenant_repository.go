package repository

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// TenantRepository define el puerto de persistencia para organizaciones.
type TenantRepository interface {
	Create(ctx context.Context, t *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	// GetByIDs devuelve las organizaciones existentes entre ids (el orden no está garantizado).
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
	UpdatePlan(ctx context.Context, id, planID string) error
}

// TenantUserRepository membresías usuario-organización (tabla tenant_users).
type TenantUserRepository interface {
	Add(ctx context.Context, m *entity.TenantUser) error
	Get(ctx context.Context, tenantID, userID string) (*entity.TenantUser, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.TenantUser, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.TenantUser, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
	UpdateRole(ctx context.Context, tenantID, userID, role string) error
	// SetDefault marca tenantID como organización por defecto del usuario y desmarca las demás.
	SetDefault(ctx context.Context, userID, tenantID string) error
	Remove(ctx context.Context, tenantID, userID string) error
}

// PlanLimitRepository lectura de topes por plan (tabla plan_limits).
type PlanLimitRepository interface {
	Get(ctx context.Context, planID string) (*entity.PlanLimit, error)
}

// SubscriptionRepository suscripciones de organizaciones (tabla subscriptions).
type SubscriptionRepository interface {
	GetByTenant(ctx context.Context, tenantID string) (*entity.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*entity.Subscription, error)
	// Upsert inserta o actualiza por tenant_id (una suscripción por organización).
	Upsert(ctx context.Context, s *entity.Subscription) error
}
