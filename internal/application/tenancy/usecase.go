// Package tenancy organizaciones, membresías, organización activa y topes de plan.
package tenancy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/logger"
	"github.com/jhoicas/Tienda-api/pkg/retry"
)

// UseCase casos de uso de organizaciones.
type UseCase struct {
	repos    repository.Repositories
	txRunner TxRunner
	cache    TenantCache
	issuer   jwt.Issuer
	retryCfg retry.Config
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso. cache puede ser nil (se resuelve siempre desde la BD).
func NewUseCase(repos repository.Repositories, txRunner TxRunner, cache TenantCache, issuer jwt.Issuer, retryCfg retry.Config, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("tenancy")
	if retryCfg.OnRetry == nil {
		retryCfg.OnRetry = func(err error, wait time.Duration) {
			log.Warn().Err(err).Dur("wait", wait).Msg("reintentando carga de organizaciones")
		}
	}
	return &UseCase{
		repos:    repos,
		txRunner: txRunner,
		cache:    cache,
		issuer:   issuer,
		retryCfg: retryCfg,
		log:      log,
		now:      time.Now,
	}
}

// CreateTenant crea la organización en plan free, agrega al creador como admin (por defecto si es
// su primera organización) y registra la suscripción free, todo en una transacción.
func (uc *UseCase) CreateTenant(ctx context.Context, userID string, in dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	slug := Slugify(in.Name)
	if slug == "" {
		return nil, fmt.Errorf("%w: nombre de organización", domain.ErrInvalidInput)
	}
	existing, err := uc.repos.Tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slug = slug + "-" + uuid.NewString()[:6]
	}

	now := uc.now()
	tenant := &entity.Tenant{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Slug:      slug,
		Status:    entity.TenantStatusActive,
		PlanID:    entity.PlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
	member := &entity.TenantUser{TenantID: tenant.ID, UserID: userID, Role: entity.RoleAdmin, CreatedAt: now}

	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		current, err := repos.TenantUsers.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		member.IsDefault = len(current) == 0
		if err := repos.Tenants.Create(ctx, tenant); err != nil {
			return err
		}
		if err := repos.TenantUsers.Add(ctx, member); err != nil {
			return err
		}
		if err := repos.UserRoles.Create(ctx, &entity.UserRole{
			ID: uuid.NewString(), UserID: userID, TenantID: tenant.ID, Role: entity.RoleAdmin, CreatedAt: now,
		}); err != nil {
			return err
		}
		return repos.Subscriptions.Upsert(ctx, &entity.Subscription{
			ID:        uuid.NewString(),
			TenantID:  tenant.ID,
			PlanID:    entity.PlanFree,
			Status:    entity.SubscriptionStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if member.IsDefault {
		uc.setCached(ctx, userID, tenant.ID)
	}
	uc.log.Info().Str("tenant_id", tenant.ID).Str("user_id", userID).Msg("organización creada")
	out := toTenantResponse(tenant, member)
	return &out, nil
}

// LoadTenants membresías del usuario y luego el detalle de cada organización.
// Toda la carga se reintenta con backoff exponencial ante errores transitorios.
func (uc *UseCase) LoadTenants(ctx context.Context, userID string) ([]dto.TenantResponse, error) {
	return retry.DoValue(ctx, uc.retryCfg, func(ctx context.Context) ([]dto.TenantResponse, error) {
		memberships, err := uc.repos.TenantUsers.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(memberships) == 0 {
			return []dto.TenantResponse{}, nil
		}
		ids := make([]string, len(memberships))
		byTenant := make(map[string]*entity.TenantUser, len(memberships))
		for i, m := range memberships {
			ids[i] = m.TenantID
			byTenant[m.TenantID] = m
		}
		tenants, err := uc.repos.Tenants.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make([]dto.TenantResponse, 0, len(tenants))
		for _, t := range tenants {
			out = append(out, toTenantResponse(t, byTenant[t.ID]))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	})
}

// CurrentTenant organización activa: la guardada en caché si sigue siendo miembro, si no la
// membresía por defecto y si no la primera. nil si el usuario no pertenece a ninguna.
func (uc *UseCase) CurrentTenant(ctx context.Context, userID string) (*entity.TenantUser, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetCurrent(ctx, userID)
		if err != nil {
			uc.log.Warn().Err(err).Str("user_id", userID).Msg("caché de organización no disponible")
		}
		if cached != "" {
			m, err := uc.repos.TenantUsers.Get(ctx, cached, userID)
			if err != nil {
				return nil, err
			}
			if m != nil {
				return m, nil
			}
			_ = uc.cache.ClearCurrent(ctx, userID)
		}
	}

	memberships, err := uc.repos.TenantUsers.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	current := memberships[0]
	for _, m := range memberships {
		if m.IsDefault {
			current = m
			break
		}
	}
	uc.setCached(ctx, userID, current.TenantID)
	return current, nil
}

// CurrentTenantResponse igual que CurrentTenant pero con el detalle de la organización.
func (uc *UseCase) CurrentTenantResponse(ctx context.Context, userID string) (*dto.TenantResponse, error) {
	m, err := uc.CurrentTenant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotTenantMember
	}
	t, err := uc.repos.Tenants.GetByID(ctx, m.TenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	out := toTenantResponse(t, m)
	return &out, nil
}

// RoleIn rol del usuario en la organización: user_roles primero, luego la membresía.
// Devuelve ErrNotTenantMember si no pertenece.
func (uc *UseCase) RoleIn(ctx context.Context, tenantID, userID string) (string, error) {
	m, err := uc.repos.TenantUsers.Get(ctx, tenantID, userID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", domain.ErrNotTenantMember
	}
	ur, err := uc.repos.UserRoles.Get(ctx, tenantID, userID)
	if err != nil {
		return "", err
	}
	if ur != nil && ur.Role != "" {
		return ur.Role, nil
	}
	return m.Role, nil
}

// SwitchTenant cambia la organización activa: verifica membresía, actualiza caché y
// organización por defecto, y emite un token nuevo con el rol en esa organización.
func (uc *UseCase) SwitchTenant(ctx context.Context, userID, tenantID string) (*dto.SwitchTenantResponse, error) {
	role, err := uc.RoleIn(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	tenant, err := uc.repos.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	if err := uc.repos.TenantUsers.SetDefault(ctx, userID, tenantID); err != nil {
		return nil, err
	}
	uc.setCached(ctx, userID, tenantID)

	token, err := uc.issuer.Issue(userID, tenantID, role)
	if err != nil {
		return nil, err
	}
	resp := toTenantResponse(tenant, &entity.TenantUser{TenantID: tenantID, UserID: userID, Role: role, IsDefault: true})
	return &dto.SwitchTenantResponse{Token: token, Tenant: resp}, nil
}

// GetSubscription suscripción de la organización con los topes de su plan.
func (uc *UseCase) GetSubscription(ctx context.Context, tenantID string) (*dto.SubscriptionResponse, error) {
	tenant, err := uc.repos.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	out := &dto.SubscriptionResponse{TenantID: tenantID, PlanID: tenant.PlanID, Status: entity.SubscriptionStatusActive}
	sub, err := uc.repos.Subscriptions.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		out.Status = sub.Status
		out.CurrentPeriodEnd = sub.CurrentPeriodEnd
	}
	limits, err := uc.repos.PlanLimits.Get(ctx, tenant.PlanID)
	if err != nil {
		return nil, err
	}
	if limits != nil {
		out.Limits = dto.PlanLimits{
			MaxProducts:      limits.MaxProducts,
			MaxUsers:         limits.MaxUsers,
			MaxWarehouses:    limits.MaxWarehouses,
			MaxSalesPerMonth: limits.MaxSalesPerMonth,
		}
	}
	return out, nil
}

// setCached la caché es best effort: un Redis caído no impide operar.
func (uc *UseCase) setCached(ctx context.Context, userID, tenantID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.SetCurrent(ctx, userID, tenantID); err != nil {
		uc.log.Warn().Err(err).Str("user_id", userID).Msg("no se pudo guardar la organización activa")
	}
}

func toTenantResponse(t *entity.Tenant, m *entity.TenantUser) dto.TenantResponse {
	out := dto.TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Status:    t.Status,
		PlanID:    t.PlanID,
		CreatedAt: t.CreatedAt,
	}
	if m != nil {
		out.Role = m.Role
		out.IsDefault = m.IsDefault
	}
	return out
}
