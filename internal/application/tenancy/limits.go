package tenancy

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// LimitService compara el uso actual de la organización contra plan_limits.
type LimitService struct {
	repos repository.Repositories
	now   func() time.Time
}

// NewLimitService construye el servicio sobre los repositorios del pool.
func NewLimitService(repos repository.Repositories) *LimitService {
	return &LimitService{repos: repos, now: time.Now}
}

// CheckLimit devuelve ErrPlanLimitReached si crear un registro más del recurso excede el plan.
// Sin fila en plan_limits o con tope <= 0 el recurso es ilimitado.
func (s *LimitService) CheckLimit(ctx context.Context, tenantID, resource string) error {
	tenant, err := s.repos.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.ErrNotFound
	}
	limits, err := s.repos.PlanLimits.Get(ctx, tenant.PlanID)
	if err != nil {
		return err
	}
	if limits == nil || limits.Limit(resource) <= 0 {
		return nil
	}

	current, err := s.count(ctx, tenantID, resource)
	if err != nil {
		return err
	}
	if !limits.Allows(resource, current) {
		return fmt.Errorf("%w: %s (%d/%d, plan %s)", domain.ErrPlanLimitReached, resource, current, limits.Limit(resource), tenant.PlanID)
	}
	return nil
}

func (s *LimitService) count(ctx context.Context, tenantID, resource string) (int, error) {
	switch resource {
	case entity.ResourceProducts:
		return s.repos.Products.Count(ctx, tenantID)
	case entity.ResourceUsers:
		return s.repos.TenantUsers.CountByTenant(ctx, tenantID)
	case entity.ResourceWarehouses:
		return s.repos.Warehouses.Count(ctx, tenantID)
	case entity.ResourceSalesMonth:
		return s.repos.Sales.CountSince(ctx, tenantID, monthStart(s.now()))
	}
	return 0, fmt.Errorf("%w: recurso %q", domain.ErrInvalidInput, resource)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
