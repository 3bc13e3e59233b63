package tenancy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/apptest"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

func TestCheckLimit(t *testing.T) {
	store := apptest.NewStore()
	store.SeedTenant(entity.Tenant{ID: "t1", PlanID: entity.PlanFree})
	store.SeedTenant(entity.Tenant{ID: "t2", PlanID: entity.PlanEnterprise})
	store.SeedPlanLimit(entity.PlanLimit{PlanID: entity.PlanFree, MaxProducts: 2, MaxUsers: 2, MaxWarehouses: 1, MaxSalesPerMonth: 1})
	store.SeedPlanLimit(entity.PlanLimit{PlanID: entity.PlanEnterprise})
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: "t1"})
	store.SeedWarehouse(entity.Warehouse{ID: "w2", TenantID: "t2"})
	store.SeedWarehouse(entity.Warehouse{ID: "w3", TenantID: "t2"})
	store.SeedProduct(entity.Product{ID: "p1", TenantID: "t1"})
	store.SeedSale(entity.Sale{ID: "old", TenantID: "t1", Status: entity.SaleStatusCompleted, CreatedAt: time.Now().AddDate(0, -2, 0)})

	svc := tenancy.NewLimitService(store.Repos())
	ctx := context.Background()

	assert.NoError(t, svc.CheckLimit(ctx, "t1", entity.ResourceProducts))
	assert.ErrorIs(t, svc.CheckLimit(ctx, "t1", entity.ResourceWarehouses), domain.ErrPlanLimitReached)
	assert.NoError(t, svc.CheckLimit(ctx, "t2", entity.ResourceWarehouses), "enterprise es ilimitado")
	assert.NoError(t, svc.CheckLimit(ctx, "t1", entity.ResourceSalesMonth), "solo cuentan las ventas del mes")

	store.SeedSale(entity.Sale{ID: "new", TenantID: "t1", Status: entity.SaleStatusCompleted, CreatedAt: time.Now()})
	assert.ErrorIs(t, svc.CheckLimit(ctx, "t1", entity.ResourceSalesMonth), domain.ErrPlanLimitReached)

	assert.ErrorIs(t, svc.CheckLimit(ctx, "t1", "llamadas"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.CheckLimit(ctx, "nope", entity.ResourceProducts), domain.ErrNotFound)
}

func TestCheckLimit_PlanSinFila(t *testing.T) {
	store := apptest.NewStore()
	store.SeedTenant(entity.Tenant{ID: "t1", PlanID: "custom"})
	require.NoError(t, tenancy.NewLimitService(store.Repos()).CheckLimit(context.Background(), "t1", entity.ResourceUsers))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Tienda Ñandú #1":    "tienda-nandu-1",
		"  Café   Central ":  "cafe-central",
		"ALMACÉN--NORTE!!":   "almacen-norte",
		"***":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, tenancy.Slugify(in), in)
	}
}
