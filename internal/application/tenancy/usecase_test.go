package tenancy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/apptest"
	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/retry"
)

var issuer = jwt.Issuer{Secret: "secret", Issuer: "test", ExpMinutes: 5}

type mockCache struct{ mock.Mock }

func (m *mockCache) GetCurrent(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockCache) SetCurrent(ctx context.Context, userID, tenantID string) error {
	return m.Called(ctx, userID, tenantID).Error(0)
}

func (m *mockCache) ClearCurrent(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialInterval: time.Millisecond}
}

func seed() *apptest.Store {
	store := apptest.NewStore()
	store.SeedTenant(entity.Tenant{ID: "t1", Name: "Beta", Slug: "beta", PlanID: entity.PlanFree})
	store.SeedTenant(entity.Tenant{ID: "t2", Name: "Alfa", Slug: "alfa", PlanID: entity.PlanPro})
	store.SeedMember(entity.TenantUser{TenantID: "t1", UserID: "u1", Role: entity.RoleAdmin})
	store.SeedMember(entity.TenantUser{TenantID: "t2", UserID: "u1", Role: entity.RoleVendedor, IsDefault: true})
	return store
}

func TestCreateTenant(t *testing.T) {
	store := apptest.NewStore()
	cache := &mockCache{}
	cache.On("SetCurrent", mock.Anything, "u9", mock.Anything).Return(nil)
	uc := tenancy.NewUseCase(store.Repos(), store, cache, issuer, fastRetry(), nil)

	out, err := uc.CreateTenant(context.Background(), "u9", dto.CreateTenantRequest{Name: "Tienda Ñandú"})
	require.NoError(t, err)
	assert.Equal(t, "tienda-nandu", out.Slug)
	assert.Equal(t, entity.PlanFree, out.PlanID)
	assert.Equal(t, entity.RoleAdmin, out.Role)
	assert.True(t, out.IsDefault)

	sub, ok := store.Subscription(out.ID)
	require.True(t, ok)
	assert.Equal(t, entity.PlanFree, sub.PlanID)
	role, ok := store.Role(out.ID, "u9")
	require.True(t, ok)
	assert.Equal(t, entity.RoleAdmin, role.Role)
	cache.AssertExpectations(t)

	second, err := uc.CreateTenant(context.Background(), "u9", dto.CreateTenantRequest{Name: "Tienda Ñandú"})
	require.NoError(t, err)
	assert.NotEqual(t, out.Slug, second.Slug)
	assert.False(t, second.IsDefault)
}

func TestLoadTenants_OrdenadasConRol(t *testing.T) {
	store := seed()
	uc := tenancy.NewUseCase(store.Repos(), store, nil, issuer, fastRetry(), nil)

	out, err := uc.LoadTenants(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Alfa", out[0].Name)
	assert.Equal(t, entity.RoleVendedor, out[0].Role)
	assert.True(t, out[0].IsDefault)
}

// flakyMembers falla las primeras n llamadas con el error dado.
type flakyMembers struct {
	repository.TenantUserRepository
	n     int
	err   error
	calls int
}

func (f *flakyMembers) ListByUser(ctx context.Context, userID string) ([]*entity.TenantUser, error) {
	f.calls++
	if f.calls <= f.n {
		return nil, f.err
	}
	return f.TenantUserRepository.ListByUser(ctx, userID)
}

func TestLoadTenants_ReintentaErroresTransitorios(t *testing.T) {
	store := seed()
	repos := store.Repos()
	flaky := &flakyMembers{TenantUserRepository: repos.TenantUsers, n: 2, err: domain.ErrUnavailable}
	repos.TenantUsers = flaky
	uc := tenancy.NewUseCase(repos, store, nil, issuer, fastRetry(), nil)

	out, err := uc.LoadTenants(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 3, flaky.calls)
}

func TestLoadTenants_NoReintentaErroresPermanentes(t *testing.T) {
	store := seed()
	repos := store.Repos()
	flaky := &flakyMembers{TenantUserRepository: repos.TenantUsers, n: 5, err: domain.ErrForbidden}
	repos.TenantUsers = flaky
	uc := tenancy.NewUseCase(repos, store, nil, issuer, fastRetry(), nil)

	_, err := uc.LoadTenants(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 1, flaky.calls)
}

func TestCurrentTenant(t *testing.T) {
	t.Run("desde caché", func(t *testing.T) {
		store := seed()
		cache := &mockCache{}
		cache.On("GetCurrent", mock.Anything, "u1").Return("t1", nil)
		uc := tenancy.NewUseCase(store.Repos(), store, cache, issuer, fastRetry(), nil)

		m, err := uc.CurrentTenant(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "t1", m.TenantID)
		cache.AssertNotCalled(t, "SetCurrent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("caché obsoleta cae a la por defecto", func(t *testing.T) {
		store := seed()
		cache := &mockCache{}
		cache.On("GetCurrent", mock.Anything, "u1").Return("t-borrada", nil)
		cache.On("ClearCurrent", mock.Anything, "u1").Return(nil)
		cache.On("SetCurrent", mock.Anything, "u1", "t2").Return(nil)
		uc := tenancy.NewUseCase(store.Repos(), store, cache, issuer, fastRetry(), nil)

		m, err := uc.CurrentTenant(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "t2", m.TenantID)
		cache.AssertExpectations(t)
	})

	t.Run("redis caído no bloquea", func(t *testing.T) {
		store := seed()
		cache := &mockCache{}
		cache.On("GetCurrent", mock.Anything, "u1").Return("", errors.New("dial tcp"))
		cache.On("SetCurrent", mock.Anything, "u1", "t2").Return(errors.New("dial tcp"))
		uc := tenancy.NewUseCase(store.Repos(), store, cache, issuer, fastRetry(), nil)

		m, err := uc.CurrentTenant(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "t2", m.TenantID)
	})

	t.Run("sin organizaciones", func(t *testing.T) {
		store := seed()
		uc := tenancy.NewUseCase(store.Repos(), store, nil, issuer, fastRetry(), nil)
		m, err := uc.CurrentTenant(context.Background(), "nadie")
		require.NoError(t, err)
		assert.Nil(t, m)
	})
}

func TestSwitchTenant(t *testing.T) {
	store := seed()
	store.SeedRole(entity.UserRole{ID: "r1", TenantID: "t1", UserID: "u1", Role: entity.RoleBodeguero})
	cache := &mockCache{}
	cache.On("SetCurrent", mock.Anything, "u1", "t1").Return(nil)
	uc := tenancy.NewUseCase(store.Repos(), store, cache, issuer, fastRetry(), nil)

	out, err := uc.SwitchTenant(context.Background(), "u1", "t1")
	require.NoError(t, err)
	userID, tenantID, role, err := jwt.Parse("secret", out.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "t1", tenantID)
	assert.Equal(t, entity.RoleBodeguero, role, "user_roles tiene prioridad sobre la membresía")

	_, err = uc.SwitchTenant(context.Background(), "u1", "t-ajena")
	assert.ErrorIs(t, err, domain.ErrNotTenantMember)
}

func TestGetSubscription(t *testing.T) {
	store := seed()
	store.SeedPlanLimit(entity.PlanLimit{PlanID: entity.PlanPro, MaxProducts: 5000, MaxUsers: 20, MaxWarehouses: 10, MaxSalesPerMonth: 30000})
	uc := tenancy.NewUseCase(store.Repos(), store, nil, issuer, fastRetry(), nil)

	out, err := uc.GetSubscription(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, entity.PlanPro, out.PlanID)
	assert.Equal(t, 5000, out.Limits.MaxProducts)
}
