package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/apptest"
	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/usecase"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

const tenantID = "t1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type mockLimits struct{ mock.Mock }

func (m *mockLimits) CheckLimit(ctx context.Context, tenantID, resource string) error {
	return m.Called(ctx, tenantID, resource).Error(0)
}

func strPtr(s string) *string { return &s }

func TestProductCreate(t *testing.T) {
	store := apptest.NewStore()
	limits := &mockLimits{}
	limits.On("CheckLimit", mock.Anything, tenantID, entity.ResourceProducts).Return(nil)
	uc := usecase.NewProductUseCase(store.Repos(), store, limits, nil)
	ctx := context.Background()

	out, err := uc.Create(ctx, tenantID, dto.CreateProductRequest{SKU: " CAF-1 ", Name: "Café", Price: dec("12"), Cost: dec("7")})
	require.NoError(t, err)
	assert.Equal(t, "CAF-1", out.SKU)
	assert.True(t, out.Active)

	_, err = uc.Create(ctx, tenantID, dto.CreateProductRequest{SKU: "CAF-1", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, tenantID, dto.CreateProductRequest{SKU: "X", Name: "X", CategoryID: strPtr("no-existe")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Create(ctx, tenantID, dto.CreateProductRequest{SKU: "Y", Name: "Y", Price: dec("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	limits.AssertNumberOfCalls(t, "CheckLimit", 3)
}

func TestProductCreate_TopeDelPlan(t *testing.T) {
	store := apptest.NewStore()
	limits := &mockLimits{}
	limits.On("CheckLimit", mock.Anything, tenantID, entity.ResourceProducts).Return(domain.ErrPlanLimitReached)
	uc := usecase.NewProductUseCase(store.Repos(), store, limits, nil)

	_, err := uc.Create(context.Background(), tenantID, dto.CreateProductRequest{SKU: "A", Name: "A"})
	assert.ErrorIs(t, err, domain.ErrPlanLimitReached)
}

func TestProductUpdate_FijaStockConAjustes(t *testing.T) {
	store := apptest.NewStore()
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "A", Name: "A", Price: dec("10"), Cost: dec("4"), Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: tenantID, Name: "Centro", Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: "w2", TenantID: tenantID, Name: "Norte", Active: true})
	store.SeedStock(tenantID, "w1", "p1", dec("5"))
	uc := usecase.NewProductUseCase(store.Repos(), store, nil, nil)

	price := dec("11")
	out, err := uc.Update(context.Background(), tenantID, "u1", "p1", dto.UpdateProductRequest{
		Name:  strPtr("A+"),
		Price: &price,
		Stock: []dto.StockSetting{
			{WarehouseID: "w1", Quantity: dec("2")},
			{WarehouseID: "w2", Quantity: dec("7")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "A+", out.Name)
	assert.True(t, dec("11").Equal(out.Price))
	assert.True(t, dec("2").Equal(store.Stock(tenantID, "w1", "p1")))
	assert.True(t, dec("7").Equal(store.Stock(tenantID, "w2", "p1")))

	movs := store.Movements()
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementAjuste, m.Type)
		assert.Equal(t, "u1", m.CreatedBy)
	}
}

func TestProductUpdate_AjustaAlmacenesEnOrden(t *testing.T) {
	store := apptest.NewStore()
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "A", Name: "A", Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: tenantID, Name: "Centro", Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: "w2", TenantID: tenantID, Name: "Norte", Active: true})
	uc := usecase.NewProductUseCase(store.Repos(), store, nil, nil)

	_, err := uc.Update(context.Background(), tenantID, "u1", "p1", dto.UpdateProductRequest{
		Stock: []dto.StockSetting{
			{WarehouseID: "w2", Quantity: dec("1")},
			{WarehouseID: "w1", Quantity: dec("2")},
		},
	})
	require.NoError(t, err)
	movs := store.Movements()
	require.Len(t, movs, 2)
	assert.Equal(t, "w1", movs[0].WarehouseID)
	assert.Equal(t, "w2", movs[1].WarehouseID)
}

// costChangingProducts confirma un nuevo costo justo después de la lectura previa a la transacción.
type costChangingProducts struct {
	repository.ProductRepository
	afterRead func()
}

func (r *costChangingProducts) GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	p, err := r.ProductRepository.GetByID(ctx, tenantID, id)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return p, err
}

func TestProductUpdate_ConservaCostoConfirmado(t *testing.T) {
	store := apptest.NewStore()
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "A", Name: "A", Cost: dec("4"), Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: tenantID, Name: "Centro", Active: true})

	repos := store.Repos()
	repos.Products = &costChangingProducts{
		ProductRepository: repos.Products,
		afterRead: func() {
			require.NoError(t, store.Run(context.Background(), func(tx repository.Repositories) error {
				return tx.Products.UpdateCost(context.Background(), tenantID, "p1", dec("9"))
			}))
		},
	}
	uc := usecase.NewProductUseCase(repos, store, nil, nil)

	out, err := uc.Update(context.Background(), tenantID, "u1", "p1", dto.UpdateProductRequest{
		Name:  strPtr("A+"),
		Stock: []dto.StockSetting{{WarehouseID: "w1", Quantity: dec("3")}},
	})
	require.NoError(t, err)
	assert.True(t, dec("9").Equal(out.Cost), "got %s", out.Cost)
	p, _ := store.Product("p1")
	assert.True(t, dec("9").Equal(p.Cost))
	assert.Equal(t, "A+", p.Name)
	movs := store.Movements()
	require.Len(t, movs, 1)
	assert.True(t, dec("9").Equal(movs[0].UnitCost))
}

func TestProductUpdate_RevierteSiFallaElAjuste(t *testing.T) {
	store := apptest.NewStore()
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "A", Name: "A", Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: tenantID, Name: "Centro", Active: true})
	store.FailOn["Movements.Create"] = domain.ErrUnavailable
	uc := usecase.NewProductUseCase(store.Repos(), store, nil, nil)

	_, err := uc.Update(context.Background(), tenantID, "u1", "p1", dto.UpdateProductRequest{
		Name:  strPtr("Cambiado"),
		Stock: []dto.StockSetting{{WarehouseID: "w1", Quantity: dec("3")}},
	})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	p, _ := store.Product("p1")
	assert.Equal(t, "A", p.Name)
	assert.True(t, store.Stock(tenantID, "w1", "p1").IsZero())
}

func TestProductUpdate_Validaciones(t *testing.T) {
	store := apptest.NewStore()
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "A", Name: "A", Active: true})
	store.SeedProduct(entity.Product{ID: "p2", TenantID: tenantID, SKU: "B", Name: "B", Active: true})
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: tenantID, Name: "Centro", Active: true})
	uc := usecase.NewProductUseCase(store.Repos(), store, nil, nil)
	ctx := context.Background()

	_, err := uc.Update(ctx, tenantID, "u1", "p1", dto.UpdateProductRequest{SKU: strPtr("B")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Update(ctx, tenantID, "u1", "p1", dto.UpdateProductRequest{Stock: []dto.StockSetting{{WarehouseID: "w1", Quantity: dec("-1")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, tenantID, "u1", "p1", dto.UpdateProductRequest{Stock: []dto.StockSetting{{WarehouseID: "w-otro", Quantity: dec("1")}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Update(ctx, "t-otra", "u1", "p1", dto.UpdateProductRequest{Name: strPtr("X")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductDelete(t *testing.T) {
	store := apptest.NewStore()
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "A", Name: "A", Active: true})
	store.SeedProduct(entity.Product{ID: "p2", TenantID: tenantID, SKU: "B", Name: "B", Active: true})
	store.SeedSale(entity.Sale{ID: "s1", TenantID: tenantID, Number: "V-000001", Status: entity.SaleStatusCompleted},
		entity.SaleDetail{ID: "d1", SaleID: "s1", ProductID: "p1", Quantity: dec("1")})
	uc := usecase.NewProductUseCase(store.Repos(), store, nil, nil)
	ctx := context.Background()

	res, err := uc.Delete(ctx, tenantID, "p1")
	require.NoError(t, err)
	assert.True(t, res.Deactivated)
	p, ok := store.Product("p1")
	require.True(t, ok)
	assert.False(t, p.Active)

	res, err = uc.Delete(ctx, tenantID, "p2")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	_, ok = store.Product("p2")
	assert.False(t, ok)
}

func TestProductList(t *testing.T) {
	store := apptest.NewStore()
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "CAF", Name: "Café", Active: true})
	store.SeedProduct(entity.Product{ID: "p2", TenantID: tenantID, SKU: "TE", Name: "Té", Active: true})
	store.SeedProduct(entity.Product{ID: "p3", TenantID: "t2", SKU: "CAF", Name: "Café ajeno", Active: true})
	uc := usecase.NewProductUseCase(store.Repos(), store, nil, nil)

	out, err := uc.List(context.Background(), tenantID, dto.ProductFilterRequest{Search: "caf"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p1", out.Items[0].ID)
	assert.Equal(t, 20, out.Page.Limit)
}

func TestCategoryDelete_EnUso(t *testing.T) {
	store := apptest.NewStore()
	uc := usecase.NewCategoryUseCase(store.Repos().Categories)
	ctx := context.Background()

	c, err := uc.Create(ctx, tenantID, dto.CategoryRequest{Name: " Bebidas "})
	require.NoError(t, err)
	assert.Equal(t, "Bebidas", c.Name)
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "A", Name: "A", CategoryID: &c.ID, Active: true})

	assert.ErrorIs(t, uc.Delete(ctx, tenantID, c.ID), domain.ErrReferenceInUse)

	_, err = uc.Update(ctx, tenantID, "no-existe", dto.CategoryRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWarehouseCreate_PrincipalUnico(t *testing.T) {
	store := apptest.NewStore()
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: tenantID, Name: "Centro", IsMain: true, Active: true})
	limits := &mockLimits{}
	limits.On("CheckLimit", mock.Anything, tenantID, entity.ResourceWarehouses).Return(nil)
	uc := usecase.NewWarehouseUseCase(store.Repos().Warehouses, store, limits)
	ctx := context.Background()

	out, err := uc.Create(ctx, tenantID, dto.WarehouseRequest{Name: "Norte", IsMain: true})
	require.NoError(t, err)
	assert.True(t, out.IsMain)
	assert.True(t, out.Active)

	list, err := uc.List(ctx, tenantID, false)
	require.NoError(t, err)
	mains := 0
	for _, w := range list {
		if w.IsMain {
			mains++
			assert.Equal(t, out.ID, w.ID)
		}
	}
	assert.Equal(t, 1, mains)
	limits.AssertExpectations(t)
}

func TestWarehouseDelete_ConVentas(t *testing.T) {
	store := apptest.NewStore()
	store.SeedWarehouse(entity.Warehouse{ID: "w1", TenantID: tenantID, Name: "Centro", Active: true})
	store.SeedSale(entity.Sale{ID: "s1", TenantID: tenantID, WarehouseID: "w1", Number: "V-000001", Status: entity.SaleStatusCompleted})
	uc := usecase.NewWarehouseUseCase(store.Repos().Warehouses, store, nil)

	assert.ErrorIs(t, uc.Delete(context.Background(), tenantID, "w1"), domain.ErrReferenceInUse)
	assert.ErrorIs(t, uc.Delete(context.Background(), tenantID, "w-x"), domain.ErrNotFound)
}

func TestUserAdmin(t *testing.T) {
	store := apptest.NewStore()
	store.SeedTenant(entity.Tenant{ID: tenantID, Name: "Uno", PlanID: entity.PlanFree})
	store.SeedAuthUser(entity.AuthUser{ID: "admin", Email: "admin@t.co", Status: entity.UserStatusActive})
	store.SeedMember(entity.TenantUser{TenantID: tenantID, UserID: "admin", Role: entity.RoleAdmin, IsDefault: true})
	store.SeedRole(entity.UserRole{ID: "r0", TenantID: tenantID, UserID: "admin", Role: entity.RoleAdmin})
	limits := &mockLimits{}
	limits.On("CheckLimit", mock.Anything, tenantID, entity.ResourceUsers).Return(nil)
	uc := usecase.NewUserUseCase(store.Repos(), store, limits)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, tenantID, dto.CreateUserRequest{Email: "Caja@T.co", Password: "clave-segura", FullName: "Caja", Role: entity.RoleVendedor})
	require.NoError(t, err)
	assert.Equal(t, "caja@t.co", created.Email)
	role, ok := store.Role(tenantID, created.UserID)
	require.True(t, ok)
	assert.Equal(t, entity.RoleVendedor, role.Role)

	_, err = uc.CreateUser(ctx, tenantID, dto.CreateUserRequest{Email: "caja@t.co", Password: "clave-segura", FullName: "Caja", Role: entity.RoleVendedor})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, uc.UpdateRole(ctx, tenantID, "admin", created.UserID, entity.RoleBodeguero))
	role, _ = store.Role(tenantID, created.UserID)
	assert.Equal(t, entity.RoleBodeguero, role.Role)
	m, err := store.Repos().TenantUsers.Get(ctx, tenantID, created.UserID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleBodeguero, m.Role)

	assert.ErrorIs(t, uc.UpdateRole(ctx, tenantID, "admin", "admin", entity.RoleVendedor), domain.ErrConflict)
	assert.ErrorIs(t, uc.RemoveUser(ctx, tenantID, "admin", "admin"), domain.ErrConflict)

	users, err := uc.ListUsers(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, uc.RemoveUser(ctx, tenantID, "admin", created.UserID))
	_, ok = store.Role(tenantID, created.UserID)
	assert.False(t, ok)
	assert.ErrorIs(t, uc.RemoveUser(ctx, tenantID, "admin", created.UserID), domain.ErrNotFound)
}

func TestSyncUsers(t *testing.T) {
	seed := func() *apptest.Store {
		store := apptest.NewStore()
		store.SeedAuthUser(entity.AuthUser{ID: "u1", Email: "uno@t.co"})
		store.SeedAuthUser(entity.AuthUser{ID: "u2", Email: "dos-nuevo@t.co"})
		store.SeedAuthUser(entity.AuthUser{ID: "u3", Email: "tres@t.co"})
		store.SeedMember(entity.TenantUser{TenantID: tenantID, UserID: "u1", Role: entity.RoleBodeguero})
		store.SeedMember(entity.TenantUser{TenantID: tenantID, UserID: "u2", Role: ""})
		store.SeedProfile(entity.Profile{ID: "u2", Email: "dos@t.co"})
		store.SeedRole(entity.UserRole{ID: "r2", TenantID: tenantID, UserID: "u2", Role: entity.RoleVendedor})
		// perfil con rol pero sin usuario de autenticación
		store.SeedProfile(entity.Profile{ID: "ghost", Email: "ghost@t.co"})
		store.SeedRole(entity.UserRole{ID: "rg", TenantID: tenantID, UserID: "ghost", Role: entity.RoleVendedor})
		return store
	}

	t.Run("miembros de la organización", func(t *testing.T) {
		store := seed()
		uc := usecase.NewSyncUsersUseCase(store.Repos(), nil)
		out, err := uc.SyncUsers(context.Background(), tenantID, dto.SyncUsersRequest{})
		require.NoError(t, err)
		assert.Equal(t, dto.SyncUsersResponse{
			Success: true, Processed: 2, ProfilesCreated: 1, ProfilesUpdated: 0, RolesCreated: 1, Orphaned: 1,
		}, *out)
		role, ok := store.Role(tenantID, "u1")
		require.True(t, ok)
		assert.Equal(t, entity.RoleBodeguero, role.Role)
		p, ok := store.Profile("u1")
		require.True(t, ok)
		assert.Equal(t, "uno@t.co", p.Email)
	})

	t.Run("forzar todo con actualización", func(t *testing.T) {
		store := seed()
		uc := usecase.NewSyncUsersUseCase(store.Repos(), nil)
		out, err := uc.SyncUsers(context.Background(), tenantID, dto.SyncUsersRequest{ForceSyncAll: true, ForceUpdate: true})
		require.NoError(t, err)
		assert.Equal(t, 3, out.Processed)
		assert.Equal(t, 2, out.ProfilesCreated)
		assert.Equal(t, 1, out.ProfilesUpdated)
		assert.Equal(t, 1, out.RolesCreated)
		p, _ := store.Profile("u2")
		assert.Equal(t, "dos-nuevo@t.co", p.Email)
		_, ok := store.Role(tenantID, "u3")
		assert.False(t, ok, "u3 no es miembro")
	})

	t.Run("usuario específico", func(t *testing.T) {
		store := seed()
		uc := usecase.NewSyncUsersUseCase(store.Repos(), nil)
		out, err := uc.SyncUsers(context.Background(), tenantID, dto.SyncUsersRequest{SpecificUserID: "u3"})
		require.NoError(t, err)
		assert.Equal(t, 1, out.Processed)
		assert.Equal(t, 1, out.ProfilesCreated)

		_, err = uc.SyncUsers(context.Background(), tenantID, dto.SyncUsersRequest{SpecificUserID: "nadie"})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
