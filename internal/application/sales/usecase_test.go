package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/apptest"
	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/event"
)

const (
	tenantID = "t1"
	userID   = "u1"
	whID     = "w1"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev event.SaleEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type mockLimits struct{ mock.Mock }

func (m *mockLimits) CheckLimit(ctx context.Context, tenantID, resource string) error {
	return m.Called(ctx, tenantID, resource).Error(0)
}

type fixture struct {
	store     *apptest.Store
	publisher *mockPublisher
	limits    *mockLimits
	uc        *sales.SaleUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := apptest.NewStore()
	store.SeedWarehouse(entity.Warehouse{ID: whID, TenantID: tenantID, Name: "Principal", Active: true})
	store.SeedProduct(entity.Product{ID: "p1", TenantID: tenantID, SKU: "CAF", Name: "Café", Price: dec("10"), Cost: dec("6"), Active: true})
	store.SeedProduct(entity.Product{ID: "p2", TenantID: tenantID, SKU: "TE", Name: "Té", Price: dec("5"), Cost: dec("2"), Active: true})
	store.SeedProduct(entity.Product{ID: "p3", TenantID: tenantID, SKU: "OLD", Name: "Viejo", Price: dec("1"), Active: false})
	store.SeedStock(tenantID, whID, "p1", dec("10"))
	store.SeedStock(tenantID, whID, "p2", dec("1"))

	f := &fixture{store: store, publisher: &mockPublisher{}, limits: &mockLimits{}}
	repos := store.Repos()
	f.uc = sales.NewSaleUseCase(store, repos.Products, repos.Warehouses, repos.Sales, sales.Deps{
		Limits:    f.limits,
		Publisher: f.publisher,
	})
	return f
}

func TestCreateSale_OK(t *testing.T) {
	f := newFixture(t)
	f.limits.On("CheckLimit", mock.Anything, tenantID, entity.ResourceSalesMonth).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(ev event.SaleEvent) bool {
		return ev.EventType == event.SaleCreated && ev.TenantID == tenantID && len(ev.Items) == 2
	})).Return(nil).Once()

	out, err := f.uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
		WarehouseID:   whID,
		PaymentMethod: entity.PaymentCash,
		Items: []dto.SaleItemRequest{
			{ProductID: "p1", Quantity: dec("2")},
			{ProductID: "p2", Quantity: dec("1"), UnitPrice: decPtr("4")},
		},
		TaxRate:    dec("10"),
		AmountPaid: decPtr("30"),
	})
	require.NoError(t, err)

	assert.Equal(t, "V-000001", out.Number)
	assert.True(t, dec("24").Equal(out.Subtotal))
	assert.True(t, dec("2.4").Equal(out.Tax))
	assert.True(t, dec("26.4").Equal(out.Total))
	assert.True(t, dec("3.6").Equal(out.Change))
	assert.Len(t, out.Items, 2)

	assert.True(t, dec("8").Equal(f.store.Stock(tenantID, whID, "p1")))
	assert.True(t, dec("0").Equal(f.store.Stock(tenantID, whID, "p2")))
	movs := f.store.Movements()
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementVenta, m.Type)
		assert.Equal(t, "V-000001", m.Reference)
	}
	f.publisher.AssertExpectations(t)
}

func TestCreateSale_StockInsuficienteNoDejaVentaParcial(t *testing.T) {
	f := newFixture(t)
	f.limits.On("CheckLimit", mock.Anything, tenantID, entity.ResourceSalesMonth).Return(nil)

	_, err := f.uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
		WarehouseID:   whID,
		PaymentMethod: entity.PaymentCard,
		Items: []dto.SaleItemRequest{
			{ProductID: "p1", Quantity: dec("1")},
			{ProductID: "p2", Quantity: dec("5")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Empty(t, f.store.Sales())
	assert.Empty(t, f.store.Details())
	assert.Empty(t, f.store.Movements())
	assert.True(t, dec("10").Equal(f.store.Stock(tenantID, whID, "p1")))
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateSale_ConcurrentesSobreUltimaUnidad(t *testing.T) {
	f := newFixture(t)
	f.limits.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	const buyers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
				WarehouseID: whID, PaymentMethod: entity.PaymentCard,
				Items: []dto.SaleItemRequest{{ProductID: "p2", Quantity: dec("1")}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	require.Len(t, errs, buyers-1)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.True(t, f.store.Stock(tenantID, whID, "p2").IsZero())
	assert.Len(t, f.store.Sales(), 1)
	assert.Len(t, f.store.Movements(), 1)
}

func TestCreateSale_TopeMensualConVentasConcurrentes(t *testing.T) {
	f := newFixture(t)
	f.store.SeedTenant(entity.Tenant{ID: tenantID, Name: "Tienda", PlanID: "basico", Status: entity.TenantStatusActive})
	f.store.SeedPlanLimit(entity.PlanLimit{PlanID: "basico", MaxSalesPerMonth: 2})
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	repos := f.store.Repos()
	uc := sales.NewSaleUseCase(f.store, repos.Products, repos.Warehouses, repos.Sales, sales.Deps{
		Limits:    tenancy.NewLimitService(repos),
		Publisher: f.publisher,
	})

	const sellers = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		limited int
	)
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
				WarehouseID: whID, PaymentMethod: entity.PaymentCard,
				Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("1")}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrPlanLimitReached):
				limited++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, sellers-2, limited)
	assert.Len(t, f.store.Sales(), 2)
	assert.True(t, dec("8").Equal(f.store.Stock(tenantID, whID, "p1")))
}

func TestCreateSale_Validaciones(t *testing.T) {
	cases := map[string]struct {
		in   dto.CreateSaleRequest
		want error
	}{
		"sin productos": {
			in:   dto.CreateSaleRequest{WarehouseID: whID, PaymentMethod: entity.PaymentCard},
			want: domain.ErrInvalidInput,
		},
		"efectivo sin monto": {
			in:   dto.CreateSaleRequest{WarehouseID: whID, PaymentMethod: entity.PaymentCash, Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("1")}}},
			want: domain.ErrInvalidInput,
		},
		"pago insuficiente": {
			in:   dto.CreateSaleRequest{WarehouseID: whID, PaymentMethod: entity.PaymentCash, AmountPaid: decPtr("5"), Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("1")}}},
			want: domain.ErrInvalidInput,
		},
		"producto inactivo": {
			in:   dto.CreateSaleRequest{WarehouseID: whID, PaymentMethod: entity.PaymentCard, Items: []dto.SaleItemRequest{{ProductID: "p3", Quantity: dec("1")}}},
			want: domain.ErrInvalidInput,
		},
		"producto inexistente": {
			in:   dto.CreateSaleRequest{WarehouseID: whID, PaymentMethod: entity.PaymentCard, Items: []dto.SaleItemRequest{{ProductID: "zz", Quantity: dec("1")}}},
			want: domain.ErrNotFound,
		},
		"almacén de otra organización": {
			in:   dto.CreateSaleRequest{WarehouseID: "otro", PaymentMethod: entity.PaymentCard, Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("1")}}},
			want: domain.ErrNotFound,
		},
		"cantidad cero": {
			in:   dto.CreateSaleRequest{WarehouseID: whID, PaymentMethod: entity.PaymentCard, Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("0")}}},
			want: domain.ErrInvalidInput,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.limits.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			_, err := f.uc.CreateSale(context.Background(), tenantID, userID, tc.in)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.store.Sales())
		})
	}
}

func TestCreateSale_LimiteDelPlan(t *testing.T) {
	f := newFixture(t)
	f.limits.On("CheckLimit", mock.Anything, tenantID, entity.ResourceSalesMonth).Return(domain.ErrPlanLimitReached)

	_, err := f.uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
		WarehouseID: whID, PaymentMethod: entity.PaymentCard,
		Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrPlanLimitReached)
}

func TestCreateSale_FalloAlPublicarNoRevierte(t *testing.T) {
	f := newFixture(t)
	f.limits.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker caído"))

	out, err := f.uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
		WarehouseID: whID, PaymentMethod: entity.PaymentTransfer,
		Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(out.AmountPaid), "sin monto en pagos no efectivo se toma el total")
	assert.Len(t, f.store.Sales(), 1)
}

func TestCancelSale(t *testing.T) {
	f := newFixture(t)
	f.limits.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	created, err := f.uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
		WarehouseID: whID, PaymentMethod: entity.PaymentCard,
		Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("3")}},
	})
	require.NoError(t, err)
	assert.True(t, dec("7").Equal(f.store.Stock(tenantID, whID, "p1")))

	canceled, err := f.uc.CancelSale(context.Background(), tenantID, "admin", created.ID, "cliente devolvió")
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusCanceled, canceled.Status)
	assert.Equal(t, "cliente devolvió", canceled.CancelReason)
	assert.True(t, dec("10").Equal(f.store.Stock(tenantID, whID, "p1")))

	movs := f.store.Movements()
	assert.Equal(t, entity.MovementDevolucion, movs[len(movs)-1].Type)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev event.SaleEvent) bool {
		return ev.EventType == event.SaleCancelled && ev.Reason == "cliente devolvió"
	}))

	_, err = f.uc.CancelSale(context.Background(), tenantID, "admin", created.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.CancelSale(context.Background(), tenantID, "admin", "no-existe", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSales(t *testing.T) {
	f := newFixture(t)
	f.limits.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	for i := 0; i < 3; i++ {
		_, err := f.uc.CreateSale(context.Background(), tenantID, userID, dto.CreateSaleRequest{
			WarehouseID: whID, PaymentMethod: entity.PaymentCard,
			Items: []dto.SaleItemRequest{{ProductID: "p1", Quantity: dec("1")}},
		})
		require.NoError(t, err)
	}

	out, err := f.uc.ListSales(context.Background(), tenantID, dto.SaleFilterRequest{PageRequest: dto.PageRequest{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Page.Total)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "V-000003", out.Items[0].Number)

	got, err := f.uc.GetSale(context.Background(), tenantID, out.Items[0].ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, "Café", got.Items[0].ProductName)
}
