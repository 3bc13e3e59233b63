package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/apptest"
	"github.com/jhoicas/Tienda-api/internal/application/billing"
	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/retry"
)

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreateCustomer(ctx context.Context, in billing.CustomerInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, in billing.CheckoutInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) ParseWebhook(payload []byte, signature string) (*billing.WebhookEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(*billing.WebhookEvent)
	return ev, args.Error(1)
}

var prices = map[string]string{entity.PlanPro: "price_pro", entity.PlanBasic: "price_basic"}

func seed() *apptest.Store {
	store := apptest.NewStore()
	store.SeedTenant(entity.Tenant{ID: "t1", Name: "Tienda Uno", PlanID: entity.PlanFree})
	for _, plan := range []string{entity.PlanFree, entity.PlanBasic, entity.PlanPro} {
		store.SeedPlanLimit(entity.PlanLimit{PlanID: plan})
	}
	store.SeedAuthUser(entity.AuthUser{ID: "admin", Email: "admin@t.co"})
	store.SeedAuthUser(entity.AuthUser{ID: "caja", Email: "caja@t.co"})
	store.SeedMember(entity.TenantUser{TenantID: "t1", UserID: "admin", Role: entity.RoleAdmin})
	store.SeedMember(entity.TenantUser{TenantID: "t1", UserID: "caja", Role: entity.RoleVendedor})
	return store
}

func newUC(store *apptest.Store, gw billing.PaymentGateway) *billing.UseCase {
	members := tenancy.NewUseCase(store.Repos(), store, nil, jwt.Issuer{Secret: "s"}, retry.Config{MaxAttempts: 1, InitialInterval: time.Millisecond}, nil)
	return billing.NewUseCase(store.Repos(), store, members, gw, prices, nil)
}

func TestCreateCheckout_CreaClienteUnaVez(t *testing.T) {
	store := seed()
	gw := &mockGateway{}
	gw.On("CreateCustomer", mock.Anything, billing.CustomerInput{TenantID: "t1", Email: "admin@t.co", Name: "Tienda Uno"}).
		Return("cus_1", nil).Once()
	gw.On("CreateCheckoutSession", mock.Anything, billing.CheckoutInput{CustomerID: "cus_1", PriceID: "price_pro", TenantID: "t1", PlanID: entity.PlanPro}).
		Return("https://pay/1", nil)
	uc := newUC(store, gw)

	out, err := uc.CreateCheckout(context.Background(), "admin", dto.CheckoutRequest{PlanID: entity.PlanPro, TenantID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay/1", out.URL)
	sub, ok := store.Subscription("t1")
	require.True(t, ok)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
	assert.Equal(t, entity.PlanFree, sub.PlanID, "el plan cambia al confirmar el pago")

	_, err = uc.CreateCheckout(context.Background(), "admin", dto.CheckoutRequest{PlanID: entity.PlanPro, TenantID: "t1"})
	require.NoError(t, err)
	gw.AssertExpectations(t)
	gw.AssertNumberOfCalls(t, "CreateCustomer", 1)
}

func TestCreateCheckout_Rechazos(t *testing.T) {
	store := seed()
	gw := &mockGateway{}
	uc := newUC(store, gw)
	ctx := context.Background()

	_, err := uc.CreateCheckout(ctx, "caja", dto.CheckoutRequest{PlanID: entity.PlanPro, TenantID: "t1"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.CreateCheckout(ctx, "extraño", dto.CheckoutRequest{PlanID: entity.PlanPro, TenantID: "t1"})
	assert.ErrorIs(t, err, domain.ErrNotTenantMember)

	_, err = uc.CreateCheckout(ctx, "admin", dto.CheckoutRequest{PlanID: entity.PlanEnterprise, TenantID: "t1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	gw.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestCreateCheckout_ErrorDelProveedor(t *testing.T) {
	store := seed()
	gw := &mockGateway{}
	gw.On("CreateCustomer", mock.Anything, mock.Anything).Return("", errors.New("card_declined"))
	uc := newUC(store, gw)

	_, err := uc.CreateCheckout(context.Background(), "admin", dto.CheckoutRequest{PlanID: entity.PlanBasic, TenantID: "t1"})
	assert.ErrorIs(t, err, domain.ErrPaymentProvider)
	_, ok := store.Subscription("t1")
	assert.False(t, ok)
}

func TestHandleWebhook_CicloDeVida(t *testing.T) {
	store := seed()
	gw := &mockGateway{}
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	gw.On("ParseWebhook", []byte("completed"), "sig").Return(&billing.WebhookEvent{
		ID: "evt_1", Type: billing.EventCheckoutCompleted, TenantID: "t1", PlanID: entity.PlanPro,
		CustomerID: "cus_1", SubscriptionID: "sub_1", CurrentPeriodEnd: &end,
	}, nil)
	gw.On("ParseWebhook", []byte("past_due"), "sig").Return(&billing.WebhookEvent{
		ID: "evt_2", Type: billing.EventSubscriptionUpdated, SubscriptionID: "sub_1", Status: entity.SubscriptionStatusPastDue,
	}, nil)
	gw.On("ParseWebhook", []byte("deleted"), "sig").Return(&billing.WebhookEvent{
		ID: "evt_3", Type: billing.EventSubscriptionDeleted, SubscriptionID: "sub_1",
	}, nil)
	uc := newUC(store, gw)
	ctx := context.Background()

	out, err := uc.HandleWebhook(ctx, []byte("completed"), "sig")
	require.NoError(t, err)
	assert.True(t, out.Handled)
	tenant, _ := store.Tenant("t1")
	assert.Equal(t, entity.PlanPro, tenant.PlanID)
	sub, _ := store.Subscription("t1")
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	require.NotNil(t, sub.CurrentPeriodEnd)

	_, err = uc.HandleWebhook(ctx, []byte("past_due"), "sig")
	require.NoError(t, err)
	sub, _ = store.Subscription("t1")
	assert.Equal(t, entity.SubscriptionStatusPastDue, sub.Status)
	tenant, _ = store.Tenant("t1")
	assert.Equal(t, entity.PlanPro, tenant.PlanID)

	_, err = uc.HandleWebhook(ctx, []byte("deleted"), "sig")
	require.NoError(t, err)
	tenant, _ = store.Tenant("t1")
	assert.Equal(t, entity.PlanFree, tenant.PlanID)
	sub, _ = store.Subscription("t1")
	assert.Equal(t, entity.SubscriptionStatusCanceled, sub.Status)
}

func TestHandleWebhook_PlanDesconocidoNoSeAplica(t *testing.T) {
	store := seed()
	gw := &mockGateway{}
	gw.On("ParseWebhook", []byte("completed"), "sig").Return(&billing.WebhookEvent{
		ID: "evt_1", Type: billing.EventCheckoutCompleted, TenantID: "t1", PlanID: "platinum",
		CustomerID: "cus_1", SubscriptionID: "sub_1",
	}, nil)
	uc := newUC(store, gw)

	out, err := uc.HandleWebhook(context.Background(), []byte("completed"), "sig")
	require.NoError(t, err, "se confirma a Stripe para que no reintente")
	assert.True(t, out.Received)
	assert.False(t, out.Handled)

	tenant, _ := store.Tenant("t1")
	assert.Equal(t, entity.PlanFree, tenant.PlanID)
	_, ok := store.Subscription("t1")
	assert.False(t, ok)
}

func TestHandleWebhook_FirmaInvalidaYEventosIgnorados(t *testing.T) {
	store := seed()
	gw := &mockGateway{}
	gw.On("ParseWebhook", []byte("x"), "mala").Return(nil, errors.New("signature mismatch"))
	gw.On("ParseWebhook", []byte("otro"), "sig").Return(&billing.WebhookEvent{ID: "evt", Type: "invoice.paid"}, nil)
	gw.On("ParseWebhook", []byte("huérfano"), "sig").Return(&billing.WebhookEvent{
		ID: "evt", Type: billing.EventSubscriptionDeleted, SubscriptionID: "sub_desconocida",
	}, nil)
	uc := newUC(store, gw)
	ctx := context.Background()

	_, err := uc.HandleWebhook(ctx, []byte("x"), "mala")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err := uc.HandleWebhook(ctx, []byte("otro"), "sig")
	require.NoError(t, err)
	assert.True(t, out.Received)
	assert.False(t, out.Handled)

	out, err = uc.HandleWebhook(ctx, []byte("huérfano"), "sig")
	require.NoError(t, err)
	assert.False(t, out.Handled)
}
