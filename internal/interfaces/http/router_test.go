package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/apptest"
	"github.com/jhoicas/Tienda-api/internal/application/auth"
	"github.com/jhoicas/Tienda-api/internal/application/inventory"
	"github.com/jhoicas/Tienda-api/internal/application/sales"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/application/usecase"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Tienda-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/retry"
)

const (
	shopID     = "11111111-1111-1111-1111-111111111111"
	adminID    = "22222222-2222-2222-2222-222222222222"
	sellerID   = "33333333-3333-3333-3333-333333333333"
	strangerID = "44444444-4444-4444-4444-444444444444"
	mainWhID   = "55555555-5555-5555-5555-555555555555"
	coffeeID   = "66666666-6666-6666-6666-666666666666"
)

type stubReceipts struct{}

func (stubReceipts) GenerateReceiptPDF(_ context.Context, data sales.ReceiptData) ([]byte, error) {
	return []byte("%PDF-1.7 " + data.Sale.Number), nil
}

type testServer struct {
	app   *fiber.App
	store *apptest.Store
}

func newTestServer(t *testing.T, ping func(ctx context.Context) error) *testServer {
	t.Helper()
	store := apptest.NewStore()
	store.SeedTenant(entity.Tenant{ID: shopID, Name: "Tienda Centro", Slug: "tienda-centro", PlanID: entity.PlanFree, Status: entity.TenantStatusActive})
	store.SeedMember(entity.TenantUser{TenantID: shopID, UserID: adminID, Role: entity.RoleAdmin, IsDefault: true})
	store.SeedMember(entity.TenantUser{TenantID: shopID, UserID: sellerID, Role: entity.RoleVendedor, IsDefault: true})
	store.SeedProfile(entity.Profile{ID: sellerID, Email: "vendedor@tienda.co", FullName: "Vera"})
	store.SeedWarehouse(entity.Warehouse{ID: mainWhID, TenantID: shopID, Name: "Principal", Active: true})
	store.SeedProduct(entity.Product{ID: coffeeID, TenantID: shopID, SKU: "CAF-01", Name: "Café", Price: decimal.NewFromInt(10), Cost: decimal.NewFromInt(6), Active: true})
	store.SeedStock(shopID, mainWhID, coffeeID, decimal.NewFromInt(3))

	repos := store.Repos()
	issuer := pkgjwt.Issuer{Secret: testJWTSecret, Issuer: testIssuer, ExpMinutes: testExpMin}
	tenancyUC := tenancy.NewUseCase(repos, store, nil, issuer, retry.Config{MaxAttempts: 1}, nil)
	limits := tenancy.NewLimitService(repos)

	app := apphttp.NewApp(apphttp.AppConfig{Name: "tienda-api-test"})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:       auth.NewAuthUseCase(repos.AuthUsers, repos.Profiles, store, tenancyUC, nil, issuer),
		TenancyUC:    tenancyUC,
		SyncUsersUC:  usecase.NewSyncUsersUseCase(repos, nil),
		UserUC:       usecase.NewUserUseCase(repos, store, limits),
		CategoryUC:   usecase.NewCategoryUseCase(repos.Categories),
		UnitUC:       usecase.NewUnitUseCase(repos.Units),
		ProductUC:    usecase.NewProductUseCase(repos, store, limits, nil),
		WarehouseUC:  usecase.NewWarehouseUseCase(repos.Warehouses, store, limits),
		MovementUC:   inventory.NewRegisterMovementUseCase(store, repos.Products, repos.Warehouses, nil),
		InventoryQry: inventory.NewQueryUseCase(repos.Products, repos.Warehouses, repos.Inventory, repos.Movements),
		LowStockUC:   inventory.NewLowStockUseCase(repos.Inventory, nil),
		SaleUC:       sales.NewSaleUseCase(store, repos.Products, repos.Warehouses, repos.Sales, sales.Deps{Limits: limits}),
		ReceiptUC:    sales.NewReceiptUseCase(repos.Sales, repos.Tenants, repos.Warehouses, repos.Profiles, stubReceipts{}, nil, nil),
		JWTSecret:    testJWTSecret,
		Ping:         ping,
	})
	return &testServer{app: app, store: store}
}

func bearer(t *testing.T, userID, tenantID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, tenantID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *testServer) call(t *testing.T, method, path, auth string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m), string(raw))
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, body)["status"])

	down := newTestServer(t, func(context.Context) error { return errors.New("connection refused") })
	resp, body = down.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unavailable", decode(t, body)["status"])
}

func TestAuthYOrganizaciones(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := s.call(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "Nuevo@Tienda.co", "password": "secreto123", "full_name": "Nuevo Dueño",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	session := decode(t, body)
	token := "Bearer " + session["token"].(string)
	assert.Empty(t, session["tenant_id"])

	resp, body = s.call(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "nuevo@tienda.co", "password": "secreto123", "full_name": "Otro",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", decode(t, body)["code"])

	resp, body = s.call(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nuevo@tienda.co", decode(t, body)["user"].(map[string]any)["email"])

	resp, body = s.call(t, http.MethodGet, "/api/tenants/current", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_TENANT_MEMBER", decode(t, body)["code"])

	// Sin organización en el token las rutas de la organización quedan cerradas.
	resp, body = s.call(t, http.MethodGet, "/api/products", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NO_TENANT", decode(t, body)["code"])

	resp, body = s.call(t, http.MethodPost, "/api/tenants", token, map[string]string{"name": "Mi Tienda"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	tenantID := decode(t, body)["id"].(string)

	resp, body = s.call(t, http.MethodPost, "/api/tenants/switch", token, map[string]string{"tenant_id": tenantID})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	switched := "Bearer " + decode(t, body)["token"].(string)

	resp, body = s.call(t, http.MethodGet, "/api/tenants/subscription", switched, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, entity.PlanFree, decode(t, body)["plan_id"])

	resp, body = s.call(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "nuevo@tienda.co", "password": "secreto123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	signin := decode(t, body)
	assert.Equal(t, tenantID, signin["tenant_id"])
	assert.Equal(t, entity.RoleAdmin, signin["role"])

	resp, _ = s.call(t, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "nuevo@tienda.co", "password": "incorrecta",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.call(t, http.MethodPost, "/api/auth/signout", switched, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRutaInexistenteBajoAPI(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := s.call(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.call(t, http.MethodGet, "/api/nope", bearer(t, strangerID, "", ""), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.call(t, http.MethodDelete, "/api/tenants/current", bearer(t, adminID, shopID, entity.RoleAdmin), nil)
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, resp.StatusCode)

	// Las rutas existentes siguen exigiendo sesión.
	resp, _ = s.call(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSwitchTenant_SinMembresia(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.call(t, http.MethodPost, "/api/tenants/switch", bearer(t, strangerID, "", ""), map[string]string{"tenant_id": shopID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_TENANT_MEMBER", decode(t, body)["code"])
}

func TestRutasDeOrganizacion_NoMiembro(t *testing.T) {
	s := newTestServer(t, nil)
	resp, body := s.call(t, http.MethodGet, "/api/products", bearer(t, strangerID, shopID, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_TENANT_MEMBER", decode(t, body)["code"])
}

func TestRoles(t *testing.T) {
	s := newTestServer(t, nil)
	seller := bearer(t, sellerID, shopID, entity.RoleVendedor)

	resp, _ := s.call(t, http.MethodGet, "/api/products", seller, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.call(t, http.MethodPost, "/api/products", seller, map[string]any{"sku": "TE-01", "name": "Té"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode(t, body)["code"])

	resp, _ = s.call(t, http.MethodGet, "/api/users", seller, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// El rol se toma de la membresía vigente, no del token.
	forged := bearer(t, sellerID, shopID, entity.RoleAdmin)
	resp, _ = s.call(t, http.MethodGet, "/api/users", forged, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVentas_FlujoCompleto(t *testing.T) {
	s := newTestServer(t, nil)
	seller := bearer(t, sellerID, shopID, entity.RoleVendedor)
	admin := bearer(t, adminID, shopID, entity.RoleAdmin)

	resp, body := s.call(t, http.MethodPost, "/api/sales", seller, map[string]any{
		"warehouse_id":   mainWhID,
		"payment_method": entity.PaymentCash,
		"items":          []map[string]any{{"product_id": coffeeID, "quantity": 2}},
		"amount_paid":    50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	sale := decode(t, body)
	saleID := sale["id"].(string)
	assert.Equal(t, "V-000001", sale["number"])
	assert.Equal(t, "20", sale["total"])
	assert.Equal(t, "30", sale["change"])
	assert.True(t, decimal.NewFromInt(1).Equal(s.store.Stock(shopID, mainWhID, coffeeID)))

	resp, body = s.call(t, http.MethodPost, "/api/sales", seller, map[string]any{
		"warehouse_id":   mainWhID,
		"payment_method": entity.PaymentCash,
		"items":          []map[string]any{{"product_id": coffeeID, "quantity": 5}},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode(t, body)["code"])
	assert.Len(t, s.store.Sales(), 1)

	resp, body = s.call(t, http.MethodGet, "/api/sales/"+saleID+"/receipt", seller, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "V-000001")
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, _ = s.call(t, http.MethodPost, "/api/sales/"+saleID+"/cancel", seller, map[string]string{"reason": "error de cobro"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.call(t, http.MethodPost, "/api/sales/"+saleID+"/cancel", admin, map[string]string{"reason": "error de cobro"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, entity.SaleStatusCanceled, decode(t, body)["status"])
	assert.True(t, decimal.NewFromInt(3).Equal(s.store.Stock(shopID, mainWhID, coffeeID)))

	resp, body = s.call(t, http.MethodPost, "/api/sales/"+saleID+"/cancel", admin, map[string]string{"reason": "otra vez"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
}

func TestVentas_Validacion(t *testing.T) {
	s := newTestServer(t, nil)
	seller := bearer(t, sellerID, shopID, entity.RoleVendedor)

	resp, body := s.call(t, http.MethodPost, "/api/sales", seller, map[string]any{
		"warehouse_id":   mainWhID,
		"payment_method": "cheque",
		"items":          []map[string]any{{"product_id": coffeeID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode(t, body)["code"])
	assert.Contains(t, decode(t, body)["message"], "payment_method")

	req := httptest.NewRequest(http.MethodPost, "/api/sales", bytes.NewBufferString("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", seller)
	raw, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	resp, body = s.call(t, http.MethodGet, "/api/sales/"+coffeeID, seller, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(body))
}

func TestWebhook_SinPasarelaConfigurada(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
