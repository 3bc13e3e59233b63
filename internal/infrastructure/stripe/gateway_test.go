package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/jhoicas/Tienda-api/internal/application/billing"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/pkg/config"
)

const whsec = "whsec_test_123"

// mockBackend implementa stripe.Backend respondiendo con el JSON que devuelva handler.
type mockBackend struct {
	handler func(method, path string, params stripego.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripego.ParamsContainer, v stripego.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripego.ParamsContainer, v stripego.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripego.Params, v stripego.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripego.Params, v stripego.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func newGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := NewGateway(config.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: whsec,
		SuccessURL:    "https://app/ok",
		CancelURL:     "https://app/cancel",
	}, nil)
	require.NoError(t, err)
	return g
}

func withBackend(t *testing.T, b stripego.Backend) {
	t.Helper()
	prev := stripego.GetBackend(stripego.APIBackend)
	stripego.SetBackend(stripego.APIBackend, b)
	t.Cleanup(func() { stripego.SetBackend(stripego.APIBackend, prev) })
}

func signed(t *testing.T, eventType string, object map[string]any) ([]byte, string) {
	t.Helper()
	return signedWithVersion(t, stripego.APIVersion, eventType, object)
}

func signedWithVersion(t *testing.T, apiVersion, eventType string, object map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        eventType,
		"api_version": apiVersion,
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    whsec,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func TestNewGateway_RequiereClaves(t *testing.T) {
	_, err := NewGateway(config.StripeConfig{}, nil)
	assert.Error(t, err)
	_, err = NewGateway(config.StripeConfig{SecretKey: "sk"}, nil)
	assert.Error(t, err)
}

func TestCreateCustomerAndCheckout(t *testing.T) {
	g := newGateway(t)
	var paths []string
	withBackend(t, &mockBackend{handler: func(method, path string, params stripego.ParamsContainer) ([]byte, error) {
		paths = append(paths, method+" "+path)
		switch path {
		case "/v1/customers":
			p := params.(*stripego.CustomerParams)
			assert.Equal(t, "t1", p.Metadata["tenant_id"])
			return []byte(`{"id":"cus_1","object":"customer"}`), nil
		case "/v1/checkout/sessions":
			p := params.(*stripego.CheckoutSessionParams)
			assert.Equal(t, "subscription", *p.Mode)
			assert.Equal(t, "t1", *p.ClientReferenceID)
			assert.Equal(t, "pro", p.Metadata["plan_id"])
			return []byte(`{"id":"cs_1","object":"checkout.session","url":"https://checkout/cs_1"}`), nil
		}
		return nil, fmt.Errorf("ruta inesperada %s", path)
	}})

	id, err := g.CreateCustomer(context.Background(), billing.CustomerInput{TenantID: "t1", Email: "a@t.co", Name: "Uno"})
	require.NoError(t, err)
	assert.Equal(t, "cus_1", id)

	url, err := g.CreateCheckoutSession(context.Background(), billing.CheckoutInput{CustomerID: id, PriceID: "price_pro", TenantID: "t1", PlanID: "pro"})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout/cs_1", url)
	assert.Equal(t, []string{"POST /v1/customers", "POST /v1/checkout/sessions"}, paths)
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	g := newGateway(t)
	payload, sig := signed(t, billing.EventCheckoutCompleted, map[string]any{
		"id":                  "cs_1",
		"object":              "checkout.session",
		"client_reference_id": "t1",
		"customer":            "cus_1",
		"subscription":        "sub_1",
		"metadata":            map[string]string{"plan_id": "pro"},
	})

	ev, err := g.ParseWebhook(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, billing.EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "t1", ev.TenantID)
	assert.Equal(t, "pro", ev.PlanID)
	assert.Equal(t, "cus_1", ev.CustomerID)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
}

func TestParseWebhook_OtraVersionDeAPI(t *testing.T) {
	g := newGateway(t)
	payload, sig := signedWithVersion(t, "2020-08-27", billing.EventCheckoutCompleted, map[string]any{
		"id":                  "cs_2",
		"object":              "checkout.session",
		"client_reference_id": "t1",
		"metadata":            map[string]string{"plan_id": "basic"},
	})

	ev, err := g.ParseWebhook(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, "t1", ev.TenantID)
	assert.Equal(t, "basic", ev.PlanID)
}

func TestParseWebhook_SubscriptionDeleted(t *testing.T) {
	g := newGateway(t)
	payload, sig := signed(t, billing.EventSubscriptionDeleted, map[string]any{
		"id":                 "sub_1",
		"object":             "subscription",
		"status":             "canceled",
		"customer":           "cus_1",
		"current_period_end": 1735689600,
		"metadata":           map[string]string{"tenant_id": "t1"},
	})

	ev, err := g.ParseWebhook(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", ev.SubscriptionID)
	assert.Equal(t, entity.SubscriptionStatusCanceled, ev.Status)
	require.NotNil(t, ev.CurrentPeriodEnd)
	assert.Equal(t, 2025, ev.CurrentPeriodEnd.Year())
}

func TestParseWebhook_FirmaInvalida(t *testing.T) {
	g := newGateway(t)
	payload, _ := signed(t, billing.EventCheckoutCompleted, map[string]any{"id": "cs_1"})
	_, err := g.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, entity.SubscriptionStatusActive, mapStatus(stripego.SubscriptionStatusTrialing))
	assert.Equal(t, entity.SubscriptionStatusPastDue, mapStatus(stripego.SubscriptionStatusUnpaid))
	assert.Equal(t, entity.SubscriptionStatusPending, mapStatus(stripego.SubscriptionStatusIncomplete))
}
