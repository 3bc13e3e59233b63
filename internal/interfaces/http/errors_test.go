package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Tienda-api/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: producto x", domain.ErrNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{domain.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND"},
		{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
		{domain.ErrReferenceInUse, fiber.StatusConflict, "REFERENCE_IN_USE"},
		{fmt.Errorf("venta: %w", domain.ErrInsufficientStock), fiber.StatusConflict, "INSUFFICIENT_STOCK"},
		{domain.ErrNotTenantMember, fiber.StatusForbidden, "NOT_TENANT_MEMBER"},
		{domain.ErrPlanLimitReached, fiber.StatusPaymentRequired, "PLAN_LIMIT_REACHED"},
		{domain.ErrUnavailable, fiber.StatusServiceUnavailable, "UNAVAILABLE"},
		{domain.ErrPaymentProvider, fiber.StatusBadGateway, "PAYMENT_PROVIDER"},
		{badRequest("VALIDATION", "sku: required"), fiber.StatusBadRequest, "VALIDATION"},
		{fiber.ErrNotFound, fiber.StatusNotFound, "HTTP_ERROR"},
		{errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, body := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, body.Code, tc.err.Error())
		assert.False(t, body.Critical)
	}
}

func TestStatusFor_RecursionDePoliticaEsCritica(t *testing.T) {
	status, body := statusFor(fmt.Errorf("listar: %w", domain.ErrPolicyRecursion))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.True(t, body.Critical)
	assert.Equal(t, "POLICY_RECURSION", body.Code)
}

func TestStatusFor_ErrorInternoNoFiltraDetalle(t *testing.T) {
	_, body := statusFor(errors.New("pq: password authentication failed"))
	assert.NotContains(t, body.Message, "password")
}
