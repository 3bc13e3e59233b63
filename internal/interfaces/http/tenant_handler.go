package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/billing"
	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/application/usecase"
	"github.com/jhoicas/Tienda-api/internal/domain"
)

// TenantHandler organizaciones del usuario y funciones de cuenta (checkout, sync-users).
type TenantHandler struct {
	tenancy *tenancy.UseCase
	billing *billing.UseCase
	sync    *usecase.SyncUsersUseCase
}

// NewTenantHandler construye el handler. billingUC es nil cuando no hay Stripe configurado.
func NewTenantHandler(tenancyUC *tenancy.UseCase, billingUC *billing.UseCase, syncUC *usecase.SyncUsersUseCase) *TenantHandler {
	return &TenantHandler{tenancy: tenancyUC, billing: billingUC, sync: syncUC}
}

// List godoc
// @Summary      Organizaciones del usuario
// @Tags         tenants
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.TenantResponse
// @Router       /api/tenants [get]
func (h *TenantHandler) List(c *fiber.Ctx) error {
	out, err := h.tenancy.LoadTenants(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear organización (el creador queda como admin)
// @Tags         tenants
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTenantRequest  true  "Nombre"
// @Success      201   {object}  dto.TenantResponse
// @Router       /api/tenants [post]
func (h *TenantHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTenantRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.tenancy.CreateTenant(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Switch cambia la organización activa y devuelve un token nuevo.
// @Router       /api/tenants/switch [post]
func (h *TenantHandler) Switch(c *fiber.Ctx) error {
	var in dto.SwitchTenantRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.tenancy.SwitchTenant(c.UserContext(), GetUserID(c), in.TenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Current organización activa (caché, por defecto o primera).
// @Router       /api/tenants/current [get]
func (h *TenantHandler) Current(c *fiber.Ctx) error {
	out, err := h.tenancy.CurrentTenantResponse(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Subscription suscripción y topes del plan de la organización activa.
// @Router       /api/tenants/subscription [get]
func (h *TenantHandler) Subscription(c *fiber.Ctx) error {
	out, err := h.tenancy.GetSubscription(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateCheckout godoc
// @Summary      Sesión de pago para cambiar de plan
// @Tags         functions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "planId y tenantId"
// @Success      200   {object}  dto.CheckoutResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/functions/create-checkout [post]
func (h *TenantHandler) CreateCheckout(c *fiber.Ctx) error {
	if h.billing == nil {
		return writeError(c, domain.ErrUnavailable)
	}
	var in dto.CheckoutRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.billing.CreateCheckout(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SyncUsers godoc
// @Summary      Reconciliar usuarios con perfiles y roles
// @Tags         functions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncUsersRequest  false  "Opciones"
// @Success      200   {object}  dto.SyncUsersResponse
// @Router       /api/functions/sync-users [post]
func (h *TenantHandler) SyncUsers(c *fiber.Ctx) error {
	var in dto.SyncUsersRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &in); err != nil {
			return writeError(c, err)
		}
	}
	out, err := h.sync.SyncUsers(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
