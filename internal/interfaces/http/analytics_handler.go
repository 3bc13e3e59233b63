package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/analytics"
	"github.com/jhoicas/Tienda-api/internal/application/dto"
)

// AnalyticsHandler maneja los endpoints del dashboard y reportes de ventas.
type AnalyticsHandler struct {
	uc *analytics.UseCase
}

// NewAnalyticsHandler construye el handler.
func NewAnalyticsHandler(uc *analytics.UseCase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

func period(c *fiber.Ctx) (dto.PeriodRequest, error) {
	var p dto.PeriodRequest
	err := bindQuery(c, &p)
	return p, err
}

// Dashboard godoc
// @Summary      Resumen del período con comparación contra el período anterior
// @Tags         analytics
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Inicio (YYYY-MM-DD). Default: primer día del mes."
// @Param        to    query  string  false  "Fin inclusivo (YYYY-MM-DD). Default: hoy."
// @Success      200  {object}  dto.DashboardResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Dashboard(c.UserContext(), GetTenantID(c), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SalesByDay serie diaria (días sin ventas en cero).
// @Router       /api/analytics/sales-by-day [get]
func (h *AnalyticsHandler) SalesByDay(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.SalesByDay(c.UserContext(), GetTenantID(c), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TopProducts productos más vendidos; ?limit (default 10, máx 100).
// @Router       /api/analytics/top-products [get]
func (h *AnalyticsHandler) TopProducts(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.TopProducts(c.UserContext(), GetTenantID(c), p, c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ByCategory ventas agrupadas por categoría.
// @Router       /api/analytics/by-category [get]
func (h *AnalyticsHandler) ByCategory(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.SalesByCategory(c.UserContext(), GetTenantID(c), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ByWarehouse ventas agrupadas por almacén.
// @Router       /api/analytics/by-warehouse [get]
func (h *AnalyticsHandler) ByWarehouse(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.SalesByWarehouse(c.UserContext(), GetTenantID(c), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ByPaymentMethod ventas agrupadas por medio de pago.
// @Router       /api/analytics/by-payment-method [get]
func (h *AnalyticsHandler) ByPaymentMethod(c *fiber.Ctx) error {
	p, err := period(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.SalesByPaymentMethod(c.UserContext(), GetTenantID(c), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// NonSelling productos activos sin ventas en los últimos ?days (default 30).
// @Router       /api/analytics/non-selling [get]
func (h *AnalyticsHandler) NonSelling(c *fiber.Ctx) error {
	out, err := h.uc.NonSellingProducts(c.UserContext(), GetTenantID(c), c.QueryInt("days", 0), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
