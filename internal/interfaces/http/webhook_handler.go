package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/billing"
	"github.com/jhoicas/Tienda-api/internal/domain"
)

// WebhookHandler eventos firmados del proveedor de pagos (público).
type WebhookHandler struct {
	uc *billing.UseCase
}

// NewWebhookHandler construye el handler. uc nil responde 503.
func NewWebhookHandler(uc *billing.UseCase) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

// Stripe verifica la firma Stripe-Signature sobre el cuerpo crudo.
// @Router       /api/webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	if h.uc == nil {
		return writeError(c, domain.ErrUnavailable)
	}
	out, err := h.uc.HandleWebhook(c.UserContext(), c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
