package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
)

const localError = "error"

// requestError error del cliente detectado en el handler (cuerpo, query o validación).
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(code, message string) error {
	return &requestError{code: code, message: message}
}

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: los errores más específicos van primero.
var errorMappings = []errorMapping{
	{domain.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrNotTenantMember, fiber.StatusForbidden, "NOT_TENANT_MEMBER"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrStockLocked, fiber.StatusConflict, "STOCK_LOCKED"},
	{domain.ErrReferenceInUse, fiber.StatusConflict, "REFERENCE_IN_USE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrPlanLimitReached, fiber.StatusPaymentRequired, "PLAN_LIMIT_REACHED"},
	{domain.ErrPaymentProvider, fiber.StatusBadGateway, "PAYMENT_PROVIDER"},
	{domain.ErrUnavailable, fiber.StatusServiceUnavailable, "UNAVAILABLE"},
}

// statusFor traduce un error a status HTTP y cuerpo.
func statusFor(err error) (int, dto.ErrorResponse) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: reqErr.code, Message: reqErr.message}
	}
	if domain.IsCritical(err) {
		return fiber.StatusInternalServerError, dto.ErrorResponse{
			Code: "POLICY_RECURSION", Message: "error de configuración de permisos, contacte al administrador", Critical: true,
		}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, dto.ErrorResponse{Code: m.code, Message: err.Error()}
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

// writeError responde el error con el status que le corresponde. El error original queda en
// Locals para que el logger de peticiones lo registre.
func writeError(c *fiber.Ctx, err error) error {
	c.Locals(localError, err)
	status, body := statusFor(err)
	return c.Status(status).JSON(body)
}

// ErrorHandler para fiber.Config: errores que escapan de los handlers (rutas inexistentes, panics recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
