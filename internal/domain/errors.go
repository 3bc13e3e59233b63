package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrReferenceInUse     = errors.New("el recurso está referenciado por otros registros")
	ErrPlanLimitReached   = errors.New("límite del plan alcanzado")
	ErrNotTenantMember    = errors.New("el usuario no pertenece a la organización")
	ErrPolicyRecursion    = errors.New("recursión infinita en política de acceso")
	ErrUnavailable        = errors.New("servicio de datos no disponible")
	ErrPaymentProvider    = errors.New("error del proveedor de pagos")
	ErrStockLocked        = errors.New("el stock está siendo modificado por otra operación")
)

// IsRetryable indica si vale la pena reintentar la operación que produjo err.
// Solo los fallos de conectividad con la base de datos lo son.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsCritical marca errores que invalidan la sesión completa (no solo la acción del usuario).
func IsCritical(err error) bool {
	return errors.Is(err, ErrPolicyRecursion)
}
