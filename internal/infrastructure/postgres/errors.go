package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Tienda-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInsufficientPriv    = "42501"
	codeInfiniteRecursion   = "42P17"
	codeSerialization       = "40001"
	codeDeadlockDetected    = "40P01"
)

// classify traduce errores de PostgreSQL/pgx a errores de dominio conservando el original en la cadena.
// Devuelve err intacto si no corresponde a ninguna categoría conocida.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrReferenceInUse, pgErr.ConstraintName)
		case codeCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.ConstraintName)
		case codeInsufficientPriv:
			return fmt.Errorf("%w: %s", domain.ErrForbidden, pgErr.Message)
		case codeInfiniteRecursion:
			return fmt.Errorf("%w: %s", domain.ErrPolicyRecursion, pgErr.Message)
		case codeSerialization, codeDeadlockDetected:
			// La transacción se revirtió entera; el cliente puede reintentar.
			return fmt.Errorf("%w: operación concurrente, reintente (%s)", domain.ErrConflict, pgErr.Code)
		}
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P") {
			return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		}
		return err
	}
	if strings.Contains(err.Error(), "infinite recursion") {
		return fmt.Errorf("%w: %v", domain.ErrPolicyRecursion, err)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// wrap clasifica y añade contexto de la operación.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, classify(err))
}
