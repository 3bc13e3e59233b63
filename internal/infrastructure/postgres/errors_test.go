package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Tienda-api/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "productos_tenant_sku_key"}, domain.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, domain.ErrReferenceInUse},
		{"check", &pgconn.PgError{Code: "23514"}, domain.ErrInvalidInput},
		{"permiso", &pgconn.PgError{Code: "42501", Message: "permission denied for table ventas"}, domain.ErrForbidden},
		{"recursión por código", &pgconn.PgError{Code: "42P17"}, domain.ErrPolicyRecursion},
		{"recursión por mensaje", errors.New(`infinite recursion detected in policy for relation "user_roles"`), domain.ErrPolicyRecursion},
		{"interbloqueo", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}, domain.ErrConflict},
		{"serialización", &pgconn.PgError{Code: "40001"}, domain.ErrConflict},
		{"conexión caída", &pgconn.PgError{Code: "08006"}, domain.ErrUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, domain.ErrUnavailable},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), domain.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.in), tt.want)
		})
	}
}

func TestClassify_Desconocido(t *testing.T) {
	in := &pgconn.PgError{Code: "22P02"}
	out := classify(in)
	assert.Same(t, error(in), out)
	assert.Nil(t, classify(nil))
}

func TestWrap_ConservaContexto(t *testing.T) {
	err := wrap("insert product", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Contains(t, err.Error(), "insert product")
	assert.Nil(t, wrap("x", nil))
}
