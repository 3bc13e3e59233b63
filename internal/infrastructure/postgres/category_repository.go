package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var (
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.UnitRepository     = (*UnitRepo)(nil)
)

// CategoryRepo categorías (tabla categorias).
type CategoryRepo struct {
	q Querier
}

// NewCategoryRepository construye el adaptador de categorías.
func NewCategoryRepository(q Querier) *CategoryRepo {
	return &CategoryRepo{q: q}
}

// Create persiste una categoría. Nombre repetido en la organización -> ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, c *entity.Category) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO categorias (id, tenant_id, nombre, descripcion, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.TenantID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return wrap("insert category", err)
}

// GetByID categoría de la organización o nil.
func (r *CategoryRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Category, error) {
	var c entity.Category
	err := r.q.QueryRow(ctx, `
		SELECT id, tenant_id, nombre, descripcion, created_at, updated_at
		FROM categorias WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get category", err)
	}
	return &c, nil
}

// Update actualiza nombre y descripción.
func (r *CategoryRepo) Update(ctx context.Context, c *entity.Category) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE categorias SET nombre = $3, descripcion = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`, c.TenantID, c.ID, c.Name, c.Description)
	if err != nil {
		return wrap("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la categoría. Con productos asociados -> ErrReferenceInUse.
func (r *CategoryRepo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM categorias WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return wrap("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List categorías, filtrando por nombre si search no está vacío.
func (r *CategoryRepo) List(ctx context.Context, tenantID, search string) ([]*entity.Category, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, tenant_id, nombre, descripcion, created_at, updated_at
		FROM categorias
		WHERE tenant_id = $1 AND ($2 = '' OR nombre ILIKE '%' || $2 || '%')
		ORDER BY nombre`, tenantID, search)
	if err != nil {
		return nil, wrap("list categories", err)
	}
	defer rows.Close()
	var out []*entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, wrap("scan category", err)
		}
		out = append(out, &c)
	}
	return out, wrap("list categories", rows.Err())
}

// UnitRepo unidades de medida (tabla unidades).
type UnitRepo struct {
	q Querier
}

// NewUnitRepository construye el adaptador de unidades.
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

// Create persiste una unidad.
func (r *UnitRepo) Create(ctx context.Context, u *entity.Unit) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO unidades (id, tenant_id, nombre, abreviatura, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.TenantID, u.Name, u.Abbreviation, u.CreatedAt, u.UpdatedAt)
	return wrap("insert unit", err)
}

// GetByID unidad o nil.
func (r *UnitRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Unit, error) {
	var u entity.Unit
	err := r.q.QueryRow(ctx, `
		SELECT id, tenant_id, nombre, abreviatura, created_at, updated_at
		FROM unidades WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&u.ID, &u.TenantID, &u.Name, &u.Abbreviation, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get unit", err)
	}
	return &u, nil
}

// Update actualiza nombre y abreviatura.
func (r *UnitRepo) Update(ctx context.Context, u *entity.Unit) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE unidades SET nombre = $3, abreviatura = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`, u.TenantID, u.ID, u.Name, u.Abbreviation)
	if err != nil {
		return wrap("update unit", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la unidad. En uso -> ErrReferenceInUse.
func (r *UnitRepo) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM unidades WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return wrap("delete unit", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List unidades de la organización.
func (r *UnitRepo) List(ctx context.Context, tenantID string) ([]*entity.Unit, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, tenant_id, nombre, abreviatura, created_at, updated_at
		FROM unidades WHERE tenant_id = $1 ORDER BY nombre`, tenantID)
	if err != nil {
		return nil, wrap("list units", err)
	}
	defer rows.Close()
	var out []*entity.Unit
	for rows.Next() {
		var u entity.Unit
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Name, &u.Abbreviation, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, wrap("scan unit", err)
		}
		out = append(out, &u)
	}
	return out, wrap("list units", rows.Err())
}
