package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var (
	_ repository.AuthUserRepository = (*AuthUserRepo)(nil)
	_ repository.ProfileRepository  = (*ProfileRepo)(nil)
	_ repository.UserRoleRepository = (*UserRoleRepo)(nil)
)

// AuthUserRepo implementación de AuthUserRepository sobre PostgreSQL.
type AuthUserRepo struct {
	q Querier
}

// NewAuthUserRepository construye el adaptador de usuarios de autenticación.
func NewAuthUserRepository(q Querier) *AuthUserRepo {
	return &AuthUserRepo{q: q}
}

const authUserColumns = `u.id, u.email, u.password_hash, u.status, u.created_at, u.updated_at`

func scanAuthUser(row pgx.Row) (*entity.AuthUser, error) {
	var u entity.AuthUser
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste un usuario. Email duplicado -> ErrEmailAlreadyExists.
func (r *AuthUserRepo) Create(ctx context.Context, u *entity.AuthUser) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO auth_users (id, email, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.Status, u.CreatedAt, u.UpdatedAt)
	err = wrap("insert auth user", err)
	if errors.Is(err, domain.ErrDuplicate) {
		return domain.ErrEmailAlreadyExists
	}
	return err
}

func (r *AuthUserRepo) getOne(ctx context.Context, where, arg string) (*entity.AuthUser, error) {
	u, err := scanAuthUser(r.q.QueryRow(ctx, `SELECT `+authUserColumns+` FROM auth_users u WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get auth user", err)
	}
	return u, nil
}

// GetByID obtiene un usuario por ID.
func (r *AuthUserRepo) GetByID(ctx context.Context, id string) (*entity.AuthUser, error) {
	return r.getOne(ctx, `u.id = $1`, id)
}

// GetByEmail obtiene un usuario por email (sin distinguir mayúsculas).
func (r *AuthUserRepo) GetByEmail(ctx context.Context, email string) (*entity.AuthUser, error) {
	return r.getOne(ctx, `u.email = $1`, strings.ToLower(email))
}

func (r *AuthUserRepo) list(ctx context.Context, query string, args ...any) ([]*entity.AuthUser, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list auth users", err)
	}
	defer rows.Close()
	var out []*entity.AuthUser
	for rows.Next() {
		u, err := scanAuthUser(rows)
		if err != nil {
			return nil, wrap("scan auth user", err)
		}
		out = append(out, u)
	}
	return out, wrap("list auth users", rows.Err())
}

// ListAll todos los usuarios de autenticación.
func (r *AuthUserRepo) ListAll(ctx context.Context) ([]*entity.AuthUser, error) {
	return r.list(ctx, `SELECT `+authUserColumns+` FROM auth_users u ORDER BY u.created_at`)
}

// ListByTenant usuarios con membresía en la organización.
func (r *AuthUserRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.AuthUser, error) {
	return r.list(ctx, `
		SELECT `+authUserColumns+`
		FROM auth_users u
		JOIN tenant_users tu ON tu.user_id = u.id
		WHERE tu.tenant_id = $1
		ORDER BY u.created_at`, tenantID)
}

// ProfileRepo perfiles sobre PostgreSQL.
type ProfileRepo struct {
	q Querier
}

// NewProfileRepository construye el adaptador de perfiles.
func NewProfileRepository(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

// Create persiste un perfil.
func (r *ProfileRepo) Create(ctx context.Context, p *entity.Profile) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Email, p.FullName, p.AvatarURL, p.CreatedAt, p.UpdatedAt)
	return wrap("insert profile", err)
}

// GetByID perfil o nil.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	var p entity.Profile
	err := r.q.QueryRow(ctx, `
		SELECT id, email, full_name, avatar_url, created_at, updated_at
		FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get profile", err)
	}
	return &p, nil
}

// Update actualiza email, nombre y avatar.
func (r *ProfileRepo) Update(ctx context.Context, p *entity.Profile) error {
	_, err := r.q.Exec(ctx, `
		UPDATE profiles SET email = $2, full_name = $3, avatar_url = $4, updated_at = now()
		WHERE id = $1`, p.ID, p.Email, p.FullName, p.AvatarURL)
	return wrap("update profile", err)
}

// ListOrphanIDs perfiles con rol en la organización cuyo usuario de autenticación ya no existe.
func (r *ProfileRepo) ListOrphanIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id
		FROM profiles p
		JOIN user_roles ur ON ur.user_id = p.id AND ur.tenant_id = $1
		LEFT JOIN auth_users u ON u.id = p.id
		WHERE u.id IS NULL
		ORDER BY p.created_at`, tenantID)
	if err != nil {
		return nil, wrap("list orphan profiles", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan orphan profile", err)
		}
		ids = append(ids, id)
	}
	return ids, wrap("list orphan profiles", rows.Err())
}

// UserRoleRepo roles sobre PostgreSQL.
type UserRoleRepo struct {
	q Querier
}

// NewUserRoleRepository construye el adaptador de roles.
func NewUserRoleRepository(q Querier) *UserRoleRepo {
	return &UserRoleRepo{q: q}
}

// Get rol del usuario en la organización o nil.
func (r *UserRoleRepo) Get(ctx context.Context, tenantID, userID string) (*entity.UserRole, error) {
	var ur entity.UserRole
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, tenant_id, role, created_at
		FROM user_roles WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID).
		Scan(&ur.ID, &ur.UserID, &ur.TenantID, &ur.Role, &ur.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get user role", err)
	}
	return &ur, nil
}

// Create asigna un rol.
func (r *UserRoleRepo) Create(ctx context.Context, ur *entity.UserRole) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_roles (id, user_id, tenant_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ur.ID, ur.UserID, ur.TenantID, ur.Role, ur.CreatedAt)
	return wrap("insert user role", err)
}

// UpdateRole cambia el rol.
func (r *UserRoleRepo) UpdateRole(ctx context.Context, tenantID, userID, role string) error {
	_, err := r.q.Exec(ctx, `UPDATE user_roles SET role = $3 WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID, role)
	return wrap("update user role", err)
}

// Delete quita el rol.
func (r *UserRoleRepo) Delete(ctx context.Context, tenantID, userID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	return wrap("delete user role", err)
}

// ListWithName lee la vista user_roles_with_name.
func (r *UserRoleRepo) ListWithName(ctx context.Context, tenantID string) ([]*entity.UserRoleWithName, error) {
	rows, err := r.q.Query(ctx, `
		SELECT user_id, tenant_id, role, full_name, email, created_at
		FROM user_roles_with_name WHERE tenant_id = $1
		ORDER BY full_name, email`, tenantID)
	if err != nil {
		return nil, wrap("list user roles", err)
	}
	defer rows.Close()
	var out []*entity.UserRoleWithName
	for rows.Next() {
		var v entity.UserRoleWithName
		if err := rows.Scan(&v.UserID, &v.TenantID, &v.Role, &v.FullName, &v.Email, &v.CreatedAt); err != nil {
			return nil, wrap("scan user role", err)
		}
		out = append(out, &v)
	}
	return out, wrap("list user roles", rows.Err())
}
