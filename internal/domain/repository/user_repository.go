package repository

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
)

// AuthUserRepository credenciales de acceso (tabla auth_users).
type AuthUserRepository interface {
	Create(ctx context.Context, u *entity.AuthUser) error
	GetByID(ctx context.Context, id string) (*entity.AuthUser, error)
	GetByEmail(ctx context.Context, email string) (*entity.AuthUser, error)
	ListAll(ctx context.Context) ([]*entity.AuthUser, error)
	// ListByTenant devuelve los usuarios con membresía en la organización.
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.AuthUser, error)
}

// ProfileRepository perfiles visibles (tabla profiles).
type ProfileRepository interface {
	Create(ctx context.Context, p *entity.Profile) error
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	Update(ctx context.Context, p *entity.Profile) error
	// ListOrphanIDs perfiles con rol en la organización pero sin usuario de autenticación.
	ListOrphanIDs(ctx context.Context, tenantID string) ([]string, error)
}

// UserRoleRepository roles por organización (tabla user_roles y vista user_roles_with_name).
type UserRoleRepository interface {
	Get(ctx context.Context, tenantID, userID string) (*entity.UserRole, error)
	Create(ctx context.Context, r *entity.UserRole) error
	UpdateRole(ctx context.Context, tenantID, userID, role string) error
	Delete(ctx context.Context, tenantID, userID string) error
	ListWithName(ctx context.Context, tenantID string) ([]*entity.UserRoleWithName, error)
}
