package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

// UserUseCase administración de usuarios dentro de una organización (solo admin).
type UserUseCase struct {
	repos    repository.Repositories
	txRunner TxRunner
	limits   LimitChecker
}

// NewUserUseCase construye el caso de uso. limits puede ser nil.
func NewUserUseCase(repos repository.Repositories, txRunner TxRunner, limits LimitChecker) *UserUseCase {
	return &UserUseCase{repos: repos, txRunner: txRunner, limits: limits}
}

// ListUsers usuarios de la organización desde la vista user_roles_with_name.
func (uc *UserUseCase) ListUsers(ctx context.Context, tenantID string) ([]dto.TenantUserResponse, error) {
	rows, err := uc.repos.UserRoles.ListWithName(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TenantUserResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.TenantUserResponse{
			UserID:    r.UserID,
			FullName:  r.FullName,
			Email:     r.Email,
			Role:      r.Role,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// CreateUser da de alta un usuario en la organización. Si el email ya tiene cuenta solo se
// agrega la membresía; si ya es miembro devuelve ErrDuplicate.
func (uc *UserUseCase) CreateUser(ctx context.Context, tenantID string, in dto.CreateUserRequest) (*dto.TenantUserResponse, error) {
	if !entity.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: rol %q", domain.ErrInvalidInput, in.Role)
	}
	if uc.limits != nil {
		if err := uc.limits.CheckLimit(ctx, tenantID, entity.ResourceUsers); err != nil {
			return nil, err
		}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.repos.AuthUsers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m, err := uc.repos.TenantUsers.Get(ctx, tenantID, existing.ID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return nil, fmt.Errorf("%w: %s ya pertenece a la organización", domain.ErrDuplicate, email)
		}
	}

	now := time.Now()
	user := existing
	var hash []byte
	if user == nil {
		if hash, err = bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost); err != nil {
			return nil, err
		}
		user = &entity.AuthUser{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: string(hash),
			Status:       entity.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if existing == nil {
			if err := repos.AuthUsers.Create(ctx, user); err != nil {
				return err
			}
			if err := repos.Profiles.Create(ctx, &entity.Profile{
				ID: user.ID, Email: email, FullName: in.FullName, CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				return err
			}
		}
		memberships, err := repos.TenantUsers.ListByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if err := repos.TenantUsers.Add(ctx, &entity.TenantUser{
			TenantID: tenantID, UserID: user.ID, Role: in.Role, IsDefault: len(memberships) == 0, CreatedAt: now,
		}); err != nil {
			return err
		}
		return upsertRole(ctx, repos.UserRoles, tenantID, user.ID, in.Role, now)
	})
	if err != nil {
		return nil, err
	}

	fullName := in.FullName
	if existing != nil {
		if p, err := uc.repos.Profiles.GetByID(ctx, user.ID); err == nil && p != nil {
			fullName = p.FullName
		}
	}
	return &dto.TenantUserResponse{UserID: user.ID, FullName: fullName, Email: email, Role: in.Role, CreatedAt: now}, nil
}

// UpdateRole cambia el rol en la membresía y en user_roles. Un admin no puede quitarse
// su propio rol de admin.
func (uc *UserUseCase) UpdateRole(ctx context.Context, tenantID, actorID, userID, role string) error {
	if !entity.ValidRole(role) {
		return fmt.Errorf("%w: rol %q", domain.ErrInvalidInput, role)
	}
	if actorID == userID && role != entity.RoleAdmin {
		return fmt.Errorf("%w: no puede cambiar su propio rol", domain.ErrConflict)
	}
	m, err := uc.repos.TenantUsers.Get(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return domain.ErrNotFound
	}
	now := time.Now()
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if err := repos.TenantUsers.UpdateRole(ctx, tenantID, userID, role); err != nil {
			return err
		}
		return upsertRole(ctx, repos.UserRoles, tenantID, userID, role, now)
	})
}

// RemoveUser quita membresía y rol. La cuenta de acceso se conserva.
func (uc *UserUseCase) RemoveUser(ctx context.Context, tenantID, actorID, userID string) error {
	if actorID == userID {
		return fmt.Errorf("%w: no puede quitarse a sí mismo de la organización", domain.ErrConflict)
	}
	m, err := uc.repos.TenantUsers.Get(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return domain.ErrNotFound
	}
	return uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if err := repos.UserRoles.Delete(ctx, tenantID, userID); err != nil {
			return err
		}
		return repos.TenantUsers.Remove(ctx, tenantID, userID)
	})
}

func upsertRole(ctx context.Context, roles repository.UserRoleRepository, tenantID, userID, role string, now time.Time) error {
	current, err := roles.Get(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if current != nil {
		return roles.UpdateRole(ctx, tenantID, userID, role)
	}
	return roles.Create(ctx, &entity.UserRole{
		ID: uuid.NewString(), UserID: userID, TenantID: tenantID, Role: role, CreatedAt: now,
	})
}
