package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// SyncUsersUseCase reconcilia perfiles y roles con los usuarios de autenticación.
type SyncUsersUseCase struct {
	repos repository.Repositories
	log   *logger.Logger
}

// NewSyncUsersUseCase construye el caso de uso.
func NewSyncUsersUseCase(repos repository.Repositories, log *logger.Logger) *SyncUsersUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncUsersUseCase{repos: repos, log: log.Component("sync-users")}
}

// SyncUsers crea perfiles faltantes, actualiza emails desalineados (ForceUpdate) y crea el rol
// de los miembros que no lo tienen. Los perfiles huérfanos solo se cuentan.
// Cada usuario se procesa por separado: un fallo no revierte a los anteriores.
func (uc *SyncUsersUseCase) SyncUsers(ctx context.Context, tenantID string, in dto.SyncUsersRequest) (*dto.SyncUsersResponse, error) {
	candidates, err := uc.candidates(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}

	out := &dto.SyncUsersResponse{Success: true}
	now := time.Now()
	for _, u := range candidates {
		out.Processed++

		p, err := uc.repos.Profiles.GetByID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		switch {
		case p == nil:
			if err := uc.repos.Profiles.Create(ctx, &entity.Profile{
				ID: u.ID, Email: u.Email, CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				return nil, err
			}
			out.ProfilesCreated++
		case in.ForceUpdate && p.Email != u.Email:
			p.Email = u.Email
			p.UpdatedAt = now
			if err := uc.repos.Profiles.Update(ctx, p); err != nil {
				return nil, err
			}
			out.ProfilesUpdated++
		}

		m, err := uc.repos.TenantUsers.Get(ctx, tenantID, u.ID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		role, err := uc.repos.UserRoles.Get(ctx, tenantID, u.ID)
		if err != nil {
			return nil, err
		}
		if role != nil {
			continue
		}
		r := m.Role
		if !entity.ValidRole(r) {
			r = entity.RoleVendedor
		}
		if err := uc.repos.UserRoles.Create(ctx, &entity.UserRole{
			ID: uuid.NewString(), UserID: u.ID, TenantID: tenantID, Role: r, CreatedAt: now,
		}); err != nil {
			return nil, err
		}
		out.RolesCreated++
	}

	orphans, err := uc.repos.Profiles.ListOrphanIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out.Orphaned = len(orphans)

	uc.log.Info().
		Str("tenant_id", tenantID).
		Int("processed", out.Processed).
		Int("profiles_created", out.ProfilesCreated).
		Int("profiles_updated", out.ProfilesUpdated).
		Int("roles_created", out.RolesCreated).
		Int("orphaned", out.Orphaned).
		Msg("sincronización de usuarios")
	return out, nil
}

func (uc *SyncUsersUseCase) candidates(ctx context.Context, tenantID string, in dto.SyncUsersRequest) ([]*entity.AuthUser, error) {
	switch {
	case in.SpecificUserID != "":
		u, err := uc.repos.AuthUsers.GetByID(ctx, in.SpecificUserID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, domain.ErrUserNotFound
		}
		return []*entity.AuthUser{u}, nil
	case in.ForceSyncAll:
		return uc.repos.AuthUsers.ListAll(ctx)
	default:
		return uc.repos.AuthUsers.ListByTenant(ctx, tenantID)
	}
}
