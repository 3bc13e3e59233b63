package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/jwt"
)

// TxRunner ejecuta una función dentro de una transacción de BD con repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// TenantResolver organización activa y rol del usuario (implementado por tenancy.UseCase).
type TenantResolver interface {
	CurrentTenant(ctx context.Context, userID string) (*entity.TenantUser, error)
	RoleIn(ctx context.Context, tenantID, userID string) (string, error)
}

// TokenBlacklist revocación de tokens por JTI (Redis).
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthUseCase casos de uso de autenticación: registro, login, logout y perfil.
type AuthUseCase struct {
	authUsers repository.AuthUserRepository
	profiles  repository.ProfileRepository
	txRunner  TxRunner
	tenants   TenantResolver
	blacklist TokenBlacklist
	issuer    jwt.Issuer
	now       func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth. blacklist puede ser nil (logout sin revocación).
func NewAuthUseCase(
	authUsers repository.AuthUserRepository,
	profiles repository.ProfileRepository,
	txRunner TxRunner,
	tenants TenantResolver,
	blacklist TokenBlacklist,
	issuer jwt.Issuer,
) *AuthUseCase {
	return &AuthUseCase{
		authUsers: authUsers,
		profiles:  profiles,
		txRunner:  txRunner,
		tenants:   tenants,
		blacklist: blacklist,
		issuer:    issuer,
		now:       time.Now,
	}
}

// SignUp crea el usuario de autenticación (bcrypt) y su perfil en una transacción.
// El token emitido no tiene organización hasta que el usuario cree o se una a una.
func (uc *AuthUseCase) SignUp(ctx context.Context, in dto.SignUpRequest) (*dto.SessionResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.authUsers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	user := &entity.AuthUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &entity.Profile{ID: user.ID, Email: email, FullName: in.FullName, CreatedAt: now, UpdatedAt: now}
	err = uc.txRunner.Run(ctx, func(repos repository.Repositories) error {
		if err := repos.AuthUsers.Create(ctx, user); err != nil {
			return err
		}
		return repos.Profiles.Create(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	token, err := uc.issuer.Issue(user.ID, "", "")
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{Token: token, User: toUserResponse(user, profile)}, nil
}

// SignIn verifica email/password y emite un JWT con la organización activa y el rol en ella.
func (uc *AuthUseCase) SignIn(ctx context.Context, in dto.SignInRequest) (*dto.SessionResponse, error) {
	user, err := uc.authUsers.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}

	var tenantID, role string
	current, err := uc.tenants.CurrentTenant(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		tenantID = current.TenantID
		if role, err = uc.tenants.RoleIn(ctx, tenantID, user.ID); err != nil {
			return nil, err
		}
	}

	token, err := uc.issuer.Issue(user.ID, tenantID, role)
	if err != nil {
		return nil, err
	}
	profile, err := uc.profiles.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		Token:    token,
		User:     toUserResponse(user, profile),
		TenantID: tenantID,
		Role:     role,
	}, nil
}

// SignOut revoca el token hasta su vencimiento.
func (uc *AuthUseCase) SignOut(ctx context.Context, claims *jwt.Claims) error {
	if uc.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.Expiry().Sub(uc.now())
	if ttl <= 0 {
		return nil
	}
	return uc.blacklist.Revoke(ctx, claims.ID, ttl)
}

// Me perfil del usuario autenticado con la organización del token.
func (uc *AuthUseCase) Me(ctx context.Context, userID, tenantID, role string) (*dto.MeResponse, error) {
	user, err := uc.authUsers.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	profile, err := uc.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.MeResponse{User: toUserResponse(user, profile), TenantID: tenantID, Role: role}, nil
}

func toUserResponse(u *entity.AuthUser, p *entity.Profile) dto.UserResponse {
	out := dto.UserResponse{ID: u.ID, Email: u.Email}
	if p != nil {
		out.FullName = p.FullName
		out.AvatarURL = p.AvatarURL
	}
	return out
}
