package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/application/apptest"
	"github.com/jhoicas/Tienda-api/internal/application/auth"
	"github.com/jhoicas/Tienda-api/internal/application/dto"
	"github.com/jhoicas/Tienda-api/internal/application/tenancy"
	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/pkg/jwt"
	"github.com/jhoicas/Tienda-api/pkg/retry"
)

var issuer = jwt.Issuer{Secret: "secret", Issuer: "test", ExpMinutes: 30}

type mockBlacklist struct{ mock.Mock }

func (m *mockBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return m.Called(ctx, jti, ttl).Error(0)
}

func newAuth(store *apptest.Store, bl auth.TokenBlacklist) *auth.AuthUseCase {
	repos := store.Repos()
	tenants := tenancy.NewUseCase(repos, store, nil, issuer, retry.Config{MaxAttempts: 1, InitialInterval: time.Millisecond}, nil)
	return auth.NewAuthUseCase(repos.AuthUsers, repos.Profiles, store, tenants, bl, issuer)
}

func TestSignUpSignIn(t *testing.T) {
	store := apptest.NewStore()
	uc := newAuth(store, nil)
	ctx := context.Background()

	up, err := uc.SignUp(ctx, dto.SignUpRequest{Email: "Ana@Tienda.co", Password: "supersecreta", FullName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@tienda.co", up.User.Email)
	assert.Equal(t, "Ana", up.User.FullName)
	assert.Empty(t, up.TenantID)

	_, err = uc.SignUp(ctx, dto.SignUpRequest{Email: "ana@tienda.co", Password: "otraclave1", FullName: "Otra"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	store.SeedTenant(entity.Tenant{ID: "t1", Name: "Uno"})
	store.SeedMember(entity.TenantUser{TenantID: "t1", UserID: up.User.ID, Role: entity.RoleVendedor, IsDefault: true})

	in, err := uc.SignIn(ctx, dto.SignInRequest{Email: "ana@tienda.co", Password: "supersecreta"})
	require.NoError(t, err)
	assert.Equal(t, "t1", in.TenantID)
	assert.Equal(t, entity.RoleVendedor, in.Role)
	_, tenantID, role, err := jwt.Parse("secret", in.Token)
	require.NoError(t, err)
	assert.Equal(t, "t1", tenantID)
	assert.Equal(t, entity.RoleVendedor, role)

	_, err = uc.SignIn(ctx, dto.SignInRequest{Email: "ana@tienda.co", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.SignIn(ctx, dto.SignInRequest{Email: "nadie@tienda.co", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSignIn_UsuarioDeshabilitado(t *testing.T) {
	store := apptest.NewStore()
	uc := newAuth(store, nil)
	up, err := uc.SignUp(context.Background(), dto.SignUpRequest{Email: "b@t.co", Password: "supersecreta", FullName: "B"})
	require.NoError(t, err)

	u, err := store.Repos().AuthUsers.GetByID(context.Background(), up.User.ID)
	require.NoError(t, err)
	u.Status = entity.UserStatusDisabled
	store.SeedAuthUser(*u)

	_, err = uc.SignIn(context.Background(), dto.SignInRequest{Email: "b@t.co", Password: "supersecreta"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSignOut_RevocaHastaVencimiento(t *testing.T) {
	store := apptest.NewStore()
	bl := &mockBlacklist{}
	bl.On("Revoke", mock.Anything, "jti-1", mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 29*time.Minute && ttl <= 30*time.Minute
	})).Return(nil)
	uc := newAuth(store, bl)

	token, err := issuer.Issue("u1", "t1", "admin")
	require.NoError(t, err)
	claims, err := jwt.ParseClaims("secret", token)
	require.NoError(t, err)
	claims.ID = "jti-1"

	require.NoError(t, uc.SignOut(context.Background(), claims))
	bl.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	store := apptest.NewStore()
	uc := newAuth(store, nil)
	_, err := uc.Me(context.Background(), "nadie", "", "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
