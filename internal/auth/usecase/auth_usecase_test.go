package usecase

import (
	"context"
	"testing"
	"time"

	authdomain "ticktask-backend/internal/auth/domain"
	authdto "ticktask-backend/internal/auth/dto"
	"ticktask-backend/internal/auth/repository"
	identitydomain "ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/testutil"
	"ticktask-backend/internal/visibility"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixedRoles struct {
	role identitydomain.Role
}

func (f fixedRoles) ResolveRole(context.Context, *authdomain.User) (identitydomain.Role, error) {
	return f.role, nil
}

type fixedScope struct {
	scope visibility.Scope
}

func (f fixedScope) TaskScope(context.Context, *authdomain.User) (visibility.Scope, error) {
	return f.scope, nil
}

func newAuth(t *testing.T, scope visibility.Scope) (AuthUsecase, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
	uc := NewAuthUsecase(
		repository.NewUserRepository(db),
		repository.NewFCMTokenRepository(db),
		fixedRoles{role: identitydomain.RoleLeader},
		fixedScope{scope: scope},
		cfg,
		testutil.Logger(),
	)
	return uc, db
}

func TestRegister_CreatesProfile(t *testing.T) {
	uc, db := newAuth(t, visibility.Everything())
	ctx := context.Background()

	resp, err := uc.Register(ctx, &authdto.RegisterRequest{Username: "anna", Email: "anna@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	var profile identitydomain.RoleProfile
	require.NoError(t, db.First(&profile, "user_id = ?", resp.User.ID).Error)
	assert.Equal(t, identitydomain.RoleMember, profile.Role)

	_, err = uc.Register(ctx, &authdto.RegisterRequest{Username: "anna", Password: "secret2"})
	assert.True(t, apperror.Is(err, apperror.CodeConflict))
}

func TestLoginAndTokens(t *testing.T) {
	uc, _ := newAuth(t, visibility.Everything())
	ctx := context.Background()

	_, err := uc.Register(ctx, &authdto.RegisterRequest{Username: "anna", Password: "secret1"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, &authdto.LoginRequest{Username: "anna", Password: "wrong"})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	resp, err := uc.Login(ctx, &authdto.LoginRequest{Username: "anna", Password: "secret1"})
	require.NoError(t, err)

	user, err := uc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "anna", user.Username)

	_, err = uc.ValidateToken(ctx, resp.RefreshToken)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	refreshed, err := uc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	_, err = uc.RefreshToken(ctx, resp.RefreshToken)
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized), "rotated token must not be reusable")

	require.NoError(t, uc.Logout(ctx, refreshed.RefreshToken))
	_, err = uc.RefreshToken(ctx, refreshed.RefreshToken)
	assert.Error(t, err)
}

func TestMe(t *testing.T) {
	uc, db := newAuth(t, visibility.Everything())
	u := testutil.CreateUser(t, db, "lena", identitydomain.RoleMember)

	me, err := uc.Me(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, identitydomain.RoleLeader, me.Role)
	assert.Equal(t, "lena", me.Username)
}

func TestListUsers_ScopedAndSearched(t *testing.T) {
	db := testutil.NewDB(t)
	anna := testutil.CreateUser(t, db, "anna", identitydomain.RoleMember)
	hanna := testutil.CreateUser(t, db, "hanna", identitydomain.RoleMember)
	piotr := testutil.CreateUser(t, db, "piotr", identitydomain.RoleMember)

	uc := NewAuthUsecase(repository.NewUserRepository(db), repository.NewFCMTokenRepository(db),
		fixedRoles{role: identitydomain.RoleLeader}, fixedScope{scope: visibility.Only(anna.ID, hanna.ID)},
		&config.Config{JWTSecret: "x"}, testutil.Logger())
	ctx := context.Background()

	users, err := uc.ListUsers(ctx, anna, "")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "anna", users[0].Username)
	assert.Equal(t, "hanna", users[1].Username)

	users, err = uc.ListUsers(ctx, anna, "han")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, hanna.ID, users[0].ID)

	users, err = uc.ListUsers(ctx, anna, "piotr")
	require.NoError(t, err)
	assert.Empty(t, users, "%s is out of scope", piotr.Username)
}

func TestFCMTokens(t *testing.T) {
	uc, db := newAuth(t, visibility.Everything())
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "anna", identitydomain.RoleMember)

	require.NoError(t, uc.RegisterFCMToken(ctx, u.ID, "tok-1", "pixel"))
	require.NoError(t, uc.RegisterFCMToken(ctx, u.ID, "tok-1", "pixel 8"))

	tokens, err := repository.NewFCMTokenRepository(db).GetTokensByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "pixel 8", tokens[0].DeviceInfo)

	require.NoError(t, uc.UnregisterFCMToken(ctx, "tok-1"))
	tokens, err = repository.NewFCMTokenRepository(db).GetTokensByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
