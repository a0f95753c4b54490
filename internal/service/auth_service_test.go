package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-service/internal/auth"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/repository"
)

func newAuthService(tm team) *AuthService {
	return NewAuthService(testConfig(), AuthDependencies{
		UserRepo:  tm.store.Users(),
		Blocklist: tm.store.Blocklist(),
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	tm := newTeam(t)
	svc := newAuthService(tm)

	session, err := svc.Register(ctx, RegisterInput{
		Email:     "  New.Person@Example.com ",
		Password:  "secret1",
		Name:      "New Person",
		Role:      domain.RoleEmployee,
		ManagerID: &tm.m.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.person@example.com", session.User.Email)
	assert.Equal(t, tm.m.ID, *session.User.ManagerID)
	assert.NotEmpty(t, session.Token)
	assert.NotEqual(t, "secret1", session.User.PasswordHash)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	tm := newTeam(t)
	svc := newAuthService(tm)

	input := RegisterInput{Email: "dup@example.com", Password: "secret1", Name: "Dup", Role: domain.RoleEmployee}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, err = svc.Register(ctx, input)
	de := assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "User with this email already exists", de.Message)
}

func TestRegisterManagerChecks(t *testing.T) {
	ctx := context.Background()
	tm := newTeam(t)
	svc := newAuthService(tm)

	missing := "00000000-0000-0000-0000-000000000000"
	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1", Name: "Aa", Role: domain.RoleEmployee, ManagerID: &missing})
	de := assertStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Manager not found", de.Message)

	_, err = svc.Register(ctx, RegisterInput{Email: "b@example.com", Password: "secret1", Name: "Bb", Role: domain.RoleEmployee, ManagerID: &tm.e1.ID})
	de = assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Assigned manager must have MANAGER role", de.Message)

	session, err := svc.Register(ctx, RegisterInput{Email: "c@example.com", Password: "secret1", Name: "Cc", Role: domain.RoleManager, ManagerID: &tm.m.ID})
	require.NoError(t, err)
	assert.Nil(t, session.User.ManagerID)

	empty := ""
	session, err = svc.Register(ctx, RegisterInput{Email: "d@example.com", Password: "secret1", Name: "Dd", Role: domain.RoleEmployee, ManagerID: &empty})
	require.NoError(t, err)
	assert.Nil(t, session.User.ManagerID)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	tm := newTeam(t)
	svc := newAuthService(tm)

	_, err := svc.Register(ctx, RegisterInput{Email: "login@example.com", Password: "password123", Name: "Login", Role: domain.RoleEmployee})
	require.NoError(t, err)

	session, err := svc.Login(ctx, "LOGIN@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", session.User.Email)

	_, err = svc.Login(ctx, "login@example.com", "wrong")
	de := assertStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, "Invalid email or password", de.Message)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	de = assertStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, "Invalid email or password", de.Message)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	tm := newTeam(t)
	svc := newAuthService(tm)

	token, exp, err := svc.TokenManager().GenerateToken(tm.e1.ID)
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)

	principal := &auth.Principal{User: tm.e1, TokenID: claims.ID, ExpiresAt: exp}
	require.NoError(t, svc.Logout(ctx, principal))

	revoked, err := tm.store.Blocklist().IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

type fakeUserRepository struct {
	repository.UserRepository
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (f fakeUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return f.getByEmailFn(ctx, email)
}

func TestLoginStorageFailureIsInternal(t *testing.T) {
	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo: fakeUserRepository{getByEmailFn: func(context.Context, string) (*domain.User, error) {
			return nil, errors.New("connection reset")
		}},
	})

	_, err := svc.Login(context.Background(), "x@example.com", "pw")
	assertStatus(t, err, http.StatusInternalServerError)
}

type failingBlocklist struct{}

func (failingBlocklist) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingBlocklist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

func TestLogoutBlocklistFailure(t *testing.T) {
	tm := newTeam(t)
	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: tm.store.Users(), Blocklist: failingBlocklist{}})

	err := svc.Logout(context.Background(), &auth.Principal{User: tm.e1, TokenID: "jti", ExpiresAt: time.Now().Add(time.Hour)})
	assertStatus(t, err, http.StatusInternalServerError)
}
