package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

type middlewareFixture struct {
	app      *fiber.App
	tokens   *TokenManager
	store    *repository.MemoryStore
	employee *domain.User
	manager  *domain.User
}

func newMiddlewareFixture(t *testing.T) middlewareFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()

	manager := &domain.User{Name: "Manager", Email: "m@example.com", Role: domain.RoleManager}
	require.NoError(t, store.Users().Create(ctx, manager))
	employee := &domain.User{Name: "Employee", Email: "e@example.com", Role: domain.RoleEmployee, ManagerID: &manager.ID}
	require.NoError(t, store.Users().Create(ctx, employee))

	tokens := NewTokenManager("secret", 60)
	mw := NewAuthMiddleware(tokens, store.Users(), store.Blocklist(), nil)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Message)
		},
	})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		return c.SendString(principal.User.ID)
	})
	app.Get("/managers-only", mw.Handle, RequireRole(domain.RoleManager), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	return middlewareFixture{app: app, tokens: tokens, store: store, employee: employee, manager: manager}
}

func (f middlewareFixture) do(t *testing.T, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	f := newMiddlewareFixture(t)

	t.Run("missing header", func(t *testing.T) {
		resp := f.do(t, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		resp := f.do(t, "/me", "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		resp := f.do(t, "/me", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := f.tokens.GenerateToken(f.employee.ID)
		require.NoError(t, err)
		resp := f.do(t, "/me", "Bearer "+token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("token for unknown user", func(t *testing.T) {
		token, _, err := f.tokens.GenerateToken("00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		resp := f.do(t, "/me", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("revoked token", func(t *testing.T) {
		token, _, err := f.tokens.GenerateToken(f.employee.ID)
		require.NoError(t, err)
		claims, err := f.tokens.ParseToken(token)
		require.NoError(t, err)
		require.NoError(t, f.store.Blocklist().Revoke(context.Background(), claims.ID, time.Hour))

		resp := f.do(t, "/me", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequireRole(t *testing.T) {
	f := newMiddlewareFixture(t)

	employeeToken, _, err := f.tokens.GenerateToken(f.employee.ID)
	require.NoError(t, err)
	managerToken, _, err := f.tokens.GenerateToken(f.manager.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, f.do(t, "/managers-only", "Bearer "+employeeToken).StatusCode)
	assert.Equal(t, http.StatusNoContent, f.do(t, "/managers-only", "Bearer "+managerToken).StatusCode)
}
