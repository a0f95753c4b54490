package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User      *domain.User
	TokenID   string
	ExpiresAt time.Time
}

// AuthMiddleware validates bearer tokens and reloads the caller from storage.
type AuthMiddleware struct {
	tokens    *TokenManager
	users     repository.UserRepository
	blocklist repository.TokenBlocklist
	logger    *zap.Logger
}

// NewAuthMiddleware constructs middleware. blocklist may be nil.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, blocklist repository.TokenBlocklist, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, users: users, blocklist: blocklist, logger: logger.Named("auth.middleware")}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("No token provided. Please authenticate.")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewUnauthorized("No token provided. Please authenticate.")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("Invalid or expired token. Please login again.")
	}

	ctx := c.UserContext()
	if m.blocklist != nil {
		revoked, err := m.blocklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			m.logger.Error("token revocation lookup failed", zap.Error(err))
			return apperrors.NewInternalError(err)
		}
		if revoked {
			return apperrors.NewUnauthorized("Invalid or expired token. Please login again.")
		}
	}

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("User not found. Please login again.")
		}
		return apperrors.MapError(err)
	}

	principal := &Principal{User: user, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}
