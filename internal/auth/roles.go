package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/domain"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

// RequireRole admits only principals whose role is in allowed.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("No token provided. Please authenticate.")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("You do not have permission to perform this action.")
		}
		return c.Next()
	}
}
