package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/dto"
	"github.com/spec-kit/request-service/internal/auth"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/service"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{auth: authService, users: userService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Role:      domain.Role(req.Role),
		ManagerID: req.ManagerID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("User registered successfully", dto.NewAuthResponse(session)))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Login successful", dto.NewAuthResponse(session)))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetProfile(c.UserContext(), principal.User.ID, true)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("User profile retrieved", fiber.Map{"user": dto.NewUserResponse(user)}))
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.JSON(dto.OK("Logout successful", nil))
}

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("No token provided. Please authenticate.")
	}
	return principal, nil
}
