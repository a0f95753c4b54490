package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/request-service/internal/auth"
	"github.com/spec-kit/request-service/internal/config"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

const invalidCredentials = "Invalid email or password"

// AuthService coordinates registration, login and logout.
type AuthService struct {
	users      repository.UserRepository
	blocklist  repository.TokenBlocklist
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	Blocklist repository.TokenBlocklist
	Logger    *zap.Logger
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	Role      domain.Role
	ManagerID *string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		blocklist:  deps.Blocklist,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger.Named("auth.service"),
		now:        time.Now,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates an account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Session, error) {
	email := normalizeEmail(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicateEmail("User with this email already exists")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Role must be either EMPLOYEE or MANAGER", nil)
	}

	managerID := input.ManagerID
	if managerID != nil && *managerID == "" {
		managerID = nil
	}
	if managerID != nil {
		manager, err := s.users.GetByID(ctx, *managerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("Manager", map[string]any{"manager_id": *managerID})
			}
			return nil, apperrors.MapError(err)
		}
		if manager.Role != domain.RoleManager {
			return nil, apperrors.NewValidationError("Assigned manager must have MANAGER role", nil)
		}
	}
	if role != domain.RoleEmployee {
		managerID = nil
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ManagerID:    managerID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewDuplicateEmail("User with this email already exists")
		}
		return nil, apperrors.MapError(err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))
	return session, nil
}

// Login verifies credentials and signs a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized(invalidCredentials)
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return session, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil {
		return nil
	}
	if s.blocklist != nil {
		ttl := principal.ExpiresAt.Sub(s.now())
		if err := s.blocklist.Revoke(ctx, principal.TokenID, ttl); err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", principal.User.ID))
	return nil
}

func (s *AuthService) issue(user *domain.User) (*domain.Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
