package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

// UserService serves user directory reads and manager assignment.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger.Named("user.service")}
}

// ListAll returns every user ordered by name.
func (s *UserService) ListAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListByRole returns users holding role ordered by name.
func (s *UserService) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{Role: &role})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListTeam returns the direct reports of managerID.
func (s *UserService) ListTeam(ctx context.Context, managerID string) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{ManagerID: &managerID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetProfile loads a user with its manager and, optionally, its direct reports.
func (s *UserService) GetProfile(ctx context.Context, id string, withEmployees bool) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if user.ManagerID != nil {
		manager, err := s.users.GetByID(ctx, *user.ManagerID)
		switch {
		case err == nil:
			summary := manager.Summary()
			user.Manager = &summary
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.MapError(err)
		}
	}

	if withEmployees {
		team, err := s.ListTeam(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		user.Employees = make([]domain.UserSummary, 0, len(team))
		for i := range team {
			user.Employees = append(user.Employees, team[i].Summary())
		}
	}
	return user, nil
}

// AssignManager points an employee at a new manager, or clears it when managerID is nil.
// Only the employee's current manager may reassign them; unmanaged employees may be claimed by any manager.
func (s *UserService) AssignManager(ctx context.Context, actor *domain.User, employeeID string, managerID *string) (*domain.User, error) {
	employee, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User", map[string]any{"user_id": employeeID})
		}
		return nil, apperrors.MapError(err)
	}
	if employee.Role != domain.RoleEmployee {
		return nil, apperrors.NewValidationError("Only employees can be assigned a manager", nil)
	}
	if employee.ManagerID != nil && *employee.ManagerID != actor.ID {
		return nil, apperrors.NewForbidden("Only the employee's current manager can reassign them")
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

	if err := s.users.UpdateManager(ctx, employeeID, managerID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("Manager reassigned",
		zap.String("employee_id", employeeID),
		zap.Stringp("manager_id", managerID),
		zap.String("actor_id", actor.ID))
	return s.GetProfile(ctx, employeeID, false)
}
