package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/dto"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/service"
)

// UsersHandler serves the user directory.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Users retrieved successfully", fiber.Map{"users": dto.NewUserList(users)}))
}

// Managers GET /users/managers.
func (h *UsersHandler) Managers(c *fiber.Ctx) error {
	managers, err := h.users.ListByRole(c.UserContext(), domain.RoleManager)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Managers retrieved successfully", fiber.Map{"managers": dto.NewUserList(managers)}))
}

// Employees GET /users/role/employees.
func (h *UsersHandler) Employees(c *fiber.Ctx) error {
	employees, err := h.users.ListByRole(c.UserContext(), domain.RoleEmployee)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Employees retrieved successfully", fiber.Map{"employees": dto.NewUserList(employees)}))
}

// MyEmployees GET /users/manager/my-employees.
func (h *UsersHandler) MyEmployees(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	employees, err := h.users.ListTeam(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Your employees retrieved successfully", fiber.Map{"employees": dto.NewUserList(employees)}))
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := requireUUIDParam(c, "id", "User ID")
	if err != nil {
		return err
	}
	user, err := h.users.GetProfile(c.UserContext(), id, false)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("User retrieved successfully", fiber.Map{"user": dto.NewUserResponse(user)}))
}

// AssignManager PUT /users/:id/manager.
func (h *UsersHandler) AssignManager(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := requireUUIDParam(c, "id", "User ID")
	if err != nil {
		return err
	}
	var req dto.AssignManagerRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.AssignManager(c.UserContext(), principal.User, id, req.ManagerID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Manager updated successfully", fiber.Map{"user": dto.NewUserResponse(user)}))
}
