package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/dto"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/service"
)

// RequestsHandler exposes the request lifecycle.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRequestRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	created, err := h.service.Create(c.UserContext(), principal.User, service.RequestCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Request created successfully", fiber.Map{"request": dto.NewRequestResponse(created)}))
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	requests, err := h.service.List(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Requests retrieved successfully", fiber.Map{"requests": dto.NewRequestList(requests)}))
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := requireUUIDParam(c, "id", "Request ID")
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Request retrieved successfully", fiber.Map{"request": dto.NewRequestResponse(req)}))
}

// History GET /requests/:id/history.
func (h *RequestsHandler) History(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := requireUUIDParam(c, "id", "Request ID")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Request history retrieved successfully", fiber.Map{"history": dto.NewHistoryList(entries)}))
}

// Approve PUT /requests/:id/approve.
func (h *RequestsHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, h.service.Approve, "Request approved successfully")
}

// Reject PUT /requests/:id/reject.
func (h *RequestsHandler) Reject(c *fiber.Ctx) error {
	return h.transition(c, h.service.Reject, "Request rejected successfully")
}

// Action PUT /requests/:id/action.
func (h *RequestsHandler) Action(c *fiber.Ctx) error {
	return h.transition(c, h.service.Start, "Request actioned successfully")
}

// Close PUT /requests/:id/close.
func (h *RequestsHandler) Close(c *fiber.Ctx) error {
	return h.transition(c, h.service.Close, "Request closed successfully")
}

type transitionFunc func(ctx context.Context, actor *domain.User, id string) (*domain.Request, error)

func (h *RequestsHandler) transition(c *fiber.Ctx, apply transitionFunc, message string) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := requireUUIDParam(c, "id", "Request ID")
	if err != nil {
		return err
	}
	updated, err := apply(c.UserContext(), principal.User, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(message, fiber.Map{"request": dto.NewRequestResponse(updated)}))
}
