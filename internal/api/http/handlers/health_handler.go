package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/dto"
	"github.com/spec-kit/request-service/internal/observability"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

// Pinger is a dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewHealthHandler returns a new handler instance. Nil dependencies are reported as not configured.
func NewHealthHandler(serviceName, version string, deps map[string]Pinger, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, deps: deps, metrics: metrics, now: time.Now}
}

// Health GET /health.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Server is running",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.OK("alive", fiber.Map{
		"service": h.serviceName,
		"version": h.version,
	}))
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := map[string]any{}
	ready := true
	for name, dep := range h.deps {
		if dep == nil {
			depStatus[name] = "not configured"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
			continue
		}
		depStatus[name] = "ok"
	}

	if !ready {
		return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable", fiber.StatusServiceUnavailable, depStatus)
	}
	return c.JSON(dto.OK("ready", fiber.Map{"dependencies": depStatus}))
}

// Metrics GET /metrics.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(dto.OK("Metrics snapshot", h.metrics.Snapshot()))
}

// Root GET /.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Request Management API",
		"version": "1.0.0",
		"endpoints": fiber.Map{
			"auth":     "/auth",
			"requests": "/requests",
			"users":    "/users",
			"health":   "/health",
		},
	})
}

// NotFound renders the envelope for unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return apperrors.NewNotFoundMessage("Route " + c.OriginalURL() + " not found")
}
