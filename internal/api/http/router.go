package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/http/handlers"
	"github.com/spec-kit/request-service/internal/auth"
	"github.com/spec-kit/request-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    *IPRateLimiter
	StaticDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	authed := cfg.AuthMiddleware.Handle
	managerOnly := auth.RequireRole(domain.RoleManager)

	authGroup := app.Group("/auth")
	if cfg.AuthLimiter != nil {
		limited := RateLimitByIP(cfg.AuthLimiter)
		authGroup.Post("/register", limited, cfg.Auth.Register)
		authGroup.Post("/login", limited, cfg.Auth.Login)
	} else {
		authGroup.Post("/register", cfg.Auth.Register)
		authGroup.Post("/login", cfg.Auth.Login)
	}
	authGroup.Get("/me", authed, cfg.Auth.Me)
	authGroup.Post("/logout", authed, cfg.Auth.Logout)

	requests := app.Group("/requests", authed)
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Get("/:id/history", cfg.Requests.History)
	requests.Put("/:id/approve", cfg.Requests.Approve)
	requests.Put("/:id/reject", cfg.Requests.Reject)
	requests.Put("/:id/action", cfg.Requests.Action)
	requests.Put("/:id/close", cfg.Requests.Close)

	// literal segments must be registered ahead of /:id
	app.Get("/users/managers", cfg.Users.Managers)
	users := app.Group("/users", authed)
	users.Get("/", cfg.Users.List)
	users.Get("/role/employees", managerOnly, cfg.Users.Employees)
	users.Get("/manager/my-employees", managerOnly, cfg.Users.MyEmployees)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id/manager", managerOnly, cfg.Users.AssignManager)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
	app.Get("/", cfg.Health.Root)
	app.Use(handlers.NotFound)
}
