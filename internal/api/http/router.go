package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/api/http/handlers"
	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimit      fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
		app.Get("/health/metrics", cfg.Health.Metrics)
	}

	throttle := cfg.RateLimit
	if throttle == nil {
		throttle = func(c *fiber.Ctx) error { return c.Next() }
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", throttle, cfg.Auth.Register)
	authGroup.Post("/login", throttle, cfg.Auth.Login)
	authGroup.Get("/refresh-token", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	authGroup.Get("/google", cfg.Auth.GoogleStart)
	authGroup.Get("/google/callback", cfg.Auth.GoogleCallback)

	authGroup.Put("/update-role", cfg.AuthMiddleware.Any(), cfg.Auth.UpdateRole)
	authGroup.Get("/me", cfg.AuthMiddleware.Any(), auth.RequireRoles(domain.Roles()...), cfg.Auth.Me)

	authGroup.Get("/student/session", cfg.AuthMiddleware.RequireRole(domain.RoleStudent), cfg.Auth.Session)
	authGroup.Get("/instructor/session", cfg.AuthMiddleware.RequireRole(domain.RoleInstructor), cfg.Auth.Session)
}
