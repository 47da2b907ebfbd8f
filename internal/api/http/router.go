package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/donor-registry/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Users  *handlers.UsersHandler
	Donors *handlers.DonorsHandler
	Import *handlers.ImportHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", cfg.Users.Register)
	users.Get("/", cfg.Users.List)
	users.Get("/lookup", cfg.Users.Lookup)

	api.Get("/donors", cfg.Donors.Search)
	api.Post("/import/local-storage", cfg.Import.LocalStorage)
}
