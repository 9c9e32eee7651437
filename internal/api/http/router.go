package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Directory      *handlers.DirectoryHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *auth.IPRateLimiter
	Gatherer       prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	login := []fiber.Handler{cfg.Users.Login}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter.Handler()}, login...)
	}
	app.Post("/auth/login", login...)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.ListAll)
	tickets.Get("/client/:clientId", cfg.Tickets.ListByClient)
	tickets.Get("/technician/:technicianId", cfg.Tickets.ListByTechnician)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)

	categories := protected.Group("/categories")
	categories.Post("/", cfg.Directory.CreateCategory)
	categories.Get("/", cfg.Directory.ListCategories)
	categories.Get("/:id", cfg.Directory.GetCategory)
	categories.Patch("/:id", cfg.Directory.UpdateCategory)
	categories.Delete("/:id", cfg.Directory.DeleteCategory)

	clients := protected.Group("/clients")
	clients.Post("/", cfg.Directory.CreateClient)
	clients.Get("/", cfg.Directory.ListClients)
	clients.Get("/:id", cfg.Directory.GetClient)
	clients.Patch("/:id", cfg.Directory.UpdateClient)
	clients.Delete("/:id", cfg.Directory.DeleteClient)

	technicians := protected.Group("/technicians")
	technicians.Post("/", cfg.Directory.CreateTechnician)
	technicians.Get("/", cfg.Directory.ListTechnicians)
	technicians.Get("/:id", cfg.Directory.GetTechnician)
	technicians.Patch("/:id", cfg.Directory.UpdateTechnician)
	technicians.Delete("/:id", cfg.Directory.DeleteTechnician)

	users := protected.Group("/users")
	users.Post("/", cfg.Users.Create)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Delete("/:id", cfg.Users.Delete)
}
