package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/api/http/handlers"
	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Ops            *handlers.OpsHandler
	Transfers      *handlers.TransfersHandler
	Handover       *handlers.HandoverHandler
	Directory      *handlers.DirectoryHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Ops.Metrics)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	transfers := api.Group("/transfers")
	transfers.Get("", cfg.Transfers.List)
	transfers.Get("/summary", cfg.Transfers.Summary)
	transfers.Post("", cfg.Transfers.Create)
	transfers.Get("/:id", cfg.Transfers.Get)
	transfers.Put("/:id", cfg.Transfers.Update)
	transfers.Delete("/:id", cfg.Transfers.Delete)
	transfers.Post("/:id/submit", cfg.Transfers.Submit)
	transfers.Post("/:id/approve-source", cfg.Transfers.ApproveSource)
	transfers.Post("/:id/approve-target", cfg.Transfers.ApproveTarget)
	transfers.Post("/:id/reject", cfg.Transfers.Reject)
	transfers.Post("/:id/complete", cfg.Transfers.Complete)
	transfers.Post("/:id/cancel", cfg.Transfers.Cancel)

	transfers.Get("/:id/handover-items", cfg.Handover.List)
	transfers.Post("/:id/handover-items", cfg.Handover.Add)
	transfers.Post("/:id/handover-items/:itemId/complete", cfg.Handover.Complete)

	dir := api.Group("/directory")
	dir.Get("/tenants", cfg.Directory.Tenants)
	dir.Get("/tenants/:id/departments", cfg.Directory.Departments)
	dir.Get("/tenants/:id/positions", cfg.Directory.Positions)
	dir.Get("/tenants/:id/grades", cfg.Directory.Grades)

	admin := api.Group("/admin", auth.RequireRole(domain.CallerRoleSystem))
	admin.Post("/completion-sweep", cfg.Ops.RunCompletionSweep)
}
