package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-board/internal/api/http/handlers"
	"github.com/spec-kit/task-board/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tasks          *handlers.TasksHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Every task route sits behind the bearer
// token gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Get("/users", cfg.Auth.ListUsers)
	authProtected.Delete("/users/:userId", cfg.Auth.DeleteUser)

	tasks := app.Group("/tasks", cfg.AuthMiddleware.Handle)
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Get("/", cfg.Tasks.ListAll)
	tasks.Get("/my-tasks", cfg.Tasks.ListMine)
	tasks.Get("/user/:userId", cfg.Tasks.ListByUser)
	tasks.Patch("/:taskId/status", cfg.Tasks.UpdateStatus)
	tasks.Put("/:taskId", cfg.Tasks.Update)
	tasks.Delete("/:taskId", cfg.Tasks.Delete)
}
