package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-board/internal/api/dto"
	"github.com/spec-kit/task-board/internal/auth"
	"github.com/spec-kit/task-board/internal/domain"
	"github.com/spec-kit/task-board/internal/service"
	apperrors "github.com/spec-kit/task-board/pkg/util"
)

// TasksHandler exposes task CRUD and status transitions.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: taskService}
}

// Create handles POST /tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.tasks.Create(c.UserContext(), principal.User.ID, service.TaskCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.TaskMutationResponse{
		Message: "Task created successfully",
		Task:    dto.NewTaskResponse(*view),
	})
}

// ListAll handles GET /tasks.
func (h *TasksHandler) ListAll(c *fiber.Ctx) error {
	views, err := h.tasks.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTaskResponses(views))
}

// ListByUser handles GET /tasks/user/:userId.
func (h *TasksHandler) ListByUser(c *fiber.Ctx) error {
	views, err := h.tasks.ListByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTaskResponses(views))
}

// ListMine handles GET /tasks/my-tasks.
func (h *TasksHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	views, err := h.tasks.ListMine(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTaskResponses(views))
}

// UpdateStatus handles PATCH /tasks/:taskId/status.
func (h *TasksHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.tasks.UpdateStatus(c.UserContext(), principal.User.ID, c.Params("taskId"), domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(dto.TaskMutationResponse{
		Message: "Task status updated successfully",
		Task:    dto.NewTaskResponse(*view),
	})
}

// Update handles PUT /tasks/:taskId.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.tasks.Update(c.UserContext(), principal.User.ID, c.Params("taskId"), service.TaskUpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(dto.TaskMutationResponse{
		Message: "Task updated successfully",
		Task:    dto.NewTaskResponse(*view),
	})
}

// Delete handles DELETE /tasks/:taskId.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.tasks.Delete(c.UserContext(), principal.User.ID, c.Params("taskId")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Task deleted successfully"})
}
