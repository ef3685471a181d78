package dto

import (
	"time"

	"github.com/spec-kit/task-board/internal/domain"
	"github.com/spec-kit/task-board/internal/service"
)

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	AssignedUserID string `json:"assignedUserId"`
}

// UpdateTaskStatusRequest payload.
type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// UpdateTaskRequest carries the optional editable fields. Absent fields are
// left untouched; unknown fields are never merged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// TaskResponse is a task with its assignee joined in.
type TaskResponse struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Status       domain.TaskStatus  `json:"status"`
	AssignedUser domain.UserSummary `json:"assignedUser"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// TaskMutationResponse wraps mutations with an acknowledgement message.
type TaskMutationResponse struct {
	Message string       `json:"message"`
	Task    TaskResponse `json:"task"`
}

// NewTaskResponse converts a service view into the wire shape.
func NewTaskResponse(view service.TaskView) TaskResponse {
	return TaskResponse{
		ID:           view.Task.ID,
		Title:        view.Task.Title,
		Description:  view.Task.Description,
		Status:       view.Task.Status,
		AssignedUser: view.Assignee,
		CreatedAt:    view.Task.CreatedAt,
		UpdatedAt:    view.Task.UpdatedAt,
	}
}

// NewTaskResponses converts a list of views.
func NewTaskResponses(views []service.TaskView) []TaskResponse {
	out := make([]TaskResponse, 0, len(views))
	for _, view := range views {
		out = append(out, NewTaskResponse(view))
	}
	return out
}
