package domain

import "time"

// TaskStatus enumerates the two lifecycle states for tasks.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "Pending"
	TaskStatusCompleted TaskStatus = "Completed"
)

// Valid reports whether the status is one of the known values.
func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Task is the aggregate for tracked work items. AssignedUserID references
// exactly one user and is validated at creation time.
type Task struct {
	ID             string
	Title          string
	Description    string
	Status         TaskStatus
	AssignedUserID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
