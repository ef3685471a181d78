package client

import (
	"github.com/spec-kit/task-board/internal/api/dto"
	"github.com/spec-kit/task-board/internal/domain"
)

// Filter selects a derived view over the cached task list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterMine      Filter = "my-tasks"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Counts are the dashboard aggregates, derived purely from the cache.
type Counts struct {
	Total     int
	Mine      int
	Pending   int
	Completed int
}

// Filtered returns the cached tasks matching the filter. userID scopes the
// "mine" view.
func (c *TaskCache) Filtered(filter Filter, userID string) []dto.TaskResponse {
	tasks := c.Tasks()
	out := make([]dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		switch filter {
		case FilterMine:
			if task.AssignedUser.ID != userID {
				continue
			}
		case FilterPending:
			if task.Status != domain.TaskStatusPending {
				continue
			}
		case FilterCompleted:
			if task.Status != domain.TaskStatusCompleted {
				continue
			}
		}
		out = append(out, task)
	}
	return out
}

// Counts computes the aggregates in one pass.
func (c *TaskCache) Counts(userID string) Counts {
	counts := Counts{}
	for _, task := range c.Tasks() {
		counts.Total++
		if task.AssignedUser.ID == userID {
			counts.Mine++
		}
		switch task.Status {
		case domain.TaskStatusPending:
			counts.Pending++
		case domain.TaskStatusCompleted:
			counts.Completed++
		}
	}
	return counts
}
