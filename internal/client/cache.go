package client

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/task-board/internal/api/dto"
	"github.com/spec-kit/task-board/internal/domain"
)

// Mutation is a staged optimistic change. Exactly one of Commit or Rollback
// must eventually be called: Commit settles the cache with the server's
// authoritative task, Rollback restores the pre-mutation state.
type Mutation struct {
	OpID     string
	Commit   func(final *dto.TaskResponse)
	Rollback func()
}

// TaskCache holds the local ordered copy of the task list plus the set of
// in-flight optimistic operations. All derived views read from it; no
// additional requests are needed.
type TaskCache struct {
	mu      sync.Mutex
	tasks   []dto.TaskResponse
	pending map[string]struct{}
}

// NewTaskCache builds an empty cache.
func NewTaskCache() *TaskCache {
	return &TaskCache{pending: make(map[string]struct{})}
}

// Replace resynchronizes the cache from an authoritative fetch.
func (c *TaskCache) Replace(tasks []dto.TaskResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append([]dto.TaskResponse(nil), tasks...)
}

// Tasks returns a copy of the cached list in order.
func (c *TaskCache) Tasks() []dto.TaskResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]dto.TaskResponse(nil), c.tasks...)
}

// PendingOps reports how many optimistic operations are unsettled.
func (c *TaskCache) PendingOps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// StageCreate prepends a placeholder task so the UI reflects the creation
// before the round trip completes.
func (c *TaskCache) StageCreate(title, description string, assignee domain.UserSummary) Mutation {
	opID := uuid.NewString()
	tempID := "pending-" + opID

	c.mu.Lock()
	defer c.mu.Unlock()
	placeholder := dto.TaskResponse{
		ID:           tempID,
		Title:        title,
		Description:  description,
		Status:       domain.TaskStatusPending,
		AssignedUser: assignee,
	}
	c.tasks = append([]dto.TaskResponse{placeholder}, c.tasks...)
	c.pending[opID] = struct{}{}

	return Mutation{
		OpID: opID,
		Commit: func(final *dto.TaskResponse) {
			c.settle(opID, func() {
				if i := c.indexOf(tempID); i >= 0 {
					c.tasks[i] = *final
				}
			})
		},
		Rollback: func() {
			c.settle(opID, func() {
				if i := c.indexOf(tempID); i >= 0 {
					c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
				}
			})
		},
	}
}

// StageStatus flips the cached status in place.
func (c *TaskCache) StageStatus(taskID string, newStatus domain.TaskStatus) Mutation {
	opID := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	var oldStatus domain.TaskStatus
	if i := c.indexOf(taskID); i >= 0 {
		oldStatus = c.tasks[i].Status
		c.tasks[i].Status = newStatus
	}
	c.pending[opID] = struct{}{}

	return Mutation{
		OpID: opID,
		Commit: func(final *dto.TaskResponse) {
			c.settle(opID, func() {
				if i := c.indexOf(taskID); i >= 0 {
					c.tasks[i] = *final
				}
			})
		},
		Rollback: func() {
			c.settle(opID, func() {
				if i := c.indexOf(taskID); i >= 0 {
					c.tasks[i].Status = oldStatus
				}
			})
		},
	}
}

// StageUpdate patches title/description in place.
func (c *TaskCache) StageUpdate(taskID string, title, description *string) Mutation {
	opID := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	var before dto.TaskResponse
	if i := c.indexOf(taskID); i >= 0 {
		before = c.tasks[i]
		if title != nil {
			c.tasks[i].Title = *title
		}
		if description != nil {
			c.tasks[i].Description = *description
		}
	}
	c.pending[opID] = struct{}{}

	return Mutation{
		OpID: opID,
		Commit: func(final *dto.TaskResponse) {
			c.settle(opID, func() {
				if i := c.indexOf(taskID); i >= 0 {
					c.tasks[i] = *final
				}
			})
		},
		Rollback: func() {
			c.settle(opID, func() {
				if i := c.indexOf(taskID); i >= 0 {
					c.tasks[i] = before
				}
			})
		},
	}
}

// StageDelete removes the task, remembering its position for rollback.
func (c *TaskCache) StageDelete(taskID string) Mutation {
	opID := uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()
	var removed dto.TaskResponse
	removedAt := -1
	if i := c.indexOf(taskID); i >= 0 {
		removed = c.tasks[i]
		removedAt = i
		c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	}
	c.pending[opID] = struct{}{}

	return Mutation{
		OpID: opID,
		Commit: func(_ *dto.TaskResponse) {
			c.settle(opID, nil)
		},
		Rollback: func() {
			c.settle(opID, func() {
				if removedAt < 0 {
					return
				}
				at := removedAt
				if at > len(c.tasks) {
					at = len(c.tasks)
				}
				c.tasks = append(c.tasks[:at], append([]dto.TaskResponse{removed}, c.tasks[at:]...)...)
			})
		},
	}
}

func (c *TaskCache) settle(opID string, apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[opID]; !ok {
		return
	}
	delete(c.pending, opID)
	if apply != nil {
		apply()
	}
}

// indexOf requires c.mu held.
func (c *TaskCache) indexOf(taskID string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}
