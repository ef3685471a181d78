package client

import (
	"context"
	"errors"
	"sync"

	"github.com/spec-kit/task-board/internal/api/dto"
	"github.com/spec-kit/task-board/internal/domain"
)

// ErrMutationInFlight is returned when an action is re-entered before the
// previous call settled.
var ErrMutationInFlight = errors.New("mutation already in flight")

// Board is the application state behind the dashboard: the optimistic task
// cache, the authenticated user, and a per-action in-flight guard. Mutations
// patch the cache before the round trip completes; on error the patch is
// rolled back and the authoritative list is re-fetched.
type Board struct {
	api   *Client
	cache *TaskCache
	user  domain.UserSummary

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewBoard builds a board for the authenticated user.
func NewBoard(api *Client, user domain.UserSummary) *Board {
	return &Board{
		api:      api,
		cache:    NewTaskCache(),
		user:     user,
		inFlight: make(map[string]bool),
	}
}

// Cache exposes the underlying task cache for views and counts.
func (b *Board) Cache() *TaskCache {
	return b.cache
}

// User returns the authenticated user.
func (b *Board) User() domain.UserSummary {
	return b.user
}

// Load resynchronizes the cache from the server.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.api.Tasks(ctx)
	if err != nil {
		return err
	}
	b.cache.Replace(tasks)
	return nil
}

// CreateTask optimistically adds the task, then settles with the server copy.
func (b *Board) CreateTask(ctx context.Context, title, description string, assignee domain.UserSummary) error {
	release, err := b.begin("create")
	if err != nil {
		return err
	}
	defer release()

	mutation := b.cache.StageCreate(title, description, assignee)
	created, err := b.api.CreateTask(ctx, dto.CreateTaskRequest{
		Title:          title,
		Description:    description,
		AssignedUserID: assignee.ID,
	})
	if err != nil {
		mutation.Rollback()
		b.resync(ctx)
		return err
	}
	mutation.Commit(&created)
	return nil
}

// ToggleStatus computes the opposite status locally and sends it; the server
// sets exactly what was sent.
func (b *Board) ToggleStatus(ctx context.Context, task dto.TaskResponse) error {
	release, err := b.begin("status:" + task.ID)
	if err != nil {
		return err
	}
	defer release()

	newStatus := domain.TaskStatusCompleted
	if task.Status == domain.TaskStatusCompleted {
		newStatus = domain.TaskStatusPending
	}

	mutation := b.cache.StageStatus(task.ID, newStatus)
	updated, err := b.api.UpdateTaskStatus(ctx, task.ID, newStatus)
	if err != nil {
		mutation.Rollback()
		b.resync(ctx)
		return err
	}
	mutation.Commit(&updated)
	return nil
}

// EditTask optimistically patches title/description.
func (b *Board) EditTask(ctx context.Context, taskID string, title, description *string) error {
	release, err := b.begin("edit:" + taskID)
	if err != nil {
		return err
	}
	defer release()

	mutation := b.cache.StageUpdate(taskID, title, description)
	updated, err := b.api.UpdateTask(ctx, taskID, dto.UpdateTaskRequest{
		Title:       title,
		Description: description,
	})
	if err != nil {
		mutation.Rollback()
		b.resync(ctx)
		return err
	}
	mutation.Commit(&updated)
	return nil
}

// DeleteTask optimistically removes the task.
func (b *Board) DeleteTask(ctx context.Context, taskID string) error {
	release, err := b.begin("delete:" + taskID)
	if err != nil {
		return err
	}
	defer release()

	mutation := b.cache.StageDelete(taskID)
	if err := b.api.DeleteTask(ctx, taskID); err != nil {
		mutation.Rollback()
		b.resync(ctx)
		return err
	}
	mutation.Commit(nil)
	return nil
}

// begin acquires the per-action guard. The returned release runs in a defer
// so the flag clears regardless of outcome.
func (b *Board) begin(key string) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight[key] {
		return nil, ErrMutationInFlight
	}
	b.inFlight[key] = true
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.inFlight, key)
	}, nil
}

// resync restores consistency after a failed mutation. A failed re-fetch
// leaves the rolled-back cache in place.
func (b *Board) resync(ctx context.Context) {
	if tasks, err := b.api.Tasks(ctx); err == nil {
		b.cache.Replace(tasks)
	}
}
