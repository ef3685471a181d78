package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spec-kit/task-board/internal/domain"
	"github.com/spec-kit/task-board/internal/events"
	"github.com/spec-kit/task-board/internal/repository"
	apperrors "github.com/spec-kit/task-board/pkg/util"
)

// TaskView is a task joined with its assignee's display data. The join is
// computed at response time and never stored.
type TaskView struct {
	Task     domain.Task
	Assignee domain.UserSummary
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Title          string
	Description    string
	AssignedUserID string
}

// TaskUpdateInput carries the only fields a general update may touch.
type TaskUpdateInput struct {
	Title       *string
	Description *string
}

// TaskService coordinates task workflows.
type TaskService struct {
	tasks      repository.TaskRepository
	directory  repository.UserDirectory
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TaskDependencies bundles repositories for the task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	UserRepo   repository.UserRepository
	Directory  repository.UserDirectory
	Dispatcher events.Dispatcher
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		users:      deps.UserRepo,
		directory:  deps.Directory,
		dispatcher: deps.Dispatcher,
	}
}

// Create persists a new task. Status is always Pending regardless of input,
// and the assignee must exist at creation time.
func (s *TaskService) Create(ctx context.Context, requesterID string, input TaskCreateInput) (*TaskView, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	fields := map[string]any{}
	if title == "" {
		fields["title"] = "title is required"
	}
	if description == "" {
		fields["description"] = "description is required"
	}
	if strings.TrimSpace(input.AssignedUserID) == "" {
		fields["assignedUserId"] = "assigned user id is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldErrors(fields)
	}

	if _, err := s.users.GetByID(ctx, input.AssignedUserID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewFieldErrors(map[string]any{"assignedUserId": "assigned user does not exist"})
		}
		return nil, apperrors.MapError(err)
	}

	task := &domain.Task{
		Title:          title,
		Description:    description,
		Status:         domain.TaskStatusPending,
		AssignedUserID: input.AssignedUserID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskCreated,
		TaskID:  task.ID,
		ActorID: requesterID,
		Payload: events.TaskCreatedPayload{
			Title:          task.Title,
			AssignedUserID: task.AssignedUserID,
		},
	})
	return s.joined(ctx, task)
}

// ListAll returns every task, most recently created first.
func (s *TaskService) ListAll(ctx context.Context) ([]TaskView, error) {
	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.joinAll(ctx, tasks)
}

// ListByUser returns tasks assigned to the given user, newest first.
func (s *TaskService) ListByUser(ctx context.Context, userID string) ([]TaskView, error) {
	tasks, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.joinAll(ctx, tasks)
}

// ListMine returns the requester's own tasks.
func (s *TaskService) ListMine(ctx context.Context, requesterID string) ([]TaskView, error) {
	return s.ListByUser(ctx, requesterID)
}

// UpdateStatus sets the task status to exactly what was sent; the server
// never computes a toggle. Only the assignee may change status.
func (s *TaskService) UpdateStatus(ctx context.Context, requesterID, taskID string, newStatus domain.TaskStatus) (*TaskView, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewFieldErrors(map[string]any{"status": "status must be Pending or Completed"})
	}

	task, err := s.getOwned(ctx, requesterID, taskID)
	if err != nil {
		return nil, err
	}

	oldStatus := task.Status
	task.Status = newStatus
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskStatusChanged,
		TaskID:  task.ID,
		ActorID: requesterID,
		Payload: events.TaskStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return s.joined(ctx, task)
}

// Update merges the optional fields onto the task. Present fields must be
// non-empty after trimming. Only the assignee may edit.
func (s *TaskService) Update(ctx context.Context, requesterID, taskID string, input TaskUpdateInput) (*TaskView, error) {
	fields := map[string]any{}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		fields["title"] = "title cannot be empty"
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		fields["description"] = "description cannot be empty"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldErrors(fields)
	}

	task, err := s.getOwned(ctx, requesterID, taskID)
	if err != nil {
		return nil, err
	}

	payload := events.TaskUpdatedPayload{}
	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
		payload.TitleChanged = true
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
		payload.DescriptionChanged = true
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskUpdated,
		TaskID:  task.ID,
		ActorID: requesterID,
		Payload: payload,
	})
	return s.joined(ctx, task)
}

// Delete removes the task permanently. Only the assignee may delete.
func (s *TaskService) Delete(ctx context.Context, requesterID, taskID string) error {
	task, err := s.getOwned(ctx, requesterID, taskID)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return s.mapTaskErr(err, taskID)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTaskDeleted,
		TaskID:  taskID,
		ActorID: requesterID,
		Payload: events.TaskDeletedPayload{Title: task.Title},
	})
	return nil
}

func (s *TaskService) getOwned(ctx context.Context, requesterID, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, s.mapTaskErr(err, taskID)
	}
	if task.AssignedUserID != requesterID {
		return nil, apperrors.NewForbidden("only the assignee may modify this task")
	}
	return task, nil
}

func (s *TaskService) mapTaskErr(err error, taskID string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
	}
	return apperrors.MapError(err)
}

func (s *TaskService) joined(ctx context.Context, task *domain.Task) (*TaskView, error) {
	assignee, err := s.directory.Summary(ctx, task.AssignedUserID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.MapError(err)
	}
	return &TaskView{Task: *task, Assignee: assignee}, nil
}

func (s *TaskService) joinAll(ctx context.Context, tasks []domain.Task) ([]TaskView, error) {
	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		view, err := s.joined(ctx, &tasks[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *TaskService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
