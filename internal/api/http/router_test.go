package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/task-board/internal/api/http/handlers"
	"github.com/spec-kit/task-board/internal/auth"
	"github.com/spec-kit/task-board/internal/config"
	"github.com/spec-kit/task-board/internal/domain"
	"github.com/spec-kit/task-board/internal/events"
	"github.com/spec-kit/task-board/internal/observability"
	"github.com/spec-kit/task-board/internal/service"
)

// in-memory repositories backing the full HTTP stack under test

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.users, id)
	return nil
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.Task
	seq   int
	clock time.Time
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.clock = r.clock.Add(time.Second)
	task.ID = fmt.Sprintf("task-%d", r.seq)
	task.CreatedAt = r.clock
	task.UpdatedAt = r.clock
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &task, nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	r.clock = r.clock.Add(time.Second)
	task.UpdatedAt = r.clock
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) ListAll(_ context.Context) ([]domain.Task, error) {
	return r.list(func(domain.Task) bool { return true }), nil
}

func (r *memTaskRepo) ListByAssignee(_ context.Context, userID string) ([]domain.Task, error) {
	return r.list(func(t domain.Task) bool { return t.AssignedUserID == userID }), nil
}

func (r *memTaskRepo) CountByAssignee(_ context.Context, userID string) (int64, error) {
	return int64(len(r.list(func(t domain.Task) bool { return t.AssignedUserID == userID }))), nil
}

func (r *memTaskRepo) list(match func(domain.Task) bool) []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if match(task) {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type memDirectory struct {
	users *memUserRepo
}

func (d *memDirectory) Summary(ctx context.Context, userID string) (domain.UserSummary, error) {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return domain.UserSummary{}, err
	}
	return user.Summary(), nil
}

func (d *memDirectory) Invalidate(context.Context, string) {}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	users := &memUserRepo{users: make(map[string]domain.User)}
	tasks := &memTaskRepo{tasks: make(map[string]domain.Task), clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	directory := &memDirectory{users: users}

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
		MinPasswordLength:     6,
	}, service.AuthDependencies{UserRepo: users, TaskRepo: tasks, Directory: directory})

	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:   tasks,
		UserRepo:   users,
		Directory:  directory,
		Dispatcher: events.NewInMemoryDispatcher(),
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tasks:          handlers.NewTasksHandler(taskService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	} else if len(raw) > 0 && raw[0] == '[' {
		var list []any
		require.NoError(t, json.Unmarshal(raw, &list))
		decoded["list"] = list
	}
	return res, decoded
}

func registerUser(t *testing.T, app *fiber.App, name, email string) (userID, token string) {
	t.Helper()
	res, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

func TestRegister_ReturnsUserAndToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	res, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Alice", "email": "A@X.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotEmpty(t, body["token"])

	expiresAt, err := time.Parse(time.RFC3339, body["expires_at"].(string))
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestLogin_ReturnsTokenWithExpiry(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	registerUser(t, app, "Alice", "a@x.com")

	res, body := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, body["token"])

	expiresAt, err := time.Parse(time.RFC3339, body["expires_at"].(string))
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	registerUser(t, app, "Alice", "a@x.com")

	res, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Mallory", "email": "a@x.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])
}

func TestRegister_ShortPassword(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	res, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Alice", "email": "a@x.com", "password": "12345",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "password")
}

func TestLogin_BadCredentialsIdenticalShape(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	registerUser(t, app, "Alice", "a@x.com")

	res1, body1 := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	res2, body2 := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "nouser@x.com", "password": "anything",
	})
	assert.Equal(t, http.StatusUnauthorized, res1.StatusCode)
	assert.Equal(t, res1.StatusCode, res2.StatusCode)
	assert.Equal(t, body1["error"], body2["error"])
}

func TestTaskRoutes_RequireBearerToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/my-tasks"},
		{http.MethodGet, "/tasks/user/u1"},
		{http.MethodPatch, "/tasks/t1/status"},
		{http.MethodPut, "/tasks/t1"},
		{http.MethodDelete, "/tasks/t1"},
		{http.MethodGet, "/auth/users"},
	} {
		res, _ := doJSON(t, app, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestCreateAndListTasks(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	userID, token := registerUser(t, app, "Alice", "a@x.com")

	res, body := doJSON(t, app, http.MethodPost, "/tasks", token, map[string]string{
		"title": "T", "description": "D", "assignedUserId": userID,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	task := body["task"].(map[string]any)
	assert.Equal(t, "Pending", task["status"])
	assert.Equal(t, "Alice", task["assignedUser"].(map[string]any)["name"])

	for _, title := range []string{"U", "V"} {
		res, _ := doJSON(t, app, http.MethodPost, "/tasks", token, map[string]string{
			"title": title, "description": "D", "assignedUserId": userID,
		})
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}

	res, body = doJSON(t, app, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := body["list"].([]any)
	require.Len(t, list, 3)
	assert.Equal(t, "V", list[0].(map[string]any)["title"])
	assert.Equal(t, "U", list[1].(map[string]any)["title"])
	assert.Equal(t, "T", list[2].(map[string]any)["title"])
}

func TestUpdateStatus_Validation(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	userID, token := registerUser(t, app, "Alice", "a@x.com")

	_, body := doJSON(t, app, http.MethodPost, "/tasks", token, map[string]string{
		"title": "T", "description": "D", "assignedUserId": userID,
	})
	taskID := body["task"].(map[string]any)["id"].(string)

	res, _ := doJSON(t, app, http.MethodPatch, "/tasks/"+taskID+"/status", token, map[string]string{"status": "Bogus"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = doJSON(t, app, http.MethodPatch, "/tasks/"+taskID+"/status", token, map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Completed", body["task"].(map[string]any)["status"])
}

func TestMutations_NonAssigneeForbidden(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	aliceID, aliceToken := registerUser(t, app, "Alice", "a@x.com")
	_, bobToken := registerUser(t, app, "Bob", "b@x.com")

	_, body := doJSON(t, app, http.MethodPost, "/tasks", aliceToken, map[string]string{
		"title": "T", "description": "D", "assignedUserId": aliceID,
	})
	taskID := body["task"].(map[string]any)["id"].(string)

	res, _ := doJSON(t, app, http.MethodPatch, "/tasks/"+taskID+"/status", bobToken, map[string]string{"status": "Completed"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = doJSON(t, app, http.MethodDelete, "/tasks/"+taskID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestDelete_ThenNotFound(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	userID, token := registerUser(t, app, "Alice", "a@x.com")

	_, body := doJSON(t, app, http.MethodPost, "/tasks", token, map[string]string{
		"title": "T", "description": "D", "assignedUserId": userID,
	})
	taskID := body["task"].(map[string]any)["id"].(string)

	res, _ := doJSON(t, app, http.MethodDelete, "/tasks/"+taskID, token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = doJSON(t, app, http.MethodDelete, "/tasks/"+taskID, token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = doJSON(t, app, http.MethodPut, "/tasks/"+taskID, token, map[string]string{"title": "X"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestDeleteUser_ConflictWhileTasksAssigned(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	aliceID, aliceToken := registerUser(t, app, "Alice", "a@x.com")

	_, _ = doJSON(t, app, http.MethodPost, "/tasks", aliceToken, map[string]string{
		"title": "T", "description": "D", "assignedUserId": aliceID,
	})

	res, _ := doJSON(t, app, http.MethodDelete, "/auth/users/"+aliceID, aliceToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestListUsers(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	_, token := registerUser(t, app, "Bob", "b@x.com")
	registerUser(t, app, "Alice", "a@x.com")

	res, body := doJSON(t, app, http.MethodGet, "/auth/users", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := body["list"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, "Alice", first["name"])
	assert.NotContains(t, first, "password")
}
