package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/task-board/internal/api/dto"
	"github.com/spec-kit/task-board/internal/domain"
)

// DefaultTimeout bounds every round trip; slow requests fail rather than hang.
const DefaultTimeout = 30 * time.Second

// APIError is the decoded error envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Client talks to the task-board REST API. It is safe for concurrent use
// once the token is set.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New builds a client for the given server.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Register creates an account and stores the issued token.
func (c *Client) Register(ctx context.Context, name, email, password string) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", dto.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &out)
	if err == nil {
		c.token = out.Token
	}
	return out, err
}

// Login authenticates and stores the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err == nil {
		c.token = out.Token
	}
	return out, err
}

// Users lists the assignee directory.
func (c *Client) Users(ctx context.Context) ([]domain.UserSummary, error) {
	var out []domain.UserSummary
	err := c.do(ctx, http.MethodGet, "/auth/users", nil, &out)
	return out, err
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (dto.TaskResponse, error) {
	var out dto.TaskMutationResponse
	err := c.do(ctx, http.MethodPost, "/tasks", req, &out)
	return out.Task, err
}

// Tasks fetches the full task list, newest first.
func (c *Client) Tasks(ctx context.Context) ([]dto.TaskResponse, error) {
	var out []dto.TaskResponse
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &out)
	return out, err
}

// TasksByUser fetches tasks assigned to a user.
func (c *Client) TasksByUser(ctx context.Context, userID string) ([]dto.TaskResponse, error) {
	var out []dto.TaskResponse
	err := c.do(ctx, http.MethodGet, "/tasks/user/"+userID, nil, &out)
	return out, err
}

// MyTasks fetches tasks assigned to the authenticated user.
func (c *Client) MyTasks(ctx context.Context) ([]dto.TaskResponse, error) {
	var out []dto.TaskResponse
	err := c.do(ctx, http.MethodGet, "/tasks/my-tasks", nil, &out)
	return out, err
}

// UpdateTaskStatus sets the status the caller computed.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) (dto.TaskResponse, error) {
	var out dto.TaskMutationResponse
	err := c.do(ctx, http.MethodPatch, "/tasks/"+taskID+"/status", dto.UpdateTaskStatusRequest{
		Status: string(status),
	}, &out)
	return out.Task, err
}

// UpdateTask edits title/description.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req dto.UpdateTaskRequest) (dto.TaskResponse, error) {
	var out dto.TaskMutationResponse
	err := c.do(ctx, http.MethodPut, "/tasks/"+taskID, req, &out)
	return out.Task, err
}

// DeleteTask removes a task permanently.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	var out dto.MessageResponse
	return c.do(ctx, http.MethodDelete, "/tasks/"+taskID, nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return decodeAPIError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: res.StatusCode, Code: "UNKNOWN", Message: res.Status}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
	}
	return apiErr
}
