package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/task-board/internal/api/dto"
	"github.com/spec-kit/task-board/internal/domain"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func writeAPIError(t *testing.T, w http.ResponseWriter, status int, code, message string) {
	t.Helper()
	writeJSON(t, w, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func newBoardAgainst(t *testing.T, handler http.Handler) (*Board, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api := New(server.URL, 5*time.Second)
	api.SetToken("test-token")
	return NewBoard(api, alice), server
}

func TestBoard_CreateSuccessSettlesWithServerCopy(t *testing.T) {
	t.Parallel()

	created := dto.TaskResponse{ID: "t9", Title: "New", Description: "Desc",
		Status: domain.TaskStatusPending, AssignedUser: alice}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusCreated, dto.TaskMutationResponse{Message: "ok", Task: created})
	})

	board, _ := newBoardAgainst(t, mux)
	require.NoError(t, board.CreateTask(context.Background(), "New", "Desc", alice))

	tasks := board.Cache().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "t9", tasks[0].ID)
	assert.Equal(t, 0, board.Cache().PendingOps())
}

func TestBoard_CreateFailureRevertsCache(t *testing.T) {
	t.Parallel()

	authoritative := []dto.TaskResponse{
		{ID: "t1", Title: "A", Status: domain.TaskStatusPending, AssignedUser: alice},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(t, w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	})
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, authoritative)
	})

	board, _ := newBoardAgainst(t, mux)
	require.NoError(t, board.Load(context.Background()))

	err := board.CreateTask(context.Background(), "New", "Desc", alice)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	// cache restored to the pre-call set after the failed call settled
	assert.Equal(t, []string{"t1"}, ids(board.Cache().Tasks()))
	assert.Equal(t, 0, board.Cache().PendingOps())
}

func TestBoard_OptimisticPatchVisibleWhileRequestPending(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeJSON(t, w, http.StatusCreated, dto.TaskMutationResponse{
			Task: dto.TaskResponse{ID: "t9", Title: "New", Status: domain.TaskStatusPending, AssignedUser: alice},
		})
	})

	board, _ := newBoardAgainst(t, mux)

	done := make(chan error, 1)
	go func() {
		done <- board.CreateTask(context.Background(), "New", "Desc", alice)
	}()

	<-started
	tasks := board.Cache().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "New", tasks[0].Title)
	assert.Equal(t, 1, board.Cache().PendingOps())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"t9"}, ids(board.Cache().Tasks()))
}

func TestBoard_InFlightGuard(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeJSON(t, w, http.StatusCreated, dto.TaskMutationResponse{
			Task: dto.TaskResponse{ID: "t9", Status: domain.TaskStatusPending, AssignedUser: alice},
		})
	})

	board, _ := newBoardAgainst(t, mux)

	done := make(chan error, 1)
	go func() {
		done <- board.CreateTask(context.Background(), "New", "Desc", alice)
	}()
	<-started

	// re-entrant call short-circuits while the first is in flight
	err := board.CreateTask(context.Background(), "Other", "Desc", alice)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	close(release)
	require.NoError(t, <-done)

	// guard cleared after settle
	assert.Equal(t, 0, board.Cache().PendingOps())
}

func TestBoard_ToggleSendsOppositeStatus(t *testing.T) {
	t.Parallel()

	var sent dto.UpdateTaskStatusRequest
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /tasks/t1/status", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		writeJSON(t, w, http.StatusOK, dto.TaskMutationResponse{
			Task: dto.TaskResponse{ID: "t1", Title: "A", Status: domain.TaskStatus(sent.Status), AssignedUser: alice},
		})
	})

	board, _ := newBoardAgainst(t, mux)
	task := dto.TaskResponse{ID: "t1", Title: "A", Status: domain.TaskStatusPending, AssignedUser: alice}
	board.Cache().Replace([]dto.TaskResponse{task})

	require.NoError(t, board.ToggleStatus(context.Background(), task))
	assert.Equal(t, string(domain.TaskStatusCompleted), sent.Status)
	assert.Equal(t, domain.TaskStatusCompleted, board.Cache().Tasks()[0].Status)
}

func TestBoard_DeleteFailureRollsBack(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /tasks/t2", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(t, w, http.StatusNotFound, "NOT_FOUND", "task not found")
	})
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(t, w, http.StatusInternalServerError, "INTERNAL_ERROR", "down")
	})

	board, _ := newBoardAgainst(t, mux)
	board.Cache().Replace([]dto.TaskResponse{
		{ID: "t3", Status: domain.TaskStatusPending, AssignedUser: bob},
		{ID: "t2", Status: domain.TaskStatusCompleted, AssignedUser: alice},
	})

	err := board.DeleteTask(context.Background(), "t2")
	require.Error(t, err)

	// refetch failed too, so the rolled-back local state stands
	assert.Equal(t, []string{"t3", "t2"}, ids(board.Cache().Tasks()))
}
