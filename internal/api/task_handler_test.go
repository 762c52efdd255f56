package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskRouter(tasks *mocks.MockTaskService, current *domain.User) http.Handler {
	h := NewTaskHandler(tasks, testLogger())
	return newRouter(current, func(r chi.Router) {
		r.Get("/api/tasks", h.ListTasks)
		r.Post("/api/tasks", h.CreateTask)
		r.Get("/api/tasks/stats/count", h.CountTasks)
		r.Get("/api/tasks/{id}", h.GetTask)
		r.Put("/api/tasks/{id}", h.UpdateTask)
		r.Delete("/api/tasks/{id}", h.DeleteTask)
	})
}

func sampleTask() *domain.Task {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID: 10, Title: "write report", Status: domain.StatusTodo, OwnerID: alice.ID,
		CreatedAt: now, UpdatedAt: now,
		Attachment: &domain.Attachment{ID: 3, TaskID: 10, Filename: "f.pdf", OriginalFilename: "report.pdf"},
	}
}

func TestListTasks(t *testing.T) {
	tasks := &mocks.MockTaskService{}
	tasks.On("ListTasks", mock.Anything, alice, 20, 5).Return([]*domain.Task{sampleTask()}, nil)
	router := newTaskRouter(tasks, alice)

	rr := doJSON(t, router, http.MethodGet, "/api/tasks?skip=20&limit=5", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[[]TaskResponse](t, rr)
	require.Len(t, resp, 1)
	assert.Equal(t, "write report", resp[0].Title)
	require.NotNil(t, resp[0].Attachment)
	assert.Equal(t, "/api/tasks/10/attachment", resp[0].Attachment.FileURL)
}

func TestListTasks_DefaultsAndEmpty(t *testing.T) {
	tasks := &mocks.MockTaskService{}
	tasks.On("ListTasks", mock.Anything, admin, 0, 100).Return([]*domain.Task{}, nil)
	router := newTaskRouter(tasks, admin)

	rr := doJSON(t, router, http.MethodGet, "/api/tasks", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestListTasks_BadPagination(t *testing.T) {
	router := newTaskRouter(&mocks.MockTaskService{}, alice)

	for _, q := range []string{"?limit=abc", "?skip=x", "?limit=5000"} {
		rr := doJSON(t, router, http.MethodGet, "/api/tasks"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestCreateTask(t *testing.T) {
	tasks := &mocks.MockTaskService{}
	tasks.On("CreateTask", mock.Anything, alice, mock.MatchedBy(func(in service.TaskInput) bool {
		return in.Title == "plan" && in.Status == domain.StatusInProgress && in.DueDate != nil
	})).Return(sampleTask(), nil)
	router := newTaskRouter(tasks, alice)

	rr := doJSON(t, router, http.MethodPost, "/api/tasks",
		`{"title":"plan","status":"in-progress","due_date":"2026-04-01T12:00:00Z"}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, int64(10), decode[TaskResponse](t, rr).ID)
}

func TestCreateTask_Validation(t *testing.T) {
	router := newTaskRouter(&mocks.MockTaskService{}, alice)

	rr := doJSON(t, router, http.MethodPost, "/api/tasks", `{"title":"","status":"todo"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid title: required field", errorMessage(t, rr))

	rr = doJSON(t, router, http.MethodPost, "/api/tasks", `{"title":"x","status":"blocked"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid status: invalid value", errorMessage(t, rr))
}

func TestGetTask_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing", store.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{"not owner", service.ErrNotOwned, http.StatusForbidden, "Not enough permissions"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "Failed to get task"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &mocks.MockTaskService{}
			tasks.On("GetTask", mock.Anything, alice, int64(10)).Return(nil, tt.err)

			rr := doJSON(t, newTaskRouter(tasks, alice), http.MethodGet, "/api/tasks/10", nil)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, errorMessage(t, rr))
		})
	}
}

func TestGetTask_InvalidID(t *testing.T) {
	router := newTaskRouter(&mocks.MockTaskService{}, alice)

	for _, id := range []string{"abc", "0", "-3"} {
		rr := doJSON(t, router, http.MethodGet, "/api/tasks/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, id)
	}
}

func TestUpdateTask_PassesPartialPatch(t *testing.T) {
	tasks := &mocks.MockTaskService{}
	tasks.On("UpdateTask", mock.Anything, alice, int64(10), mock.MatchedBy(func(p domain.TaskPatch) bool {
		return p.Title == nil && p.Description == nil && p.Status != nil && *p.Status == domain.StatusDone
	})).Return(sampleTask(), nil)
	router := newTaskRouter(tasks, alice)

	rr := doJSON(t, router, http.MethodPut, "/api/tasks/10", `{"status":"done"}`)

	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	tasks.AssertExpectations(t)
}

func TestUpdateTask_EmptyTitleRejected(t *testing.T) {
	router := newTaskRouter(&mocks.MockTaskService{}, alice)

	rr := doJSON(t, router, http.MethodPut, "/api/tasks/10", `{"title":""}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteTask(t *testing.T) {
	tasks := &mocks.MockTaskService{}
	tasks.On("DeleteTask", mock.Anything, alice, int64(10)).Return(nil)

	rr := doJSON(t, newTaskRouter(tasks, alice), http.MethodDelete, "/api/tasks/10", nil)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestCountTasks(t *testing.T) {
	tasks := &mocks.MockTaskService{}
	tasks.On("CountTasks", mock.Anything, admin).Return(17, nil)

	rr := doJSON(t, newTaskRouter(tasks, admin), http.MethodGet, "/api/tasks/stats/count", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total_tasks":17}`, rr.Body.String())
}
