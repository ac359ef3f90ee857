package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/WhisperLily/task-management-api/internal/domain"
	"github.com/WhisperLily/task-management-api/internal/repository"
	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

type taskFixture struct {
	svc      *TaskService
	taskRepo *mockTaskRepository
	cache    *mockStatsCache
	producer *mockPublisher
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	taskRepo := &mockTaskRepository{}
	cache := &mockStatsCache{}
	producer := &mockPublisher{}
	svc := NewTaskService(taskRepo, cache, producer, discardLogger())
	return &taskFixture{svc: svc, taskRepo: taskRepo, cache: cache, producer: producer}
}

func existingTask() *domain.Task {
	now := time.Now().UTC()
	return &domain.Task{
		ID:        "t-1",
		UserID:    "u-1",
		Title:     "write report",
		Status:    domain.StatusPending,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- Create ---

func TestTaskCreate_DefaultsStatusAndPriority(t *testing.T) {
	f := newTaskFixture(t)

	f.taskRepo.On("Create", mock.Anything, mock.MatchedBy(func(task *domain.Task) bool {
		return task.Status == domain.StatusPending &&
			task.Priority == domain.PriorityMedium &&
			task.UserID == "u-1"
	})).Return(nil)
	f.cache.On("Invalidate", mock.Anything, "u-1").Return(nil)
	f.producer.On("PublishTaskCreated", mock.Anything, mock.Anything).Return(nil)

	task, err := f.svc.Create(context.Background(), "u-1", CreateTaskInput{Title: "write report"})

	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	f.taskRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestTaskCreate_EmptyTitle(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), "u-1", CreateTaskInput{})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.taskRepo.AssertNotCalled(t, "Create")
}

func TestTaskCreate_InvalidStatus(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), "u-1", CreateTaskInput{
		Title:  "x",
		Status: "done",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTaskCreate_InvalidPriority(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.svc.Create(context.Background(), "u-1", CreateTaskInput{
		Title:    "x",
		Priority: "urgent",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestTaskCreate_EventFailureDoesNotFailCreate(t *testing.T) {
	f := newTaskFixture(t)

	f.taskRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Invalidate", mock.Anything, "u-1").Return(nil)
	f.producer.On("PublishTaskCreated", mock.Anything, mock.Anything).Return(assert.AnError)

	task, err := f.svc.Create(context.Background(), "u-1", CreateTaskInput{Title: "x"})

	require.NoError(t, err)
	assert.NotNil(t, task)
}

// --- Get / List ---

func TestTaskGet_NotFoundPropagates(t *testing.T) {
	f := newTaskFixture(t)

	f.taskRepo.On("GetByID", mock.Anything, "u-1", "t-missing").
		Return(nil, apperrors.NotFound("task", "t-missing"))

	_, err := f.svc.Get(context.Background(), "u-1", "t-missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTaskList_InvalidStatusFilter(t *testing.T) {
	f := newTaskFixture(t)
	bad := "done"

	_, _, err := f.svc.List(context.Background(), "u-1", repository.TaskFilter{Status: &bad})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.taskRepo.AssertNotCalled(t, "List")
}

func TestTaskList_PassesFilterThrough(t *testing.T) {
	f := newTaskFixture(t)
	status := domain.StatusPending
	filter := repository.TaskFilter{Status: &status, Page: 2, PerPage: 10}

	f.taskRepo.On("List", mock.Anything, "u-1", filter).
		Return([]domain.Task{*existingTask()}, 15, nil)

	tasks, total, err := f.svc.List(context.Background(), "u-1", filter)

	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 15, total)
}

// --- Update ---

func TestTaskUpdate_PartialUpdate(t *testing.T) {
	f := newTaskFixture(t)
	task := existingTask()
	newTitle := "revise report"

	f.taskRepo.On("GetByID", mock.Anything, "u-1", "t-1").Return(task, nil)
	f.taskRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.Task) bool {
		return u.Title == newTitle && u.Status == domain.StatusPending
	})).Return(nil)
	f.cache.On("Invalidate", mock.Anything, "u-1").Return(nil)
	f.producer.On("PublishTaskUpdated", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Update(context.Background(), "u-1", "t-1", UpdateTaskInput{Title: &newTitle})

	require.NoError(t, err)
	assert.Equal(t, newTitle, got.Title)
	f.producer.AssertNotCalled(t, "PublishTaskCompleted")
}

func TestTaskUpdate_CompletionEmitsCompletedEvent(t *testing.T) {
	f := newTaskFixture(t)
	task := existingTask()
	completed := domain.StatusCompleted

	f.taskRepo.On("GetByID", mock.Anything, "u-1", "t-1").Return(task, nil)
	f.taskRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Invalidate", mock.Anything, "u-1").Return(nil)
	f.producer.On("PublishTaskUpdated", mock.Anything, mock.Anything).Return(nil)
	f.producer.On("PublishTaskCompleted", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Update(context.Background(), "u-1", "t-1", UpdateTaskInput{Status: &completed})

	require.NoError(t, err)
	f.producer.AssertCalled(t, "PublishTaskCompleted", mock.Anything, mock.Anything)
}

func TestTaskUpdate_AlreadyCompletedDoesNotReemit(t *testing.T) {
	f := newTaskFixture(t)
	task := existingTask()
	task.Status = domain.StatusCompleted
	completed := domain.StatusCompleted

	f.taskRepo.On("GetByID", mock.Anything, "u-1", "t-1").Return(task, nil)
	f.taskRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Invalidate", mock.Anything, "u-1").Return(nil)
	f.producer.On("PublishTaskUpdated", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Update(context.Background(), "u-1", "t-1", UpdateTaskInput{Status: &completed})

	require.NoError(t, err)
	f.producer.AssertNotCalled(t, "PublishTaskCompleted")
}

func TestTaskUpdate_ClearDueDate(t *testing.T) {
	f := newTaskFixture(t)
	task := existingTask()
	due := time.Now().UTC().Add(time.Hour)
	task.DueDate = &due

	f.taskRepo.On("GetByID", mock.Anything, "u-1", "t-1").Return(task, nil)
	f.taskRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.Task) bool {
		return u.DueDate == nil
	})).Return(nil)
	f.cache.On("Invalidate", mock.Anything, "u-1").Return(nil)
	f.producer.On("PublishTaskUpdated", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Update(context.Background(), "u-1", "t-1", UpdateTaskInput{ClearDue: true})

	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
}

func TestTaskUpdate_NotFound(t *testing.T) {
	f := newTaskFixture(t)

	f.taskRepo.On("GetByID", mock.Anything, "u-1", "t-missing").
		Return(nil, apperrors.NotFound("task", "t-missing"))

	_, err := f.svc.Update(context.Background(), "u-1", "t-missing", UpdateTaskInput{})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Delete ---

func TestTaskDelete_InvalidatesCacheAndPublishes(t *testing.T) {
	f := newTaskFixture(t)

	f.taskRepo.On("Delete", mock.Anything, "u-1", "t-1").Return(nil)
	f.cache.On("Invalidate", mock.Anything, "u-1").Return(nil)
	f.producer.On("PublishTaskDeleted", mock.Anything, "u-1", "t-1").Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), "u-1", "t-1"))
	f.cache.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestTaskDelete_NotFound(t *testing.T) {
	f := newTaskFixture(t)

	f.taskRepo.On("Delete", mock.Anything, "u-1", "t-missing").
		Return(apperrors.NotFound("task", "t-missing"))

	err := f.svc.Delete(context.Background(), "u-1", "t-missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.cache.AssertNotCalled(t, "Invalidate")
}

// --- Stats ---

func TestTaskStats_CacheHitSkipsDatabase(t *testing.T) {
	f := newTaskFixture(t)
	stats := &domain.TaskStats{Total: 5, Pending: 5}

	f.cache.On("Get", mock.Anything, "u-1").Return(stats, nil)

	got, err := f.svc.Stats(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, stats, got)
	f.taskRepo.AssertNotCalled(t, "GetStats")
}

func TestTaskStats_CacheMissReadsThroughAndCaches(t *testing.T) {
	f := newTaskFixture(t)
	stats := &domain.TaskStats{Total: 3, Completed: 1, Pending: 2}

	f.cache.On("Get", mock.Anything, "u-1").Return(nil, apperrors.ErrNotFound)
	f.taskRepo.On("GetStats", mock.Anything, "u-1").Return(stats, nil)
	f.cache.On("Set", mock.Anything, "u-1", stats).Return(nil)

	got, err := f.svc.Stats(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, stats, got)
	f.cache.AssertExpectations(t)
}

func TestTaskStats_CacheSetFailureStillReturnsStats(t *testing.T) {
	f := newTaskFixture(t)
	stats := &domain.TaskStats{Total: 1, Pending: 1}

	f.cache.On("Get", mock.Anything, "u-1").Return(nil, apperrors.ErrNotFound)
	f.taskRepo.On("GetStats", mock.Anything, "u-1").Return(stats, nil)
	f.cache.On("Set", mock.Anything, "u-1", stats).Return(assert.AnError)

	got, err := f.svc.Stats(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, stats, got)
}
