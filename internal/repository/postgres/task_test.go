package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhisperLily/task-management-api/internal/domain"
	"github.com/WhisperLily/task-management-api/internal/repository"
	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

func newTaskTestFixture(t *testing.T) (*TaskRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewTaskRepository(mock)
	return repo, mock
}

func sampleTask() *domain.Task {
	now := time.Now().UTC().Truncate(time.Microsecond)
	due := now.Add(48 * time.Hour)
	return &domain.Task{
		ID:          "t-1",
		UserID:      "u-1234",
		Title:       "write report",
		Description: "quarterly numbers",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityHigh,
		DueDate:     &due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func taskColumns() []string {
	return []string{
		"id", "user_id", "title", "description", "status",
		"priority", "due_date", "created_at", "updated_at",
	}
}

func TestTaskRepository_Create_Success(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	task := sampleTask()

	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(
			task.ID, task.UserID, task.Title, task.Description, task.Status,
			task.Priority, task.DueDate, task.CreatedAt, task.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), task)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetByID_ScopedToOwner(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	task := sampleTask()

	mock.ExpectQuery("SELECT (.+) FROM tasks").
		WithArgs(task.ID, task.UserID).
		WillReturnRows(pgxmock.NewRows(taskColumns()).AddRow(
			task.ID, task.UserID, task.Title, task.Description, task.Status,
			task.Priority, task.DueDate, task.CreatedAt, task.UpdatedAt,
		))

	got, err := repo.GetByID(context.Background(), task.UserID, task.ID)

	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	require.NotNil(t, got.DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetByID_OtherUsersTaskIsNotFound(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	// The row exists for another user; the scoped query returns no rows.
	mock.ExpectQuery("SELECT (.+) FROM tasks").
		WithArgs("t-1", "u-other").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "u-other", "t-1")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_NoFilters(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	task := sampleTask()
	cols := append(taskColumns(), "total_count")

	mock.ExpectQuery("SELECT (.+) count\\(\\*\\) OVER\\(\\) AS total_count FROM tasks").
		WithArgs(task.UserID, 20, 0).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			task.ID, task.UserID, task.Title, task.Description, task.Status,
			task.Priority, task.DueDate, task.CreatedAt, task.UpdatedAt, 42,
		))

	tasks, total, err := repo.List(context.Background(), task.UserID, repository.TaskFilter{Page: 1, PerPage: 20})

	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_StatusAndPriorityFilters(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	task := sampleTask()
	cols := append(taskColumns(), "total_count")
	status := domain.StatusPending
	priority := domain.PriorityHigh

	mock.ExpectQuery("SELECT (.+) FROM tasks").
		WithArgs(task.UserID, status, priority, 10, 10).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			task.ID, task.UserID, task.Title, task.Description, task.Status,
			task.Priority, task.DueDate, task.CreatedAt, task.UpdatedAt, 11,
		))

	tasks, total, err := repo.List(context.Background(), task.UserID, repository.TaskFilter{
		Status:   &status,
		Priority: &priority,
		Page:     2,
		PerPage:  10,
	})

	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_EmptyResultIsEmptySlice(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	cols := append(taskColumns(), "total_count")

	mock.ExpectQuery("SELECT (.+) FROM tasks").
		WithArgs("u-1234", 20, 0).
		WillReturnRows(pgxmock.NewRows(cols))

	tasks, total, err := repo.List(context.Background(), "u-1234", repository.TaskFilter{Page: 1, PerPage: 20})

	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_Success(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	task := sampleTask()

	mock.ExpectExec("UPDATE tasks").
		WithArgs(
			task.Title, task.Description, task.Status, task.Priority,
			task.DueDate, pgxmock.AnyArg(), task.ID, task.UserID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), task)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_NotFound(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	task := sampleTask()

	mock.ExpectExec("UPDATE tasks").
		WithArgs(
			task.Title, task.Description, task.Status, task.Priority,
			task.DueDate, pgxmock.AnyArg(), task.ID, task.UserID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), task)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete_Success(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM tasks").
		WithArgs("t-1", "u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "u-1234", "t-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM tasks").
		WithArgs("t-missing", "u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "u-1234", "t-missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetStats(t *testing.T) {
	repo, mock := newTaskTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM tasks").
		WithArgs("u-1234").
		WillReturnRows(pgxmock.NewRows([]string{
			"total", "completed", "in_progress", "pending", "high_priority", "overdue",
		}).AddRow(10, 4, 2, 4, 3, 1))

	stats, err := repo.GetStats(context.Background(), "u-1234")

	require.NoError(t, err)
	assert.Equal(t, &domain.TaskStats{
		Total:        10,
		Completed:    4,
		InProgress:   2,
		Pending:      4,
		HighPriority: 3,
		Overdue:      1,
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
