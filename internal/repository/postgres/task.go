package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/WhisperLily/task-management-api/internal/domain"
	"github.com/WhisperLily/task-management-api/internal/repository"
	"github.com/WhisperLily/task-management-api/pkg/database"
	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

// TaskRepository implements repository.TaskRepository using PostgreSQL.
// Every query includes the owning user_id, so tasks belonging to other users
// behave as if they do not exist.
type TaskRepository struct {
	pool database.DBTX
}

// NewTaskRepository creates a new PostgreSQL-backed task repository.
func NewTaskRepository(pool database.DBTX) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create inserts a new task into the database.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.DueDate,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

// GetByID retrieves a task owned by userID.
func (r *TaskRepository) GetByID(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	query := `
		SELECT id, user_id, title, description, status, priority, due_date, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2`

	var t domain.Task
	err := r.pool.QueryRow(ctx, query, taskID, userID).Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("task", taskID)
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	return &t, nil
}

// List returns a page of tasks owned by userID matching the filter, plus the
// total match count.
func (r *TaskRepository) List(ctx context.Context, userID string, filter repository.TaskFilter) ([]domain.Task, int, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}
	argIndex := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argIndex))
		args = append(args, *filter.Priority)
		argIndex++
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT id, user_id, title, description, status, priority, due_date, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM tasks
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var totalCount int
	tasks := make([]domain.Task, 0)

	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.Priority,
			&t.DueDate,
			&t.CreatedAt,
			&t.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate task rows: %w", err)
	}

	return tasks, totalCount, nil
}

// Update modifies an existing task owned by the task's UserID.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	t.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8`

	ct, err := r.pool.Exec(ctx, query,
		t.Title,
		t.Description,
		t.Status,
		t.Priority,
		t.DueDate,
		t.UpdatedAt,
		t.ID,
		t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("task", t.ID)
	}

	return nil
}

// Delete removes a task owned by userID.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	ct, err := r.pool.Exec(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("task", taskID)
	}

	return nil
}

// GetStats aggregates task counts for the given user in a single query.
func (r *TaskRepository) GetStats(ctx context.Context, userID string) (*domain.TaskStats, error) {
	query := `
		SELECT
			count(*) AS total,
			count(*) FILTER (WHERE status = 'completed') AS completed,
			count(*) FILTER (WHERE status = 'in_progress') AS in_progress,
			count(*) FILTER (WHERE status = 'pending') AS pending,
			count(*) FILTER (WHERE priority = 'high') AS high_priority,
			count(*) FILTER (WHERE due_date < NOW() AND status != 'completed') AS overdue
		FROM tasks
		WHERE user_id = $1`

	var s domain.TaskStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.Total,
		&s.Completed,
		&s.InProgress,
		&s.Pending,
		&s.HighPriority,
		&s.Overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task stats: %w", err)
	}

	return &s, nil
}
