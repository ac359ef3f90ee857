package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/WhisperLily/task-management-api/internal/domain"
	"github.com/WhisperLily/task-management-api/internal/event"
	"github.com/WhisperLily/task-management-api/internal/repository"
	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

// TaskService implements the business logic for task operations. All
// operations are scoped to the calling user.
type TaskService struct {
	taskRepo   repository.TaskRepository
	statsCache repository.StatsCache
	producer   event.Publisher
	logger     *slog.Logger
}

// NewTaskService creates a new task service.
func NewTaskService(
	taskRepo repository.TaskRepository,
	statsCache repository.StatsCache,
	producer event.Publisher,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		statsCache: statsCache,
		producer:   producer,
		logger:     logger,
	}
}

// CreateTaskInput holds the parameters for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
}

// UpdateTaskInput holds the parameters for updating a task. Nil fields are
// left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	ClearDue    bool
}

// Create creates a new task for the given user. Missing status and priority
// default to pending and medium.
func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}

	status := input.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", status))
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.IsValidPriority(priority) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid priority %q", priority))
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.invalidateStats(ctx, userID)

	if err := s.producer.PublishTaskCreated(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.created event",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "task created",
		slog.String("task_id", task.ID),
		slog.String("user_id", userID),
	)

	return task, nil
}

// Get retrieves a task owned by userID.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns a page of the user's tasks matching the filter.
func (s *TaskService) List(ctx context.Context, userID string, filter repository.TaskFilter) ([]domain.Task, int, error) {
	if filter.Status != nil && !domain.IsValidStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *filter.Status))
	}
	if filter.Priority != nil && !domain.IsValidPriority(*filter.Priority) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid priority %q", *filter.Priority))
	}

	tasks, total, err := s.taskRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, total, nil
}

// Update applies a partial update to a task owned by userID.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task for update: %w", err)
	}

	wasCompleted := task.Status == domain.StatusCompleted

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		task.Title = *input.Title
	}

	if input.Description != nil {
		task.Description = *input.Description
	}

	if input.Status != nil {
		if !domain.IsValidStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *input.Status))
		}
		task.Status = *input.Status
	}

	if input.Priority != nil {
		if !domain.IsValidPriority(*input.Priority) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid priority %q", *input.Priority))
		}
		task.Priority = *input.Priority
	}

	if input.ClearDue {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.invalidateStats(ctx, userID)

	if err := s.producer.PublishTaskUpdated(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.updated event",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}

	if !wasCompleted && task.Status == domain.StatusCompleted {
		if err := s.producer.PublishTaskCompleted(ctx, task); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish task.completed event",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "task updated",
		slog.String("task_id", task.ID),
		slog.String("user_id", userID),
	)

	return task, nil
}

// Delete removes a task owned by userID.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if err := s.taskRepo.Delete(ctx, userID, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.invalidateStats(ctx, userID)

	if err := s.producer.PublishTaskDeleted(ctx, userID, taskID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.deleted event",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "task deleted",
		slog.String("task_id", taskID),
		slog.String("user_id", userID),
	)

	return nil
}

// Stats returns the user's task summary, served from cache when fresh.
// Cache failures fall back to the database.
func (s *TaskService) Stats(ctx context.Context, userID string) (*domain.TaskStats, error) {
	if cached, err := s.statsCache.Get(ctx, userID); err == nil {
		return cached, nil
	}

	stats, err := s.taskRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get task stats: %w", err)
	}

	if err := s.statsCache.Set(ctx, userID, stats); err != nil {
		s.logger.WarnContext(ctx, "failed to cache task stats",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return stats, nil
}

// invalidateStats drops the cached stats for userID after any task mutation.
func (s *TaskService) invalidateStats(ctx context.Context, userID string) {
	if err := s.statsCache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate stats cache",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
