package repository

import (
	"context"
	"time"

	"github.com/WhisperLily/task-management-api/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error
}

// TaskFilter narrows a task listing. Nil fields are not applied.
type TaskFilter struct {
	Status   *string
	Priority *string
	Page     int
	PerPage  int
}

// TaskRepository defines the interface for task persistence operations.
// All lookups are scoped by the owning user; a task belonging to another
// user is indistinguishable from a missing one.
type TaskRepository interface {
	// Create inserts a new task into the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by userID.
	GetByID(ctx context.Context, userID, taskID string) (*domain.Task, error)

	// List returns a page of tasks owned by userID plus the total match count.
	List(ctx context.Context, userID string, filter TaskFilter) ([]domain.Task, int, error)

	// Update modifies an existing task owned by the task's UserID.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task owned by userID.
	Delete(ctx context.Context, userID, taskID string) error

	// GetStats aggregates task counts for the given user.
	GetStats(ctx context.Context, userID string) (*domain.TaskStats, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// RevokeByUserID revokes all refresh tokens for the given user.
	RevokeByUserID(ctx context.Context, userID string) error

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error
}

// StatsCache caches computed task statistics per user.
type StatsCache interface {
	// Get returns the cached stats for userID, or a cache miss error.
	Get(ctx context.Context, userID string) (*domain.TaskStats, error)

	// Set stores stats for userID.
	Set(ctx context.Context, userID string, stats *domain.TaskStats) error

	// Invalidate drops the cached stats for userID.
	Invalidate(ctx context.Context, userID string) error
}
