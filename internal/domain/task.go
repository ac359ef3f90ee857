package domain

import (
	"time"
)

// Task status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidStatuses lists all accepted task statuses.
var ValidStatuses = []string{StatusPending, StatusInProgress, StatusCompleted}

// ValidPriorities lists all accepted task priorities.
var ValidPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

// IsValidStatus reports whether s is an accepted task status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsValidPriority reports whether p is an accepted task priority.
func IsValidPriority(p string) bool {
	for _, v := range ValidPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Task represents a single task owned by a user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOverdue reports whether the task has a due date in the past and is not
// yet completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// TaskStats summarizes a user's tasks by status, priority and overdue count.
type TaskStats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	InProgress   int `json:"in_progress"`
	Pending      int `json:"pending"`
	HighPriority int `json:"high_priority"`
	Overdue      int `json:"overdue"`
}
