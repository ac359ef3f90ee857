package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("done"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("PENDING"))
}

func TestIsValidPriority(t *testing.T) {
	for _, p := range ValidPriorities {
		assert.True(t, IsValidPriority(p), p)
	}
	assert.False(t, IsValidPriority("urgent"))
	assert.False(t, IsValidPriority(""))
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		dueDate *time.Time
		status  string
		want    bool
	}{
		{"no due date", nil, StatusPending, false},
		{"due in the past, pending", &past, StatusPending, true},
		{"due in the past, in progress", &past, StatusInProgress, true},
		{"due in the past, completed", &past, StatusCompleted, false},
		{"due in the future", &future, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{DueDate: tt.dueDate, Status: tt.status}
			assert.Equal(t, tt.want, task.IsOverdue(now))
		})
	}
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	u := User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$secret",
		IsActive:     true,
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), "alice")
}

func TestRefreshToken_HashNotSerialized(t *testing.T) {
	rt := RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		TokenHash: "deadbeef",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	raw, err := json.Marshal(rt)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "deadbeef")
}
