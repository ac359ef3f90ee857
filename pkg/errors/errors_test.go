package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized,
		ErrForbidden, ErrInternal, ErrConflict, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Contains(t, appErr.Error(), "INTERNAL_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "db connection lost")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "task not found"}
	assert.Equal(t, "NOT_FOUND: task not found", appErr.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "nope", Err: ErrNotFound}
	assert.True(t, errors.Is(appErr, ErrNotFound))
}

func TestAppError_Unwrap_Nil(t *testing.T) {
	appErr := &AppError{Code: "TEST", Message: "test"}
	assert.Nil(t, appErr.Unwrap())
}

// --- Constructor functions ---

func TestNotFound(t *testing.T) {
	err := NotFound("task", "abc-123")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "task")
	assert.Contains(t, err.Message, "abc-123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAlreadyExists(t *testing.T) {
	err := AlreadyExists("user", "email", "a@b.com")
	require.NotNil(t, err)
	assert.Equal(t, "ALREADY_EXISTS", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Contains(t, err.Message, `email "a@b.com"`)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUnauthorizedCode_CarriesCustomCode(t *testing.T) {
	err := UnauthorizedCode("EXPIRED_TOKEN", "token has expired")
	require.NotNil(t, err)
	assert.Equal(t, "EXPIRED_TOKEN", err.Code)
	assert.Equal(t, http.StatusUnauthorized, err.Status)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestInternal_WrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
}

// --- HTTPStatus mapping ---

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error status wins", Forbidden("no"), http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("get task: %w", ErrNotFound), http.StatusNotFound},
		{"wrapped already exists", fmt.Errorf("create: %w", ErrAlreadyExists), http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("update: %w", ErrConflict), http.StatusConflict},
		{"wrapped invalid input", fmt.Errorf("parse: %w", ErrInvalidInput), http.StatusBadRequest},
		{"wrapped unauthorized", fmt.Errorf("verify: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"wrapped forbidden", fmt.Errorf("check: %w", ErrForbidden), http.StatusForbidden},
		{"wrapped unavailable", fmt.Errorf("ping: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{"unknown error", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
