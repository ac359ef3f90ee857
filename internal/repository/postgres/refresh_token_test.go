package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

func newRefreshTokenTestFixture(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewRefreshTokenRepository(mock)
	return repo, mock
}

func TestRefreshTokenRepository_Create(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(168 * time.Hour)

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs("u-1", "hash-123", expiresAt, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), "u-1", "hash-123", expiresAt)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByHash_Success(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("hash-123").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "token_hash", "expires_at", "created_at", "revoked_at",
		}).AddRow("rt-1", "u-1", "hash-123", now.Add(time.Hour), now, nil))

	rt, err := repo.GetByHash(context.Background(), "hash-123")

	require.NoError(t, err)
	assert.Equal(t, "u-1", rt.UserID)
	assert.Nil(t, rt.RevokedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByHash_NotFound(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("unknown").
		WillReturnError(pgx.ErrNoRows)

	rt, err := repo.GetByHash(context.Background(), "unknown")

	assert.Nil(t, rt)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Revoke(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(pgxmock.AnyArg(), "hash-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Revoke(context.Background(), "hash-123")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RevokeByUserID(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(pgxmock.AnyArg(), "u-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	err := repo.RevokeByUserID(context.Background(), "u-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
