package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/beemstream/profile-service/internal/errors"
)

func newRefreshTokenTestFixture(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewRefreshTokenRepository(mock)
	return repo, mock
}

func TestRefreshTokenRepository_Insert_Success(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(168 * time.Hour).Truncate(time.Microsecond)

	mock.ExpectQuery("INSERT INTO refresh_tokens").
		WithArgs("signed-refresh-jwt", expiresAt, int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Insert(context.Background(), 42, "signed-refresh-jwt", expiresAt)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_FindByToken_Success(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM refresh_tokens").
		WithArgs("signed-refresh-jwt").
		WillReturnRows(pgxmock.NewRows([]string{"id", "token", "expires_at", "user_id"}).
			AddRow(int64(7), "signed-refresh-jwt", expiresAt, int64(42)))

	rt, err := repo.FindByToken(context.Background(), "signed-refresh-jwt")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rt.ID)
	assert.Equal(t, "signed-refresh-jwt", rt.Token)
	assert.Equal(t, int64(42), rt.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_FindByToken_NotFound(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM refresh_tokens").
		WithArgs("unknown-token").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByToken(context.Background(), "unknown-token")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Delete_Success(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Delete_AlreadyGone(t *testing.T) {
	repo, mock := newRefreshTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
