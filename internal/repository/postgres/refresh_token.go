package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/beemstream/profile-service/internal/domain"
	apperrors "github.com/beemstream/profile-service/internal/errors"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Insert stores a new refresh token record and returns its id.
func (r *RefreshTokenRepository) Insert(ctx context.Context, userID int64, token string, expiresAt time.Time) (int64, error) {
	query := `
		INSERT INTO refresh_tokens (token, expires_at, user_id)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query, token, expiresAt, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert refresh token: %w", err)
	}

	return id, nil
}

// FindByToken retrieves a refresh token record by its token string.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, token, expires_at, user_id
		FROM refresh_tokens
		WHERE token = $1`

	var rt domain.RefreshToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rt.ID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.UserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &rt, nil
}

// Delete removes a refresh token record by id. A record that is already gone
// reports not-found so concurrent rotations resolve to a single winner.
func (r *RefreshTokenRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM refresh_tokens WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}
