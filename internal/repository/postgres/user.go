package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/beemstream/profile-service/internal/domain"
	apperrors "github.com/beemstream/profile-service/internal/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert stores a new user and returns its generated id.
func (r *UserRepository) Insert(ctx context.Context, u *domain.User) (int64, error) {
	query := `
		INSERT INTO users (username, email, password_hash, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.IsDeleted,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case "users_email_key":
				return 0, apperrors.Conflict("email_exists", "email is already registered")
			default:
				return 0, apperrors.Conflict("username_exists", "username is already taken")
			}
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return id, nil
}

// FindByIdentifier retrieves a user matching the given username or email.
// Soft-deleted users are excluded.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_deleted, created_at, updated_at
		FROM users
		WHERE (username = $1 OR email = $1) AND is_deleted = FALSE`

	var u domain.User
	err := r.db.QueryRow(ctx, query, identifier).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsDeleted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}
