package repository

import (
	"context"
	"time"

	"github.com/beemstream/profile-service/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Insert stores a new user and returns its generated id. Duplicate
	// username or email surfaces as a conflict error carrying the
	// violated field's code.
	Insert(ctx context.Context, user *domain.User) (int64, error)

	// FindByIdentifier retrieves a user by username or email address.
	// Soft-deleted users are never returned.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence.
// The rotation protocol (find, delete, re-insert) is driven by the session
// manager; this layer only stores records.
type RefreshTokenRepository interface {
	// Insert stores a new refresh token record and returns its id.
	Insert(ctx context.Context, userID int64, token string, expiresAt time.Time) (int64, error)

	// FindByToken retrieves a record by its token string.
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)

	// Delete removes a record by id. Deleting an already-removed record
	// reports not-found, which is how exactly one of two racing
	// rotations wins.
	Delete(ctx context.Context, id int64) error
}
