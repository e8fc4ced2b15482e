package domain

import (
	"time"
)

// User represents a registered user in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken is a stored refresh token record. Exactly one record is
// considered live per session; it is deleted the moment it is consumed.
type RefreshToken struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
}

// OAuthTokenSet is the transient result of a provider token exchange. It is
// never persisted server-side; the refresh token travels back to the client
// inside a sealed cookie.
type OAuthTokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}
