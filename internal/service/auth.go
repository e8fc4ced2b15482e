package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beemstream/profile-service/internal/auth"
	"github.com/beemstream/profile-service/internal/domain"
	apperrors "github.com/beemstream/profile-service/internal/errors"
	"github.com/beemstream/profile-service/internal/repository"
)

// EventPublisher publishes domain events for account lifecycle changes.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
}

// Session is an issued token pair ready to be written to the client. The
// refresh token travels only in a cookie; the access token in the body.
type Session struct {
	AccessToken   string
	ExpiresIn     int64 // access token lifetime in whole seconds
	RefreshToken  string
	RefreshMaxAge int // remaining refresh validity in seconds, never negative
}

// AuthService implements credential verification, token issuance, and
// server-side refresh token rotation.
type AuthService struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	codec      *auth.Codec
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	events     EventPublisher
	logger     *slog.Logger
}

// NewAuthService creates the session manager. events may be nil when no
// broker is configured.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	codec *auth.Codec,
	secret string,
	accessTTL, refreshTTL time.Duration,
	events EventPublisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		codec:      codec,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		events:     events,
		logger:     logger,
	}
}

// Register creates a new account. The password is hashed before storage;
// duplicate username or email surfaces as a conflict carrying the violated
// field's code.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.secret)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.users.Insert(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", id),
		slog.String("username", username),
	)

	if s.events != nil {
		if err := s.events.PublishUserRegistered(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "failed to publish user.registered event",
				slog.Int64("user_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return user, nil
}

// Login verifies the credentials and issues a fresh session. Unknown
// identifier and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "login rejected: unknown identifier")
			return nil, apperrors.Unauthorized("unknown identifier")
		}
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, password, s.secret) {
		s.logger.InfoContext(ctx, "login rejected: password mismatch",
			slog.Int64("user_id", user.ID),
		)
		return nil, apperrors.Unauthorized("password mismatch")
	}

	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. Exactly one of two concurrent rotations of the same token
// succeeds; the loser gets 401. Any failure after the delete leaves the
// session with no live refresh token, never two.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	record, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "refresh rejected: token not on record")
			return nil, apperrors.Unauthorized("refresh token not on record")
		}
		return nil, err
	}

	// Consume the token before trusting it. The single-row delete is the
	// arbiter under concurrency: whoever deletes, rotates.
	if err := s.tokens.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "refresh rejected: token already consumed",
				slog.Int64("token_id", record.ID),
			)
			return nil, apperrors.Unauthorized("refresh token already consumed")
		}
		return nil, err
	}

	claims, err := s.codec.Decode(record.Token)
	if err != nil {
		s.logger.InfoContext(ctx, "refresh rejected: stored token invalid",
			slog.Int64("token_id", record.ID),
		)
		return nil, apperrors.Unauthorized("stored refresh token invalid")
	}

	user, err := s.users.FindByIdentifier(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "refresh rejected: subject no longer exists")
			return nil, apperrors.Unauthorized("subject no longer exists")
		}
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Authenticate validates an access token and resolves its subject to a live
// account.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid access token")
	}

	user, err := s.users.FindByIdentifier(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("subject no longer exists")
		}
		return nil, err
	}

	return user, nil
}

// issueSession mints an access/refresh pair for the user and stores the
// refresh token server side.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	_, access, err := s.codec.Issue(user.Username, s.accessTTL)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("issue access token: %w", err))
	}

	refreshClaims, refresh, err := s.codec.Issue(user.Username, s.refreshTTL)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("issue refresh token: %w", err))
	}

	if _, err := s.tokens.Insert(ctx, user.ID, refresh, refreshClaims.ExpiresAt.Time); err != nil {
		return nil, err
	}

	maxAge := int(s.codec.RemainingValidity(refreshClaims).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	return &Session{
		AccessToken:   access,
		ExpiresIn:     int64(s.accessTTL.Seconds()),
		RefreshToken:  refresh,
		RefreshMaxAge: maxAge,
	}, nil
}
