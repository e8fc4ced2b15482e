package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/beemstream/profile-service/internal/auth"
	"github.com/beemstream/profile-service/internal/domain"
	apperrors "github.com/beemstream/profile-service/internal/errors"
)

const testSecret = "test-secret-key-for-testing"

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Insert(ctx context.Context, user *domain.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock Refresh Token Repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Insert(ctx context.Context, userID int64, token string, expiresAt time.Time) (int64, error) {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(users *mockUserRepository, tokens *mockRefreshTokenRepository) *AuthService {
	codec, err := auth.NewCodec(testSecret)
	if err != nil {
		panic(err)
	}
	return NewAuthService(users, tokens, codec, testSecret, 10*time.Minute, 168*time.Hour, nil, newTestLogger())
}

func testUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, testSecret)
	require.NoError(t, err)
	now := time.Now().UTC()
	return &domain.User{
		ID:           42,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// --- Register ---

func TestAuthService_Register_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	users.On("Insert", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "alice" && u.Email == "alice@example.com" && u.PasswordHash != "" &&
			u.PasswordHash != "a long enough password"
	})).Return(int64(42), nil)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "a long enough password")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "alice", user.Username)
	users.AssertExpectations(t)
}

func TestAuthService_Register_Conflict(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	users.On("Insert", mock.Anything, mock.Anything).
		Return(int64(0), apperrors.Conflict("username_exists", "username is already taken"))

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "a long enough password")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	users.AssertExpectations(t)
}

// --- Login ---

func TestAuthService_Login_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	user := testUser(t, "a long enough password")
	users.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)
	tokens.On("Insert", mock.Anything, int64(42), mock.Anything, mock.Anything).Return(int64(1), nil)

	session, err := svc.Login(context.Background(), "alice", "a long enough password")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.NotEqual(t, session.AccessToken, session.RefreshToken)
	assert.Equal(t, int64(600), session.ExpiresIn)
	assert.Greater(t, session.RefreshMaxAge, 0)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_Login_UnknownIdentifier(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	users.On("FindByIdentifier", mock.Anything, "nobody").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Login(context.Background(), "nobody", "a long enough password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	tokens.AssertNotCalled(t, "Insert")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	user := testUser(t, "the real password 123")
	users.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)

	_, err := svc.Login(context.Background(), "alice", "the wrong password 123")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	tokens.AssertNotCalled(t, "Insert")
}

// --- Refresh ---

func TestAuthService_Refresh_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	user := testUser(t, "a long enough password")
	_, presented, err := signRefreshToken(t, user.Username, 168*time.Hour)
	require.NoError(t, err)

	record := &domain.RefreshToken{ID: 7, Token: presented, UserID: 42, ExpiresAt: time.Now().Add(168 * time.Hour)}
	tokens.On("FindByToken", mock.Anything, presented).Return(record, nil)
	tokens.On("Delete", mock.Anything, int64(7)).Return(nil)
	users.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)
	tokens.On("Insert", mock.Anything, int64(42), mock.Anything, mock.Anything).Return(int64(8), nil)

	session, err := svc.Refresh(context.Background(), presented)
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEqual(t, presented, session.RefreshToken)
	tokens.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	tokens.On("FindByToken", mock.Anything, "unknown").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Refresh(context.Background(), "unknown")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	tokens.AssertNotCalled(t, "Delete")
}

func TestAuthService_Refresh_LostRace(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	_, presented, err := signRefreshToken(t, "alice", 168*time.Hour)
	require.NoError(t, err)

	record := &domain.RefreshToken{ID: 7, Token: presented, UserID: 42}
	tokens.On("FindByToken", mock.Anything, presented).Return(record, nil)
	// Another rotation deleted the row first; this caller must lose.
	tokens.On("Delete", mock.Anything, int64(7)).Return(apperrors.ErrNotFound)

	_, err = svc.Refresh(context.Background(), presented)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	tokens.AssertNotCalled(t, "Insert")
	users.AssertNotCalled(t, "FindByIdentifier")
}

func TestAuthService_Refresh_ExpiredStoredToken(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	_, presented, err := signRefreshToken(t, "alice", -time.Hour)
	require.NoError(t, err)

	record := &domain.RefreshToken{ID: 7, Token: presented, UserID: 42}
	tokens.On("FindByToken", mock.Anything, presented).Return(record, nil)
	tokens.On("Delete", mock.Anything, int64(7)).Return(nil)

	_, err = svc.Refresh(context.Background(), presented)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	// The token was consumed even though the rotation failed.
	tokens.AssertCalled(t, "Delete", mock.Anything, int64(7))
	tokens.AssertNotCalled(t, "Insert")
}

func TestAuthService_Refresh_SubjectGone(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	_, presented, err := signRefreshToken(t, "alice", 168*time.Hour)
	require.NoError(t, err)

	record := &domain.RefreshToken{ID: 7, Token: presented, UserID: 42}
	tokens.On("FindByToken", mock.Anything, presented).Return(record, nil)
	tokens.On("Delete", mock.Anything, int64(7)).Return(nil)
	users.On("FindByIdentifier", mock.Anything, "alice").Return(nil, apperrors.ErrNotFound)

	_, err = svc.Refresh(context.Background(), presented)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	tokens.AssertNotCalled(t, "Insert")
}

// --- Authenticate ---

func TestAuthService_Authenticate_Success(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	user := testUser(t, "a long enough password")
	_, access, err := signRefreshToken(t, "alice", 10*time.Minute)
	require.NoError(t, err)
	users.On("FindByIdentifier", mock.Anything, "alice").Return(user, nil)

	got, err := svc.Authenticate(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
}

func TestAuthService_Authenticate_GarbageToken(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	users.AssertNotCalled(t, "FindByIdentifier")
}

func TestAuthService_Authenticate_SubjectGone(t *testing.T) {
	users := new(mockUserRepository)
	tokens := new(mockRefreshTokenRepository)
	svc := newTestService(users, tokens)

	_, access, err := signRefreshToken(t, "ghost", 10*time.Minute)
	require.NoError(t, err)
	users.On("FindByIdentifier", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err = svc.Authenticate(context.Background(), access)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// signRefreshToken mints a token with the same codec configuration the
// service under test uses.
func signRefreshToken(t *testing.T, subject string, duration time.Duration) (*auth.Claims, string, error) {
	t.Helper()
	codec, err := auth.NewCodec(testSecret)
	require.NoError(t, err)
	return codec.Issue(subject, duration)
}
