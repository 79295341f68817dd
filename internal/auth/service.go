package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"expense-chat/internal/logger"
	"expense-chat/internal/models"
	"expense-chat/internal/repository"
)

// Service implements the credential and session operations.
type Service struct {
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	sessionTTL time.Duration

	// now is injectable for session-expiry tests.
	now func() time.Time
}

// NewService creates an auth Service with the given session expiry horizon.
func NewService(users *repository.UserRepository, sessions *repository.SessionRepository, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Register creates a new account. Input failures return ValidationError,
// duplicate identities return ConflictError.
func (s *Service) Register(ctx context.Context, username, email, password, fullName string) (*models.PublicUser, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Message: "Username or email already exists"}
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
		FullName:     fullName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can still trip the unique constraint
		// between the existence check and the insert.
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: "Username or email already exists"}
		}
		return nil, err
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(user.ID)).
		Msg("User registered")

	return user.Public(), nil
}

// Authenticate verifies an identifier (username or email) and password
// against active users. Every failure returns ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*models.PublicUser, error) {
	user, err := s.users.GetActiveByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(user.ID)).
		Msg("User authenticated")

	return user.Public(), nil
}

// SessionMeta carries optional client metadata recorded with a session.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// CreateSession issues a new bearer token with a fixed expiry horizon.
func (s *Service) CreateSession(ctx context.Context, userID int64, meta SessionMeta) (string, error) {
	token, err := NewSessionToken()
	if err != nil {
		return "", err
	}

	session := &models.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(s.sessionTTL),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}

// ValidateSession resolves a token to its owning user's public profile.
// Expired, inactive and unknown tokens all return ErrInvalidSession.
func (s *Service) ValidateSession(ctx context.Context, token string) (*models.PublicUser, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, user, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if !session.Valid(s.now()) {
		return nil, ErrInvalidSession
	}

	return user.Public(), nil
}

// Logout marks the session inactive. Idempotent: logging out an unknown or
// already-inactive token succeeds.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Deactivate(ctx, token); err != nil {
		return err
	}
	logger.Log.Info().
		Str("token_hash", logger.HashToken(token)).
		Msg("Session deactivated")
	return nil
}

// ChangePassword re-verifies the current password, applies the registration
// strength policy to the new one, and rotates to a fresh salt.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if !VerifyPassword(current, user.Salt, user.PasswordHash) {
		return &ValidationError{Message: "Current password is incorrect"}
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, HashPassword(newPassword, salt), salt)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
