package repository

import (
	"context"
	"fmt"

	"expense-chat/internal/database"
	"expense-chat/internal/models"
)

// SessionRepository handles login session database operations.
type SessionRepository struct {
	db database.PGXDB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db database.PGXDB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_sessions (user_id, session_token, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, is_active
	`, session.UserID, session.Token, session.ExpiresAt, session.IPAddress, session.UserAgent,
	).Scan(&session.ID, &session.CreatedAt, &session.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByToken retrieves a session and its owning user by token, regardless of
// the session's validity. Callers decide whether the session authenticates.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, *models.User, error) {
	var session models.Session
	var user models.User
	err := r.db.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.session_token, s.created_at, s.expires_at,
		       s.is_active, s.ip_address, s.user_agent,
		       u.id, u.username, u.email, u.full_name, u.currency_preference
		FROM user_sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.session_token = $1
	`, token).Scan(&session.ID, &session.UserID, &session.Token, &session.CreatedAt,
		&session.ExpiresAt, &session.IsActive, &session.IPAddress, &session.UserAgent,
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.CurrencyPreference)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, &user, nil
}

// Deactivate marks a session inactive. Unknown or already-inactive tokens
// are not an error, which makes logout idempotent.
func (r *SessionRepository) Deactivate(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE session_token = $1`,
		token)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}
