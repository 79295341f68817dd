// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"fmt"

	"expense-chat/internal/database"
	"expense-chat/internal/models"
)

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and fills in the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, salt, full_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, currency_preference, timezone, created_at
	`, user.Username, user.Email, user.PasswordHash, user.Salt, user.FullName,
	).Scan(&user.ID, &user.IsActive, &user.CurrencyPreference, &user.Timezone, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetActiveByIdentifier looks up an active user by username or email.
// Both match against the same parameter so callers can pass either.
func (r *UserRepository) GetActiveByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return r.getOne(ctx, `WHERE (username = $1 OR email = $1) AND is_active`, identifier)
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, salt, full_name, is_active,
		       currency_preference, timezone, created_at, last_login
		FROM users `+where,
		args...,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Salt,
		&user.FullName, &user.IsActive, &user.CurrencyPreference, &user.Timezone,
		&user.CreatedAt, &user.LastLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Exists reports whether a user with the given username or email exists.
func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
	`, username, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// TouchLastLogin records a successful authentication.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdatePassword rotates the stored digest and salt.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash, salt string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, salt = $3 WHERE id = $1`,
		id, hash, salt)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ProfileUpdate carries the optional fields of a profile update. Nil fields
// are left untouched.
type ProfileUpdate struct {
	FullName           *string
	Email              *string
	CurrencyPreference *string
}

// UpdateProfile applies a partial profile update.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET
			full_name = COALESCE($2, full_name),
			email = COALESCE($3, email),
			currency_preference = COALESCE($4, currency_preference)
		WHERE id = $1
	`, id, upd.FullName, upd.Email, upd.CurrencyPreference)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// Stats summarizes an account: expense count, total spent, first expense date.
func (r *UserRepository) Stats(ctx context.Context, id int64) (*models.UserStats, error) {
	var stats models.UserStats
	err := r.db.QueryRow(ctx, `
		SELECT username, full_name, created_at, last_login FROM users WHERE id = $1
	`, id).Scan(&stats.Username, &stats.FullName, &stats.MemberSince, &stats.LastLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	var firstDate *string
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0), MIN(date)::TEXT
		FROM expenses WHERE user_id = $1
	`, id).Scan(&stats.TotalExpenses, &stats.TotalSpent, &firstDate)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}
	if firstDate != nil {
		stats.FirstExpenseDate = *firstDate
	}

	return &stats, nil
}
