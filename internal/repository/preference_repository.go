package repository

import (
	"context"
	"fmt"

	"expense-chat/internal/database"
)

// PreferenceRepository handles per-user key/value preferences.
type PreferenceRepository struct {
	db database.PGXDB
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(db database.PGXDB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetAll returns every preference for a user.
func (r *PreferenceRepository) GetAll(ctx context.Context, userID int64) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT preference_key, preference_value FROM user_preferences WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return prefs, nil
}

// Set upserts a single preference.
func (r *PreferenceRepository) Set(ctx context.Context, userID int64, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_preferences (user_id, preference_key, preference_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, preference_key) DO UPDATE SET
			preference_value = EXCLUDED.preference_value,
			updated_at = NOW()
	`, userID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}
