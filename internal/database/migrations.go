package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migration is one recorded schema step. Versions are applied in order and
// each version runs at most once per database.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create users",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				username TEXT UNIQUE NOT NULL,
				email TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				salt TEXT NOT NULL,
				full_name TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				currency_preference TEXT NOT NULL DEFAULT '₹',
				timezone TEXT NOT NULL DEFAULT 'Asia/Kolkata',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				last_login TIMESTAMPTZ
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
			`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		},
	},
	{
		version: 2,
		name:    "create sessions and reset tokens",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS user_sessions (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				session_token TEXT UNIQUE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMPTZ NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				ip_address TEXT NOT NULL DEFAULT '',
				user_agent TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_token ON user_sessions(session_token)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_user ON user_sessions(user_id)`,
			`CREATE TABLE IF NOT EXISTS password_reset_tokens (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				token TEXT UNIQUE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMPTZ NOT NULL,
				used BOOLEAN NOT NULL DEFAULT FALSE
			)`,
		},
	},
	{
		version: 3,
		name:    "create user preferences",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS user_preferences (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				preference_key TEXT NOT NULL,
				preference_value TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE(user_id, preference_key)
			)`,
		},
	},
	{
		version: 4,
		name:    "create expenses",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS expenses (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				amount DECIMAL(12, 2) NOT NULL CHECK (amount > 0),
				category TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				date DATE NOT NULL,
				location TEXT NOT NULL DEFAULT '',
				payment_method TEXT NOT NULL DEFAULT '',
				tags TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_user ON expenses(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses(category)`,
		},
	},
	{
		version: 5,
		name:    "backfill user_id on legacy expenses",
		stmts: []string{
			// Databases that predate multi-user support carry an expenses
			// table without an owner column. Existing rows default to the
			// placeholder owner 1.
			`ALTER TABLE expenses ADD COLUMN IF NOT EXISTS user_id BIGINT NOT NULL DEFAULT 1`,
			`CREATE INDEX IF NOT EXISTS idx_expenses_user ON expenses(user_id)`,
		},
	},
	{
		version: 6,
		name:    "create categories and budgets",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS categories (
				id BIGSERIAL PRIMARY KEY,
				name TEXT UNIQUE NOT NULL,
				color TEXT NOT NULL DEFAULT '',
				icon TEXT NOT NULL DEFAULT '',
				budget_limit DECIMAL(12, 2),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS monthly_budgets (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id),
				year INTEGER NOT NULL,
				month INTEGER NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				budget_amount DECIMAL(12, 2) NOT NULL,
				UNIQUE(user_id, year, month, category)
			)`,
		},
	},
	{
		version: 7,
		name:    "enable row level security on expenses",
		stmts: []string{
			`ALTER TABLE expenses ENABLE ROW LEVEL SECURITY`,
			`ALTER TABLE expenses FORCE ROW LEVEL SECURITY`,
			// When app.current_user_id is unset the policy admits all rows;
			// trusted repository code always binds user_id explicitly.
			// ScopedQuery sets it per transaction, which restricts every
			// statement in that transaction to the owner's rows.
			`CREATE POLICY expenses_owner_isolation ON expenses
				USING (
					COALESCE(NULLIF(current_setting('app.current_user_id', TRUE), ''), '0')::BIGINT = 0
					OR user_id = current_setting('app.current_user_id', TRUE)::BIGINT
				)
				WITH CHECK (
					COALESCE(NULLIF(current_setting('app.current_user_id', TRUE), ''), '0')::BIGINT = 0
					OR user_id = current_setting('app.current_user_id', TRUE)::BIGINT
				)`,
		},
	},
	{
		version: 8,
		name:    "hide non-expense tables from scoped queries",
		stmts: []string{
			// Credential material must never flow through ScopedQuery.
			// These tables are invisible whenever app.current_user_id is
			// bound; trusted repository code never binds it.
			`ALTER TABLE users ENABLE ROW LEVEL SECURITY`,
			`ALTER TABLE users FORCE ROW LEVEL SECURITY`,
			`CREATE POLICY users_trusted_paths_only ON users
				USING (COALESCE(NULLIF(current_setting('app.current_user_id', TRUE), ''), '0')::BIGINT = 0)`,
			`ALTER TABLE user_sessions ENABLE ROW LEVEL SECURITY`,
			`ALTER TABLE user_sessions FORCE ROW LEVEL SECURITY`,
			`CREATE POLICY sessions_trusted_paths_only ON user_sessions
				USING (COALESCE(NULLIF(current_setting('app.current_user_id', TRUE), ''), '0')::BIGINT = 0)`,
			`ALTER TABLE password_reset_tokens ENABLE ROW LEVEL SECURITY`,
			`ALTER TABLE password_reset_tokens FORCE ROW LEVEL SECURITY`,
			`CREATE POLICY reset_tokens_trusted_paths_only ON password_reset_tokens
				USING (COALESCE(NULLIF(current_setting('app.current_user_id', TRUE), ''), '0')::BIGINT = 0)`,
			// Preferences and budgets carry no secrets; scoped queries see
			// the owner's rows, same as expenses.
			`ALTER TABLE user_preferences ENABLE ROW LEVEL SECURITY`,
			`ALTER TABLE user_preferences FORCE ROW LEVEL SECURITY`,
			`CREATE POLICY preferences_owner_isolation ON user_preferences
				USING (
					COALESCE(NULLIF(current_setting('app.current_user_id', TRUE), ''), '0')::BIGINT = 0
					OR user_id = current_setting('app.current_user_id', TRUE)::BIGINT
				)`,
			`ALTER TABLE monthly_budgets ENABLE ROW LEVEL SECURITY`,
			`ALTER TABLE monthly_budgets FORCE ROW LEVEL SECURITY`,
			`CREATE POLICY budgets_owner_isolation ON monthly_budgets
				USING (
					COALESCE(NULLIF(current_setting('app.current_user_id', TRUE), ''), '0')::BIGINT = 0
					OR user_id = current_setting('app.current_user_id', TRUE)::BIGINT
				)`,
		},
	},
}

// RunMigrations applies the versioned migration sequence. Each step runs in
// its own transaction and is recorded in schema_migrations exactly once.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		for _, stmt := range m.stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

func migrationApplied(ctx context.Context, pool *pgxpool.Pool, version int) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`,
		version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return exists, nil
}

// defaultCategories is the fixed vocabulary with display metadata.
var defaultCategories = []struct {
	name  string
	color string
	icon  string
}{
	{"food", "#FF6B6B", "🍽️"},
	{"transportation", "#4ECDC4", "🚗"},
	{"entertainment", "#45B7D1", "🎬"},
	{"shopping", "#96CEB4", "🛍️"},
	{"groceries", "#FFEAA7", "🛒"},
	{"dining", "#DDA0DD", "🍴"},
	{"utilities", "#98D8C8", "💡"},
	{"healthcare", "#F7DC6F", "🏥"},
	{"education", "#BB8FCE", "📚"},
	{"other", "#BDC3C7", "📋"},
}

// SeedCategories inserts the default expense categories.
func SeedCategories(ctx context.Context, pool *pgxpool.Pool) error {
	for _, cat := range defaultCategories {
		_, err := pool.Exec(ctx,
			`INSERT INTO categories (name, color, icon) VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO NOTHING`,
			cat.name, cat.color, cat.icon,
		)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat.name, err)
		}
	}

	return nil
}
