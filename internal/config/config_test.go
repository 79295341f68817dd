package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL is required")
	require.Contains(t, err.Error(), "GEMINI_API_KEY is required")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/expense_chat")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("SESSION_TTL_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	require.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
}

func TestLoad_SessionTTLOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/expense_chat")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SESSION_TTL_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
}

func TestLoad_IgnoresInvalidTTL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/expense_chat")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SESSION_TTL_DAYS", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
}
