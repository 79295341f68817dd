package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"expense-chat/internal/database"
	"expense-chat/internal/models"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewSessionRepository(tx)
	user := createTestUser(t, tx, "sessioner")

	session := &models.Session{
		UserID:    user.ID,
		Token:     "token-one",
		ExpiresAt: time.Now().Add(time.Hour),
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	}
	require.NoError(t, repo.Create(ctx, session))
	require.NotZero(t, session.ID)
	require.True(t, session.IsActive)

	got, owner, err := repo.GetByToken(ctx, "token-one")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.UserID)
	require.Equal(t, user.ID, owner.ID)
	require.Equal(t, "10.0.0.1", got.IPAddress)
}

func TestSessionRepository_TokenUniqueness(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewSessionRepository(tx)
	user := createTestUser(t, tx, "uniq")

	first := &models.Session{UserID: user.ID, Token: "dup", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.Session{UserID: user.ID, Token: "dup", ExpiresAt: time.Now().Add(time.Hour)}
	require.Error(t, repo.Create(ctx, second))
}

func TestSessionRepository_DeactivateIdempotent(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewSessionRepository(tx)
	user := createTestUser(t, tx, "deact")

	session := &models.Session{UserID: user.ID, Token: "bye", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.Deactivate(ctx, "bye"))
	require.NoError(t, repo.Deactivate(ctx, "bye"), "second logout must not error")
	require.NoError(t, repo.Deactivate(ctx, "never-existed"), "unknown token must not error")

	got, _, err := repo.GetByToken(ctx, "bye")
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestSessionRepository_UnknownToken(t *testing.T) {
	tx := database.TestTx(t)
	repo := NewSessionRepository(tx)

	_, _, err := repo.GetByToken(context.Background(), "missing")
	require.Error(t, err)
}
