package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"expense-chat/internal/database"
	"expense-chat/internal/repository"
)

func newTestService(t *testing.T) (*Service, context.Context) {
	t.Helper()
	tx := database.TestTx(t)
	svc := NewService(
		repository.NewUserRepository(tx),
		repository.NewSessionRepository(tx),
		30*24*time.Hour,
	)
	return svc, context.Background()
}

func TestService_RegisterAndAuthenticate(t *testing.T) {
	svc, ctx := newTestService(t)

	profile, err := svc.Register(ctx, "alice", "alice@example.com", "Secret1!", "Alice A")
	require.NoError(t, err)
	require.NotZero(t, profile.ID)
	require.Equal(t, "alice", profile.Username)

	// Both username and email work as identifier.
	got, err := svc.Authenticate(ctx, "alice", "Secret1!")
	require.NoError(t, err)
	require.Equal(t, profile.ID, got.ID)

	got, err = svc.Authenticate(ctx, "alice@example.com", "Secret1!")
	require.NoError(t, err)
	require.Equal(t, profile.ID, got.ID)
}

func TestService_RegisterRejectsWeakInput(t *testing.T) {
	svc, ctx := newTestService(t)

	var verr *ValidationError

	_, err := svc.Register(ctx, "ab", "a@example.com", "Secret1!", "")
	require.ErrorAs(t, err, &verr)

	_, err = svc.Register(ctx, "alice", "not-an-email", "Secret1!", "")
	require.ErrorAs(t, err, &verr)

	_, err = svc.Register(ctx, "alice", "a@example.com", "weak", "")
	require.ErrorAs(t, err, &verr)
}

func TestService_RegisterDuplicateConflicts(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret1!", "")
	require.NoError(t, err)

	var cerr *ConflictError
	_, err = svc.Register(ctx, "alice", "other@example.com", "Secret1!", "")
	require.ErrorAs(t, err, &cerr)

	_, err = svc.Register(ctx, "other", "alice@example.com", "Secret1!", "")
	require.ErrorAs(t, err, &cerr)
}

func TestService_AuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "Secret1!", "")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, "alice", "Wrong1!x")
	_, unknownUser := svc.Authenticate(ctx, "nobody", "Secret1!")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestService_SessionLifecycle(t *testing.T) {
	svc, ctx := newTestService(t)

	profile, err := svc.Register(ctx, "alice", "alice@example.com", "Secret1!", "")
	require.NoError(t, err)

	token, err := svc.CreateSession(ctx, profile.ID, SessionMeta{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.ValidateSession(ctx, token)
	require.NoError(t, err)
	require.Equal(t, profile.ID, got.ID)

	// Unknown and empty tokens fail the same way.
	_, err = svc.ValidateSession(ctx, "no-such-token")
	require.ErrorIs(t, err, ErrInvalidSession)
	_, err = svc.ValidateSession(ctx, "")
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestService_SessionExpiry(t *testing.T) {
	svc, ctx := newTestService(t)

	profile, err := svc.Register(ctx, "alice", "alice@example.com", "Secret1!", "")
	require.NoError(t, err)

	issued := time.Now()
	svc.now = func() time.Time { return issued }

	token, err := svc.CreateSession(ctx, profile.ID, SessionMeta{})
	require.NoError(t, err)

	// One second before the horizon the session still validates.
	svc.now = func() time.Time { return issued.Add(30*24*time.Hour - time.Second) }
	_, err = svc.ValidateSession(ctx, token)
	require.NoError(t, err)

	// At the horizon it does not.
	svc.now = func() time.Time { return issued.Add(30 * 24 * time.Hour) }
	_, err = svc.ValidateSession(ctx, token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestService_LogoutIsIdempotent(t *testing.T) {
	svc, ctx := newTestService(t)

	profile, err := svc.Register(ctx, "alice", "alice@example.com", "Secret1!", "")
	require.NoError(t, err)

	token, err := svc.CreateSession(ctx, profile.ID, SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))
	require.NoError(t, svc.Logout(ctx, token))
	require.NoError(t, svc.Logout(ctx, "never-issued"))

	_, err = svc.ValidateSession(ctx, token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestService_ChangePassword(t *testing.T) {
	svc, ctx := newTestService(t)

	profile, err := svc.Register(ctx, "alice", "alice@example.com", "Secret1!", "")
	require.NoError(t, err)

	var verr *ValidationError
	err = svc.ChangePassword(ctx, profile.ID, "Wrong1!x", "NewSecret1!")
	require.ErrorAs(t, err, &verr)

	err = svc.ChangePassword(ctx, profile.ID, "Secret1!", "weak")
	require.ErrorAs(t, err, &verr)

	require.NoError(t, svc.ChangePassword(ctx, profile.ID, "Secret1!", "NewSecret1!"))

	_, err = svc.Authenticate(ctx, "alice", "Secret1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "NewSecret1!")
	require.NoError(t, err)
}
