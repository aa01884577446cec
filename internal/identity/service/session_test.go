package service

import (
	"context"
	"testing"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	registerUser(t, env, "Alice", "alice@example.com", "correct-password")

	t.Run("success", func(t *testing.T) {
		res, err := env.Sessions.Login(ctx, "Alice@Example.COM", "correct-password")
		require.NoError(t, err)
		require.NotEmpty(t, res.Tokens.AccessToken)
		require.NotEmpty(t, res.Tokens.RefreshToken)
		require.NotEmpty(t, res.Tenant.ID)
		require.True(t, res.Membership.Active)
		require.NotNil(t, res.User.LastLoginAt)
	})

	t.Run("credential failures are indistinguishable", func(t *testing.T) {
		_, wrongPassword := env.Sessions.Login(ctx, "alice@example.com", "wrong-password")
		_, unknownEmail := env.Sessions.Login(ctx, "nobody@example.com", "correct-password")

		require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
		require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
		require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	})

	t.Run("mid-funnel user cannot log in", func(t *testing.T) {
		require.NoError(t, env.Registration.PreRegister(ctx, "Bob", "bob@example.com"))

		_, err := env.Sessions.Login(ctx, "bob@example.com", "anything")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefresh_RotatesSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := registerUser(t, env, "Alice", "alice@example.com", "correct-password")
	original := res.Tokens.RefreshToken

	rotated, err := env.Sessions.Refresh(ctx, original)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.Tokens.RefreshToken)
	require.NotEqual(t, original, rotated.Tokens.RefreshToken)
	require.Equal(t, res.User.ID, rotated.User.ID)
	require.Equal(t, res.Tenant.ID, rotated.Tenant.ID)

	t.Run("consumed token is dead", func(t *testing.T) {
		_, err := env.Sessions.Refresh(ctx, original)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("rotated token still works", func(t *testing.T) {
		_, err := env.Sessions.Refresh(ctx, rotated.Tokens.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := env.Sessions.Refresh(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestRefresh_MembershipLossKeepsToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := registerUser(t, env, "Alice", "alice@example.com", "correct-password")
	require.NoError(t, env.Store.Memberships().DeactivateMembership(ctx, res.Membership.ID))

	// Rotation must roll back when the user has no tenant left, leaving
	// the presented token live.
	_, err := env.Sessions.Refresh(ctx, res.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrNoMembership)

	require.NoError(t, env.Store.Memberships().ReactivateMembership(ctx, res.Membership.ID, domain.RoleOwner, nil))

	rotated, err := env.Sessions.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, res.Tenant.ID, rotated.Tenant.ID)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := registerUser(t, env, "Alice", "alice@example.com", "correct-password")

	require.NoError(t, env.Sessions.Logout(ctx, res.Tokens.RefreshToken))

	_, err := env.Sessions.Refresh(ctx, res.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// Idempotent: a second logout with the same token is a no-op.
	require.NoError(t, env.Sessions.Logout(ctx, res.Tokens.RefreshToken))
	require.NoError(t, env.Sessions.Logout(ctx, "never-issued"))
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := registerUser(t, env, "Alice", "alice@example.com", "correct-password")

	// Open two more sessions.
	second, err := env.Sessions.Login(ctx, "alice@example.com", "correct-password")
	require.NoError(t, err)
	third, err := env.Sessions.Login(ctx, "alice@example.com", "correct-password")
	require.NoError(t, err)

	now := time.Now().UTC()
	live, err := env.Store.RefreshTokens().CountLiveByUser(ctx, res.User.ID, now)
	require.NoError(t, err)
	require.Equal(t, 3, live)

	require.NoError(t, env.Sessions.LogoutAll(ctx, res.User.ID))

	live, err = env.Store.RefreshTokens().CountLiveByUser(ctx, res.User.ID, now)
	require.NoError(t, err)
	require.Zero(t, live)

	for _, token := range []string{res.Tokens.RefreshToken, second.Tokens.RefreshToken, third.Tokens.RefreshToken} {
		_, err := env.Sessions.Refresh(ctx, token)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	}
}
