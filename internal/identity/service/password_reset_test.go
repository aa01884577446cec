package service

import (
	"context"
	"testing"
	"time"

	"github.com/moneylegal/identity/internal/identity/notify"
	"github.com/stretchr/testify/require"
)

func TestForgotPassword_NeverRevealsExistence(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.PasswordReset.ForgotPassword(ctx, "nobody@example.com"))
	require.Empty(t, env.Mail.byKind(notify.KindPasswordReset))

	registerUser(t, env, "Alice", "alice@example.com", "old-password")

	require.NoError(t, env.PasswordReset.ForgotPassword(ctx, "alice@example.com"))
	mails := env.Mail.byKind(notify.KindPasswordReset)
	require.Len(t, mails, 1)
	require.Equal(t, "alice@example.com", mails[0].To)
	require.Len(t, mails[0].Vars["code"], 6)
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := registerUser(t, env, "Alice", "alice@example.com", "old-password")

	// A second open session, to prove the reset revokes everything.
	_, err := env.Sessions.Login(ctx, "alice@example.com", "old-password")
	require.NoError(t, err)

	require.NoError(t, env.PasswordReset.ForgotPassword(ctx, "alice@example.com"))
	u, err := env.Store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.OTPCode)
	code := *u.OTPCode

	t.Run("verify does not consume the code", func(t *testing.T) {
		valid, err := env.PasswordReset.VerifyResetCode(ctx, "alice@example.com", code)
		require.NoError(t, err)
		require.True(t, valid)

		again, err := env.Store.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, again.OTPCode)
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		err := env.PasswordReset.ResetPassword(ctx, "alice@example.com", "000000", "new-password")
		require.ErrorIs(t, err, ErrInvalidResetCode)
	})

	t.Run("unknown email is rejected", func(t *testing.T) {
		err := env.PasswordReset.ResetPassword(ctx, "nobody@example.com", code, "new-password")
		require.ErrorIs(t, err, ErrInvalidResetCode)
	})

	require.NoError(t, env.PasswordReset.ResetPassword(ctx, "alice@example.com", code, "new-password"))

	t.Run("every session is revoked", func(t *testing.T) {
		live, err := env.Store.RefreshTokens().CountLiveByUser(ctx, res.User.ID, time.Now().UTC())
		require.NoError(t, err)
		require.Zero(t, live)
	})

	t.Run("old password stops working", func(t *testing.T) {
		_, err := env.Sessions.Login(ctx, "alice@example.com", "old-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("new password works", func(t *testing.T) {
		_, err := env.Sessions.Login(ctx, "alice@example.com", "new-password")
		require.NoError(t, err)
	})

	t.Run("code cannot be replayed", func(t *testing.T) {
		err := env.PasswordReset.ResetPassword(ctx, "alice@example.com", code, "replayed-password")
		require.ErrorIs(t, err, ErrInvalidResetCode)
	})
}

func TestVerifyResetCode_Expired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res := registerUser(t, env, "Alice", "alice@example.com", "old-password")

	code, err := env.OTP.Issue(ctx, env.Store, res.User.ID, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	valid, err := env.PasswordReset.VerifyResetCode(ctx, "alice@example.com", code)
	require.NoError(t, err)
	require.False(t, valid)

	err = env.PasswordReset.ResetPassword(ctx, "alice@example.com", code, "new-password")
	require.ErrorIs(t, err, ErrInvalidResetCode)
}
