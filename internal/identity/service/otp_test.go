package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/stretchr/testify/require"
)

func TestOTPService_Check(t *testing.T) {
	t.Parallel()

	svc := &OTPService{}
	now := time.Now().UTC()
	code := "123456"
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	t.Run("no code issued", func(t *testing.T) {
		require.Equal(t, OTPNoCodeIssued, svc.Check(domain.User{}, code, now))
	})

	t.Run("expired", func(t *testing.T) {
		u := domain.User{OTPCode: &code, OTPExpiresAt: &past}
		require.Equal(t, OTPExpired, svc.Check(u, code, now))
	})

	t.Run("mismatch", func(t *testing.T) {
		u := domain.User{OTPCode: &code, OTPExpiresAt: &future}
		require.Equal(t, OTPMismatch, svc.Check(u, "654321", now))
	})

	t.Run("valid", func(t *testing.T) {
		u := domain.User{OTPCode: &code, OTPExpiresAt: &future}
		require.Equal(t, OTPValid, svc.Check(u, code, now))
	})
}

func TestOTPService_IssueOverwrites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.Registration.PreRegister(ctx, "Alice", "alice@example.com"))
	u, err := env.Store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	first := *u.OTPCode

	now := time.Now().UTC()
	second, err := env.OTP.Issue(ctx, env.Store, u.ID, now)
	require.NoError(t, err)

	u, err = env.Store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, second, *u.OTPCode)

	if first != second {
		require.Equal(t, OTPMismatch, env.OTP.Check(u, first, now))
	}
	require.Equal(t, OTPValid, env.OTP.Check(u, second, now))
}

func TestOTPService_ClearIsGuarded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.Registration.PreRegister(ctx, "Alice", "alice@example.com"))
	u, err := env.Store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	code := *u.OTPCode

	// Issued codes never have a leading zero, so this can never match.
	t.Run("wrong code loses", func(t *testing.T) {
		err := env.OTP.Clear(ctx, env.Store, u.ID, "000000")
		require.True(t, errors.Is(err, store.ErrNotFound))
	})

	require.NoError(t, env.OTP.Clear(ctx, env.Store, u.ID, code))

	t.Run("second clear loses", func(t *testing.T) {
		err := env.OTP.Clear(ctx, env.Store, u.ID, code)
		require.True(t, errors.Is(err, store.ErrNotFound))
	})

	u, err = env.Store.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Nil(t, u.OTPCode)
	require.Nil(t, u.OTPExpiresAt)
}
