package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/cryptox"
	"github.com/moneylegal/identity/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeeping_Sweep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := registerUser(t, env, "Owner", "owner@example.com", "s3cret-password")
	now := time.Now().UTC()

	expiredToken := "long-dead-token"
	require.NoError(t, env.Store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    owner.User.ID,
		TokenHash: cryptox.FingerprintToken(expiredToken),
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
	}))

	staleInvitation := domain.Invitation{
		ID:        idx.New().String(),
		TenantID:  owner.Tenant.ID,
		Email:     "ghost@example.com",
		Code:      "STALE002",
		Role:      domain.RoleMember,
		InvitedBy: owner.User.ID,
		Status:    domain.InvitationPending,
		CreatedAt: now.Add(-8 * 24 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	}
	require.NoError(t, env.Store.Invitations().CreateInvitation(ctx, staleInvitation))

	hk := NewHousekeepingService(env.Store, slog.Default(), time.Hour)
	hk.Start()
	hk.Stop()

	t.Run("expired refresh tokens are deleted", func(t *testing.T) {
		_, err := env.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(expiredToken))
		require.True(t, errors.Is(err, store.ErrNotFound))
	})

	t.Run("live refresh tokens survive", func(t *testing.T) {
		_, err := env.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(owner.Tokens.RefreshToken))
		require.NoError(t, err)
	})

	t.Run("stale invitations are expired", func(t *testing.T) {
		inv, err := env.Store.Invitations().GetInvitationByID(ctx, staleInvitation.ID)
		require.NoError(t, err)
		require.Equal(t, domain.InvitationExpired, inv.Status)
	})
}
