package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefreshToken_Live(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	require.True(t, RefreshToken{ExpiresAt: now.Add(time.Hour)}.Live(now))
	require.False(t, RefreshToken{ExpiresAt: now.Add(-time.Second)}.Live(now))
	require.False(t, RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}.Live(now))
}

func TestInvitation_Redeemable(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	require.True(t, Invitation{Status: InvitationPending, ExpiresAt: now.Add(time.Hour)}.Redeemable(now))
	require.False(t, Invitation{Status: InvitationPending, ExpiresAt: now.Add(-time.Second)}.Redeemable(now))

	for _, status := range []InvitationStatus{InvitationAccepted, InvitationRejected, InvitationCancelled, InvitationExpired} {
		require.False(t, Invitation{Status: status, ExpiresAt: now.Add(time.Hour)}.Redeemable(now))
	}
}
