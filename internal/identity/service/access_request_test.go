package service

import (
	"context"
	"testing"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/stretchr/testify/require"
)

func TestAccessRequestFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := registerUser(t, env, "Owner", "owner@example.com", "s3cret-password")
	applicant := registerUser(t, env, "Applicant", "applicant@example.com", "s3cret-password")
	tenantID := owner.Tenant.ID

	message := "let me in please"
	req, err := env.AccessRequests.Request(ctx, applicant.User.ID, tenantID, &message)
	require.NoError(t, err)
	require.Equal(t, domain.AccessRequestPending, req.Status)
	require.Equal(t, applicant.User.ID, req.UserID)

	t.Run("duplicate pending request is rejected", func(t *testing.T) {
		_, err := env.AccessRequests.Request(ctx, applicant.User.ID, tenantID, nil)
		require.ErrorIs(t, err, ErrRequestPending)
	})

	t.Run("unknown tenant is rejected", func(t *testing.T) {
		_, err := env.AccessRequests.Request(ctx, applicant.User.ID, "no-such-tenant", nil)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("members cannot request access", func(t *testing.T) {
		_, err := env.AccessRequests.Request(ctx, owner.User.ID, tenantID, nil)
		require.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("only admins list pending requests", func(t *testing.T) {
		pending, err := env.AccessRequests.ListPending(ctx, owner.User.ID, tenantID)
		require.NoError(t, err)
		require.Len(t, pending, 1)

		_, err = env.AccessRequests.ListPending(ctx, applicant.User.ID, tenantID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("only admins approve", func(t *testing.T) {
		_, err := env.AccessRequests.Approve(ctx, applicant.User.ID, req.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	membership, err := env.AccessRequests.Approve(ctx, owner.User.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, membership.Role)
	require.True(t, membership.Active)
	require.NotNil(t, membership.InvitedBy)
	require.Equal(t, owner.User.ID, *membership.InvitedBy)

	t.Run("approval is single shot", func(t *testing.T) {
		_, err := env.AccessRequests.Approve(ctx, owner.User.ID, req.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("approved requests leave the pending list", func(t *testing.T) {
		pending, err := env.AccessRequests.ListPending(ctx, owner.User.ID, tenantID)
		require.NoError(t, err)
		require.Empty(t, pending)
	})
}

func TestAccessRequest_Reject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := registerUser(t, env, "Owner", "owner@example.com", "s3cret-password")
	applicant := registerUser(t, env, "Applicant", "applicant@example.com", "s3cret-password")
	tenantID := owner.Tenant.ID

	req, err := env.AccessRequests.Request(ctx, applicant.User.ID, tenantID, nil)
	require.NoError(t, err)

	require.NoError(t, env.AccessRequests.Reject(ctx, owner.User.ID, req.ID))

	t.Run("no membership is created", func(t *testing.T) {
		_, err := env.Members.ListMembers(ctx, applicant.User.ID, tenantID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejection is terminal", func(t *testing.T) {
		_, err := env.AccessRequests.Approve(ctx, owner.User.ID, req.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("a fresh request can follow", func(t *testing.T) {
		_, err := env.AccessRequests.Request(ctx, applicant.User.ID, tenantID, nil)
		require.NoError(t, err)
	})
}

func TestAccessRequest_ApproveReactivatesFormerMember(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	owner := registerUser(t, env, "Owner", "owner@example.com", "s3cret-password")
	applicant := registerUser(t, env, "Applicant", "applicant@example.com", "s3cret-password")
	tenantID := owner.Tenant.ID

	req, err := env.AccessRequests.Request(ctx, applicant.User.ID, tenantID, nil)
	require.NoError(t, err)
	first, err := env.AccessRequests.Approve(ctx, owner.User.ID, req.ID)
	require.NoError(t, err)

	require.NoError(t, env.Members.RemoveMember(ctx, owner.User.ID, tenantID, first.ID))

	req, err = env.AccessRequests.Request(ctx, applicant.User.ID, tenantID, nil)
	require.NoError(t, err)
	revived, err := env.AccessRequests.Approve(ctx, owner.User.ID, req.ID)
	require.NoError(t, err)

	require.Equal(t, first.ID, revived.ID)
	require.Equal(t, domain.RoleMember, revived.Role)
	require.True(t, revived.Active)
}
