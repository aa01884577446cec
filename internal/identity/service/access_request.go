package service

import (
	"context"
	"errors"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/idx"
)

// AccessRequestService is the inverse of invitations: a user asks to join
// a tenant and an admin decides. Approval creates a MEMBER membership in
// the same transaction as the status flip.
type AccessRequestService struct {
	Store store.Store
}

// Request files a PENDING access request. The caller must not already be
// an active member and at most one PENDING request may exist per
// (tenant, user).
func (s *AccessRequestService) Request(ctx context.Context, callerID, tenantID string, message *string) (domain.AccessRequest, error) {
	if _, err := s.Store.Tenants().GetTenantByID(ctx, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccessRequest{}, ErrNotFound
		}
		return domain.AccessRequest{}, err
	}

	m, err := s.Store.Memberships().GetMembership(ctx, tenantID, callerID)
	if err == nil && m.Active {
		return domain.AccessRequest{}, ErrAlreadyMember
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.AccessRequest{}, err
	}

	pending, err := s.Store.AccessRequests().ExistsPendingAccessRequest(ctx, tenantID, callerID)
	if err != nil {
		return domain.AccessRequest{}, err
	}
	if pending {
		return domain.AccessRequest{}, ErrRequestPending
	}

	now := time.Now().UTC()
	req := domain.AccessRequest{
		ID:        idx.New().String(),
		TenantID:  tenantID,
		UserID:    callerID,
		Message:   message,
		Status:    domain.AccessRequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.AccessRequests().CreateAccessRequest(ctx, req); err != nil {
		return domain.AccessRequest{}, err
	}
	return req, nil
}

// ListPending returns the tenant's open requests. Requires
// canManageMembers.
func (s *AccessRequestService) ListPending(ctx context.Context, callerID, tenantID string) ([]domain.AccessRequest, error) {
	if _, err := s.adminMembership(ctx, callerID, tenantID); err != nil {
		return nil, err
	}
	return s.Store.AccessRequests().ListPendingByTenant(ctx, tenantID)
}

// Approve flips the request to APPROVED and creates (or revives) a
// MEMBER membership atomically. The status guard makes the decision
// single-shot under concurrent admins.
func (s *AccessRequestService) Approve(ctx context.Context, callerID, requestID string) (domain.Membership, error) {
	req, err := s.Store.AccessRequests().GetAccessRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Membership{}, ErrNotFound
		}
		return domain.Membership{}, err
	}
	if _, err := s.adminMembership(ctx, callerID, req.TenantID); err != nil {
		return domain.Membership{}, err
	}

	now := time.Now().UTC()
	var membership domain.Membership
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AccessRequests().UpdateStatus(ctx, requestID, domain.AccessRequestApproved); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		existing, err := tx.Memberships().GetMembership(ctx, req.TenantID, req.UserID)
		switch {
		case err == nil && existing.Active:
			return ErrAlreadyMember
		case err == nil:
			if err := tx.Memberships().ReactivateMembership(ctx, existing.ID, domain.RoleMember, &callerID); err != nil {
				return err
			}
			existing.Active = true
			existing.Role = domain.RoleMember
			existing.InvitedBy = &callerID
			membership = existing
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		membership = domain.Membership{
			ID:        idx.New().String(),
			TenantID:  req.TenantID,
			UserID:    req.UserID,
			Role:      domain.RoleMember,
			InvitedBy: &callerID,
			Active:    true,
			JoinedAt:  now,
		}
		return tx.Memberships().CreateMembership(ctx, membership)
	})
	if err != nil {
		return domain.Membership{}, err
	}
	return membership, nil
}

// Reject closes the request without creating a membership.
func (s *AccessRequestService) Reject(ctx context.Context, callerID, requestID string) error {
	req, err := s.Store.AccessRequests().GetAccessRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if _, err := s.adminMembership(ctx, callerID, req.TenantID); err != nil {
		return err
	}

	err = s.Store.AccessRequests().UpdateStatus(ctx, requestID, domain.AccessRequestRejected)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *AccessRequestService) adminMembership(ctx context.Context, userID, tenantID string) (domain.Membership, error) {
	m, err := s.Store.Memberships().GetMembership(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Membership{}, ErrForbidden
		}
		return domain.Membership{}, err
	}
	if !domain.CanManageMembers(m) {
		return domain.Membership{}, ErrForbidden
	}
	return m, nil
}
