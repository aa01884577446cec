package service

import (
	"context"
	"errors"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/notify"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/idx"
	"github.com/moneylegal/identity/pkg/otpx"
	"github.com/moneylegal/identity/pkg/slogx"
)

// DefaultInvitationTTL is the lifetime of an invitation code.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// inviteCodeRetries bounds the unique-code generation loop. The code
// space is 36^8, so a second collision in a row means something is wrong.
const inviteCodeRetries = 3

// MemberService manages the tenant roster: listing, code-based
// invitations, removal and role changes. Every mutation re-reads the
// caller's live membership before acting.
type MemberService struct {
	Store     store.Store
	Generator *otpx.Generator
	Notify    Notifier
	TTL       time.Duration
}

func (s *MemberService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultInvitationTTL
}

// ListMembers returns the tenant's active memberships. Any active member
// may look at the roster.
func (s *MemberService) ListMembers(ctx context.Context, callerID, tenantID string) ([]domain.Membership, error) {
	if _, err := s.requireActive(ctx, callerID, tenantID); err != nil {
		return nil, err
	}
	return s.Store.Memberships().ListActiveByTenant(ctx, tenantID)
}

// InviteMember creates a PENDING invitation carrying a single-use code
// and queues the invitation mail. Requires canManageMembers; at most one
// PENDING invitation may exist per (tenant, email).
func (s *MemberService) InviteMember(ctx context.Context, callerID, tenantID, email string, role domain.Role) (domain.Invitation, error) {
	caller, err := s.requireActive(ctx, callerID, tenantID)
	if err != nil {
		return domain.Invitation{}, err
	}
	if !domain.CanManageMembers(caller) {
		return domain.Invitation{}, ErrForbidden
	}
	if !role.Valid() || role == domain.RoleOwner {
		return domain.Invitation{}, ErrInvalidRoleChange
	}

	email = normalizeEmail(email)
	now := time.Now().UTC()

	// Reject if the target already holds an active membership.
	if target, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		m, err := s.Store.Memberships().GetMembership(ctx, tenantID, target.ID)
		if err == nil && m.Active {
			return domain.Invitation{}, ErrAlreadyMember
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, err
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Invitation{}, err
	}

	pending, err := s.Store.Invitations().ExistsPending(ctx, tenantID, email)
	if err != nil {
		return domain.Invitation{}, err
	}
	if pending {
		return domain.Invitation{}, ErrInvitationPending
	}

	tenant, err := s.Store.Tenants().GetTenantByID(ctx, tenantID)
	if err != nil {
		return domain.Invitation{}, err
	}

	inv := domain.Invitation{
		ID:        idx.New().String(),
		TenantID:  tenantID,
		Email:     email,
		Role:      role,
		InvitedBy: callerID,
		Status:    domain.InvitationPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	for attempt := 0; ; attempt++ {
		inv.Code, err = s.Generator.InviteCode()
		if err != nil {
			return domain.Invitation{}, err
		}
		err = s.Store.Invitations().CreateInvitation(ctx, inv)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrAlreadyExists) && attempt < inviteCodeRetries {
			continue
		}
		return domain.Invitation{}, err
	}

	slogx.FromContext(ctx).Info("invitation created",
		"tenant_id", tenantID, "invitation_id", inv.ID, "role", role.String())
	s.Notify.Enqueue(notify.Message{
		Kind: notify.KindInvitation,
		To:   email,
		Vars: map[string]string{"code": inv.Code, "tenant": tenant.Name},
	})
	return inv, nil
}

// AcceptInvitation redeems a code for the calling user. The invitation
// must be PENDING, unexpired, and addressed to the caller's email; the
// PENDING->ACCEPTED transition is guarded so a replayed code loses.
func (s *MemberService) AcceptInvitation(ctx context.Context, callerID, code string) (domain.Membership, error) {
	now := time.Now().UTC()

	caller, err := s.Store.Users().GetUserByID(ctx, callerID)
	if err != nil {
		return domain.Membership{}, err
	}

	var membership domain.Membership
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invitations().GetPendingByCode(ctx, code, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationInvalid
			}
			return err
		}
		if inv.Email != normalizeEmail(caller.Email) {
			return ErrInvitationEmail
		}

		if err := tx.Invitations().MarkAccepted(ctx, inv.ID, callerID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationInvalid
			}
			return err
		}

		existing, err := tx.Memberships().GetMembership(ctx, inv.TenantID, callerID)
		switch {
		case err == nil && existing.Active:
			return ErrAlreadyMember
		case err == nil:
			// Deactivated member returning via a fresh invitation.
			if err := tx.Memberships().ReactivateMembership(ctx, existing.ID, inv.Role, &inv.InvitedBy); err != nil {
				return err
			}
			existing.Active = true
			existing.Role = inv.Role
			existing.InvitedBy = &inv.InvitedBy
			membership = existing
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		membership = domain.Membership{
			ID:        idx.New().String(),
			TenantID:  inv.TenantID,
			UserID:    callerID,
			Role:      inv.Role,
			InvitedBy: &inv.InvitedBy,
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

// RejectInvitation lets the addressee decline a pending code.
func (s *MemberService) RejectInvitation(ctx context.Context, callerID, code string) error {
	now := time.Now().UTC()

	caller, err := s.Store.Users().GetUserByID(ctx, callerID)
	if err != nil {
		return err
	}

	inv, err := s.Store.Invitations().GetPendingByCode(ctx, code, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationInvalid
		}
		return err
	}
	if inv.Email != normalizeEmail(caller.Email) {
		return ErrInvitationEmail
	}

	err = s.Store.Invitations().MarkRejected(ctx, inv.ID, now)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvitationInvalid
	}
	return err
}

// CancelInvitation withdraws a pending invitation. Requires
// canManageMembers on the invitation's tenant.
func (s *MemberService) CancelInvitation(ctx context.Context, callerID, invitationID string) error {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	caller, err := s.requireActive(ctx, callerID, inv.TenantID)
	if err != nil {
		return err
	}
	if !domain.CanManageMembers(caller) {
		return ErrForbidden
	}

	err = s.Store.Invitations().MarkCancelled(ctx, invitationID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvitationInvalid
	}
	return err
}

// ListInvitations returns every invitation for the tenant, newest first.
// Requires canManageMembers.
func (s *MemberService) ListInvitations(ctx context.Context, callerID, tenantID string) ([]domain.Invitation, error) {
	caller, err := s.requireActive(ctx, callerID, tenantID)
	if err != nil {
		return nil, err
	}
	if !domain.CanManageMembers(caller) {
		return nil, ErrForbidden
	}
	return s.Store.Invitations().ListByTenant(ctx, tenantID)
}

// RemoveMember deactivates a membership. Owners can never be removed;
// that keeps every tenant with exactly one active OWNER at all times.
func (s *MemberService) RemoveMember(ctx context.Context, callerID, tenantID, membershipID string) error {
	caller, err := s.requireActive(ctx, callerID, tenantID)
	if err != nil {
		return err
	}
	if !domain.CanManageMembers(caller) {
		return ErrForbidden
	}

	target, err := s.Store.Memberships().GetMembershipByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if target.TenantID != tenantID {
		return ErrNotFound
	}
	if target.Role == domain.RoleOwner {
		return ErrCannotRemoveOwner
	}
	return s.Store.Memberships().DeactivateMembership(ctx, membershipID)
}

// ChangeRole promotes or demotes a member. Only the owner may change
// roles. Promotion must strictly raise the level, demotion strictly
// lower it, and OWNER is immutable in both directions.
func (s *MemberService) ChangeRole(ctx context.Context, callerID, tenantID, membershipID string, target domain.Role) error {
	caller, err := s.requireActive(ctx, callerID, tenantID)
	if err != nil {
		return err
	}
	if !domain.CanManageTenant(caller) {
		return ErrForbidden
	}
	if !target.Valid() || target == domain.RoleOwner {
		return ErrInvalidRoleChange
	}

	m, err := s.Store.Memberships().GetMembershipByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if m.TenantID != tenantID || !m.Active {
		return ErrNotFound
	}
	if m.Role == domain.RoleOwner {
		return ErrOwnerImmutable
	}

	var next domain.Role
	var ok bool
	if target > m.Role {
		next, ok = domain.Promote(m.Role, target)
	} else {
		next, ok = domain.Demote(m.Role, target)
	}
	if !ok {
		return ErrInvalidRoleChange
	}

	return s.Store.Memberships().UpdateRole(ctx, membershipID, next)
}

func (s *MemberService) requireActive(ctx context.Context, userID, tenantID string) (domain.Membership, error) {
	m, err := s.Store.Memberships().GetMembership(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Membership{}, ErrForbidden
		}
		return domain.Membership{}, err
	}
	if !m.Active {
		return domain.Membership{}, ErrForbidden
	}
	return m, nil
}
