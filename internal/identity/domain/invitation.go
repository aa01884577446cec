package domain

import "time"

// InvitationStatus is the invitation state. PENDING transitions exactly
// once to one of the terminal states.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationRejected  InvitationStatus = "REJECTED"
	InvitationCancelled InvitationStatus = "CANCELLED"
	InvitationExpired   InvitationStatus = "EXPIRED"
)

// Invitation is a code-based offer of tenant membership. The code is
// globally unique and single-use.
type Invitation struct {
	ID         string
	TenantID   string
	Email      string
	Code       string
	Role       Role
	InvitedBy  string
	Status     InvitationStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time // CreatedAt + 7 days
	AcceptedAt *time.Time
	AcceptedBy *string
	RejectedAt *time.Time
}

// Redeemable reports whether the invitation can still be accepted.
func (i Invitation) Redeemable(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}

// AccessRequestStatus tracks a user-initiated request to join a tenant.
type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "PENDING"
	AccessRequestApproved AccessRequestStatus = "APPROVED"
	AccessRequestRejected AccessRequestStatus = "REJECTED"
)

// AccessRequest is the inverse of an invitation: the user asks, an admin
// decides. Approval creates a MEMBER membership.
type AccessRequest struct {
	ID        string
	TenantID  string
	UserID    string
	Message   *string
	Status    AccessRequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
