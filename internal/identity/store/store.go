package store

import (
	"context"
	"errors"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Tenants() Tenants
	Memberships() Memberships
	Invitations() Invitations
	AccessRequests() AccessRequests

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Every
	// multi-record mutation must go through this.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback().
	Tx(ctx context.Context) (Tx, error)

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// ExistsByEmailWithPassword reports whether a fully-registered user
	// (non-null password hash) exists for the email, case-insensitively.
	ExistsByEmailWithPassword(ctx context.Context, email string) (bool, error)

	// ExistsByPhone reports whether any user already claims the phone.
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// UpdateName bumps updated_at.
	UpdateName(ctx context.Context, userID, name string) error

	// UpdatePasswordHash sets a new argon2id hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// CompleteRegistration is the funnel completion write: sets the
	// password hash and phone, activates the user and clears the OTP pair.
	CompleteRegistration(ctx context.Context, userID, passwordHash string, phone *string) error

	// SetOTP stores a fresh code and expiry, overwriting any prior
	// unconsumed code for the user.
	SetOTP(ctx context.Context, userID, code string, expiresAt time.Time) error

	// ClearOTP clears the code pair only when the stored code still equals
	// code, so concurrent consumers race on a single winner. Returns
	// ErrNotFound for the losers.
	ClearOTP(ctx context.Context, userID, code string) error

	// MarkEmailVerified sets email_verified=true.
	MarkEmailVerified(ctx context.Context, userID string) error

	// TouchLastLogin stamps last_login_at.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the row by token fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// ConsumeRefreshToken revokes the token identified by hash only if it
	// is still live. Exactly one concurrent caller wins; the rest get
	// ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) error

	// RevokeRefreshToken flips revoked=1 unconditionally (logout).
	RevokeRefreshToken(ctx context.Context, hash string, now time.Time) error

	// RevokeAllUserRefreshTokens revokes every live token of a user in one
	// statement (logout-all, password reset).
	RevokeAllUserRefreshTokens(ctx context.Context, userID string, now time.Time) error

	// CountLiveByUser is used by tests and housekeeping reporting.
	CountLiveByUser(ctx context.Context, userID string, now time.Time) (int, error)

	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type Tenants interface {
	CreateTenant(ctx context.Context, t domain.Tenant) error
	GetTenantByID(ctx context.Context, id string) (domain.Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	UpdateTenantName(ctx context.Context, tenantID, name string) error
	// DeleteTenant cascades to memberships and invitations (per schema).
	DeleteTenant(ctx context.Context, tenantID string) error
}

type Memberships interface {
	CreateMembership(ctx context.Context, m domain.Membership) error
	GetMembership(ctx context.Context, tenantID, userID string) (domain.Membership, error)
	GetMembershipByID(ctx context.Context, id string) (domain.Membership, error)

	// ListActiveByUser orders by joined_at then id so "first active
	// membership" selection is deterministic.
	ListActiveByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	ListActiveByTenant(ctx context.Context, tenantID string) ([]domain.Membership, error)

	UpdateRole(ctx context.Context, membershipID string, role domain.Role) error
	DeactivateMembership(ctx context.Context, membershipID string) error

	// ReactivateMembership revives a deactivated row with a new role,
	// guarded on is_active=false so it cannot clobber a live membership.
	ReactivateMembership(ctx context.Context, membershipID string, role domain.Role, invitedBy *string) error
}

type Invitations interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) error
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetPendingByCode returns a PENDING, unexpired invitation.
	GetPendingByCode(ctx context.Context, code string, now time.Time) (domain.Invitation, error)

	// ExistsPending reports whether a PENDING invitation already exists
	// for the (tenant, email) pair.
	ExistsPending(ctx context.Context, tenantID, email string) (bool, error)

	ListByTenant(ctx context.Context, tenantID string) ([]domain.Invitation, error)

	// MarkAccepted transitions PENDING -> ACCEPTED; the guard on the
	// current status makes the transition single-shot. ErrNotFound when
	// another caller already moved it to a terminal state.
	MarkAccepted(ctx context.Context, invitationID, userID string, at time.Time) error

	// MarkRejected / MarkCancelled are the remaining caller-driven
	// terminal transitions, guarded the same way.
	MarkRejected(ctx context.Context, invitationID string, at time.Time) error
	MarkCancelled(ctx context.Context, invitationID string) error

	// ExpireStale moves PENDING invitations past their expiry to EXPIRED
	// (housekeeping).
	ExpireStale(ctx context.Context, now time.Time) error
}

type AccessRequests interface {
	CreateAccessRequest(ctx context.Context, r domain.AccessRequest) error
	GetAccessRequestByID(ctx context.Context, id string) (domain.AccessRequest, error)
	ExistsPendingAccessRequest(ctx context.Context, tenantID, userID string) (bool, error)
	ListPendingByTenant(ctx context.Context, tenantID string) ([]domain.AccessRequest, error)

	// UpdateStatus transitions PENDING to a terminal status; guarded on
	// the current status like invitation transitions.
	UpdateStatus(ctx context.Context, requestID string, status domain.AccessRequestStatus) error
}
