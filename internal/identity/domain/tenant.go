package domain

import "time"

// TenantType distinguishes the organisational scope a tenant models.
type TenantType string

const (
	TenantPersonal TenantType = "PERSONAL"
	TenantFamily   TenantType = "FAMILY"
	TenantBusiness TenantType = "BUSINESS"
)

// Tenant is an isolated organisational scope owning its own membership
// roster. A PERSONAL tenant is created automatically when registration
// completes.
type Tenant struct {
	ID        string
	Name      string
	Slug      string // unique, derived from the name
	Type      TenantType
	OwnerID   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership binds a user to a tenant with a role. The (tenant, user)
// pair is unique; rows are deactivated rather than deleted.
type Membership struct {
	ID        string
	TenantID  string
	UserID    string
	Role      Role
	InvitedBy *string // lookup-only back-reference, never ownership
	Active    bool
	JoinedAt  time.Time
}
