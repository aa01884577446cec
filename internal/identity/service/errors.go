package service

import "errors"

// Business failures raised at the point of detection and translated to
// the HTTP shape at the boundary. Credential problems deliberately share
// one sentinel so responses cannot be used for account enumeration.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")

	ErrAlreadyRegistered = errors.New("already_registered")
	ErrEmailNotVerified  = errors.New("email_not_verified")
	ErrPhoneTaken        = errors.New("phone_taken")
	ErrInvalidResetCode  = errors.New("invalid_reset_code")

	ErrNoMembership = errors.New("no_tenant_membership")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")

	ErrAlreadyMember     = errors.New("already_member")
	ErrInvitationPending = errors.New("invitation_already_pending")
	ErrInvitationInvalid = errors.New("invitation_invalid")
	ErrInvitationEmail   = errors.New("invitation_email_mismatch")
	ErrRequestPending    = errors.New("access_request_already_pending")
	ErrInvalidRoleChange = errors.New("invalid_role_change")
	ErrOwnerImmutable    = errors.New("owner_role_immutable")
	ErrCannotRemoveOwner = errors.New("cannot_remove_owner")
	ErrInvalidTenantType = errors.New("invalid_tenant_type")
	ErrTenantInactive    = errors.New("tenant_inactive")
)
