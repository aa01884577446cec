package http

import (
	"errors"
	"net/http"

	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/pkg/httpx"
	"github.com/moneylegal/identity/pkg/slogx"
)

// writeServiceError translates service sentinels to the error envelope.
// Anything unrecognised becomes a logged 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := classifyServiceError(err)
	if status == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
	}
	httpx.WriteError(w, r, status, code, message)
}

func classifyServiceError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		// One message for unknown email, wrong password and inactive
		// account, so responses cannot enumerate accounts.
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"
	case errors.Is(err, service.ErrInvalidRefresh):
		return http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired"
	case errors.Is(err, service.ErrAlreadyRegistered):
		return http.StatusBadRequest, "ALREADY_REGISTERED", "An account already exists for this email"
	case errors.Is(err, service.ErrEmailNotVerified):
		return http.StatusBadRequest, "EMAIL_NOT_VERIFIED", "Email address has not been verified"
	case errors.Is(err, service.ErrPhoneTaken):
		return http.StatusConflict, "PHONE_TAKEN", "Phone number is already in use"
	case errors.Is(err, service.ErrInvalidResetCode):
		return http.StatusBadRequest, "INVALID_RESET_CODE", "Reset code is invalid or expired"
	case errors.Is(err, service.ErrNoMembership):
		return http.StatusBadRequest, "NO_TENANT_MEMBERSHIP", "Account has no active tenant membership"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "Insufficient role for this operation"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Resource not found"
	case errors.Is(err, service.ErrAlreadyMember):
		return http.StatusBadRequest, "ALREADY_MEMBER", "User is already a member of this tenant"
	case errors.Is(err, service.ErrInvitationPending):
		return http.StatusBadRequest, "INVITATION_PENDING", "An invitation is already pending for this email"
	case errors.Is(err, service.ErrInvitationInvalid):
		return http.StatusBadRequest, "INVITATION_INVALID", "Invitation code is invalid or expired"
	case errors.Is(err, service.ErrInvitationEmail):
		return http.StatusBadRequest, "INVITATION_EMAIL_MISMATCH", "Invitation was issued for a different email"
	case errors.Is(err, service.ErrRequestPending):
		return http.StatusBadRequest, "ACCESS_REQUEST_PENDING", "An access request is already pending"
	case errors.Is(err, service.ErrInvalidRoleChange):
		return http.StatusBadRequest, "INVALID_ROLE_CHANGE", "Requested role change is not allowed"
	case errors.Is(err, service.ErrOwnerImmutable):
		return http.StatusBadRequest, "OWNER_ROLE_IMMUTABLE", "Owner role cannot be changed"
	case errors.Is(err, service.ErrCannotRemoveOwner):
		return http.StatusBadRequest, "CANNOT_REMOVE_OWNER", "Tenant owner cannot be removed"
	case errors.Is(err, service.ErrInvalidTenantType):
		return http.StatusBadRequest, "INVALID_TENANT_TYPE", "Tenant type must be PERSONAL, FAMILY or BUSINESS"
	case errors.Is(err, service.ErrTenantInactive):
		return http.StatusBadRequest, "TENANT_INACTIVE", "Tenant is not active"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"
	}
}
