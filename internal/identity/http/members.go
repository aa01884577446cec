package http

import (
	"net/http"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/pkg/httpx"
)

// MemberHandler serves roster and invitation endpoints.
type MemberHandler struct {
	Members *service.MemberService
}

type memberListResponse struct {
	Members []MembershipDTO `json:"members"`
}

// HandleListMembers godoc
//
//	@Summary	List a tenant's active members
//	@Tags		Members
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Tenant id"
//	@Success	200	{object}	memberListResponse
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants/{id}/members [get]
func (h *MemberHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	members, err := h.Members.ListMembers(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := memberListResponse{Members: make([]MembershipDTO, 0, len(members))}
	for _, m := range members {
		out.Members = append(out.Members, toMembershipDTO(m))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type inviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleInvite godoc
//
//	@Summary		Invite a member by email
//	@Description	Creates a single-use invitation code valid for seven days. Requires admin.
//	@Tags			Members
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Tenant id"
//	@Param			body	body		inviteMemberRequest	true	"Email and proposed role"
//	@Success		201		{object}	InvitationDTO
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		403		{object}	httpx.ErrorBody
//	@Router			/api/v1/tenants/{id}/members/invite [post]
func (h *MemberHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := requireFields(map[string]string{"email": req.Email, "role": req.Role}); fields != nil {
		httpx.WriteValidationError(w, r, fields)
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		httpx.WriteValidationError(w, r, map[string]string{"role": "unknown role"})
		return
	}

	callerID := httpx.UserIDFromCtx(r.Context())
	inv, err := h.Members.InviteMember(r.Context(), callerID, r.PathValue("id"), req.Email, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toInvitationDTO(inv))
}

type invitationCodeRequest struct {
	Code string `json:"code"`
}

// HandleAcceptInvitation godoc
//
//	@Summary		Redeem an invitation code
//	@Description	The code must be pending, unexpired and addressed to the caller's email.
//	@Tags			Members
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		invitationCodeRequest	true	"Invitation code"
//	@Success		201		{object}	MembershipDTO
//	@Failure		400		{object}	httpx.ErrorBody
//	@Router			/api/v1/invitations/accept [post]
func (h *MemberHandler) HandleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitationCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		httpx.WriteValidationError(w, r, map[string]string{"code": "code is required"})
		return
	}

	callerID := httpx.UserIDFromCtx(r.Context())
	m, err := h.Members.AcceptInvitation(r.Context(), callerID, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toMembershipDTO(m))
}

// HandleRejectInvitation godoc
//
//	@Summary	Decline an invitation code
//	@Tags		Members
//	@Security	BearerAuth
//	@Accept		json
//	@Param		body	body	invitationCodeRequest	true	"Invitation code"
//	@Success	204
//	@Failure	400	{object}	httpx.ErrorBody
//	@Router		/api/v1/invitations/reject [post]
func (h *MemberHandler) HandleRejectInvitation(w http.ResponseWriter, r *http.Request) {
	var req invitationCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		httpx.WriteValidationError(w, r, map[string]string{"code": "code is required"})
		return
	}

	callerID := httpx.UserIDFromCtx(r.Context())
	if err := h.Members.RejectInvitation(r.Context(), callerID, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCancelInvitation godoc
//
//	@Summary	Withdraw a pending invitation (admin)
//	@Tags		Members
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Invitation id"
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/invitations/{id} [delete]
func (h *MemberHandler) HandleCancelInvitation(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	if err := h.Members.CancelInvitation(r.Context(), callerID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invitationListResponse struct {
	Invitations []InvitationDTO `json:"invitations"`
}

// HandleListInvitations godoc
//
//	@Summary	List a tenant's invitations (admin)
//	@Tags		Members
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Tenant id"
//	@Success	200	{object}	invitationListResponse
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants/{id}/invitations [get]
func (h *MemberHandler) HandleListInvitations(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	invs, err := h.Members.ListInvitations(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := invitationListResponse{Invitations: make([]InvitationDTO, 0, len(invs))}
	for _, inv := range invs {
		out.Invitations = append(out.Invitations, toInvitationDTO(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleRemoveMember godoc
//
//	@Summary	Deactivate a membership (admin; owners cannot be removed)
//	@Tags		Members
//	@Security	BearerAuth
//	@Param		id			path	string	true	"Tenant id"
//	@Param		memberId	path	string	true	"Membership id"
//	@Success	204
//	@Failure	400	{object}	httpx.ErrorBody
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants/{id}/members/{memberId} [delete]
func (h *MemberHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	err := h.Members.RemoveMember(r.Context(), callerID, r.PathValue("id"), r.PathValue("memberId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// HandleChangeRole godoc
//
//	@Summary		Change a member's role (owner)
//	@Description	Promotion must strictly raise the level, demotion strictly lower it; OWNER is immutable.
//	@Tags			Members
//	@Security		BearerAuth
//	@Accept			json
//	@Param			id			path	string				true	"Tenant id"
//	@Param			memberId	path	string				true	"Membership id"
//	@Param			body		body	changeRoleRequest	true	"Target role"
//	@Success		204
//	@Failure		400	{object}	httpx.ErrorBody
//	@Failure		403	{object}	httpx.ErrorBody
//	@Router			/api/v1/tenants/{id}/members/{memberId}/role [patch]
func (h *MemberHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		httpx.WriteValidationError(w, r, map[string]string{"role": "unknown role"})
		return
	}

	callerID := httpx.UserIDFromCtx(r.Context())
	err := h.Members.ChangeRole(r.Context(), callerID, r.PathValue("id"), r.PathValue("memberId"), role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
