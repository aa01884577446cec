package http

import (
	"net/http"

	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/pkg/httpx"
)

// AccessRequestHandler serves the ask-to-join flow.
type AccessRequestHandler struct {
	Requests *service.AccessRequestService
}

type createAccessRequestRequest struct {
	TenantID string  `json:"tenantId"`
	Message  *string `json:"message,omitempty"`
}

// HandleCreate godoc
//
//	@Summary	Request access to a tenant
//	@Tags		AccessRequests
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		createAccessRequestRequest	true	"Tenant and optional message"
//	@Success	201		{object}	AccessRequestDTO
//	@Failure	400		{object}	httpx.ErrorBody
//	@Router		/api/v1/access-requests [post]
func (h *AccessRequestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAccessRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TenantID == "" {
		httpx.WriteValidationError(w, r, map[string]string{"tenantId": "tenantId is required"})
		return
	}

	callerID := httpx.UserIDFromCtx(r.Context())
	ar, err := h.Requests.Request(r.Context(), callerID, req.TenantID, req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAccessRequestDTO(ar))
}

type accessRequestListResponse struct {
	Requests []AccessRequestDTO `json:"requests"`
}

// HandleListPending godoc
//
//	@Summary	List a tenant's pending access requests (admin)
//	@Tags		AccessRequests
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Tenant id"
//	@Success	200	{object}	accessRequestListResponse
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants/{id}/access-requests [get]
func (h *AccessRequestHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	reqs, err := h.Requests.ListPending(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := accessRequestListResponse{Requests: make([]AccessRequestDTO, 0, len(reqs))}
	for _, ar := range reqs {
		out.Requests = append(out.Requests, toAccessRequestDTO(ar))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleApprove godoc
//
//	@Summary	Approve an access request, creating a MEMBER membership
//	@Tags		AccessRequests
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Access request id"
//	@Success	201	{object}	MembershipDTO
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/access-requests/{id}/approve [post]
func (h *AccessRequestHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	m, err := h.Requests.Approve(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toMembershipDTO(m))
}

// HandleReject godoc
//
//	@Summary	Reject an access request
//	@Tags		AccessRequests
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Access request id"
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/access-requests/{id}/reject [post]
func (h *AccessRequestHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	if err := h.Requests.Reject(r.Context(), callerID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
