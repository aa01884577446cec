package http

import (
	"net/http"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/pkg/httpx"
)

// TenantHandler serves tenant lifecycle endpoints. All of them require a
// bearer token; role checks happen in the service layer against the
// caller's live membership.
type TenantHandler struct {
	Tenants *service.TenantService
}

type createTenantRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type tenantListResponse struct {
	Tenants     []TenantDTO     `json:"tenants"`
	Memberships []MembershipDTO `json:"memberships"`
}

type tenantResponse struct {
	Tenant     TenantDTO     `json:"tenant"`
	Membership MembershipDTO `json:"membership"`
}

// HandleCreate godoc
//
//	@Summary	Create a tenant with the caller as owner
//	@Tags		Tenants
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		createTenantRequest	true	"Name and type"
//	@Success	201		{object}	TenantDTO
//	@Failure	400		{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants [post]
func (h *TenantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := requireFields(map[string]string{"name": req.Name, "type": req.Type}); fields != nil {
		httpx.WriteValidationError(w, r, fields)
		return
	}

	callerID := httpx.UserIDFromCtx(r.Context())
	tenant, err := h.Tenants.CreateTenant(r.Context(), callerID, req.Name, domain.TenantType(req.Type))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTenantDTO(tenant))
}

// HandleList godoc
//
//	@Summary	List the caller's tenants
//	@Tags		Tenants
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	tenantListResponse
//	@Router		/api/v1/tenants [get]
func (h *TenantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	tenants, memberships, err := h.Tenants.ListUserTenants(r.Context(), callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := tenantListResponse{
		Tenants:     make([]TenantDTO, 0, len(tenants)),
		Memberships: make([]MembershipDTO, 0, len(memberships)),
	}
	for _, t := range tenants {
		out.Tenants = append(out.Tenants, toTenantDTO(t))
	}
	for _, m := range memberships {
		out.Memberships = append(out.Memberships, toMembershipDTO(m))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet godoc
//
//	@Summary	Get a tenant the caller belongs to
//	@Tags		Tenants
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Tenant id"
//	@Success	200	{object}	tenantResponse
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants/{id} [get]
func (h *TenantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	tenant, membership, err := h.Tenants.GetTenant(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tenantResponse{
		Tenant:     toTenantDTO(tenant),
		Membership: toMembershipDTO(membership),
	})
}

type updateTenantRequest struct {
	Name string `json:"name"`
}

// HandleUpdate godoc
//
//	@Summary	Rename a tenant (owner only)
//	@Tags		Tenants
//	@Security	BearerAuth
//	@Accept		json
//	@Param		id		path	string				true	"Tenant id"
//	@Param		body	body	updateTenantRequest	true	"New name"
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants/{id} [patch]
func (h *TenantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		httpx.WriteValidationError(w, r, map[string]string{"name": "name is required"})
		return
	}

	callerID := httpx.UserIDFromCtx(r.Context())
	if err := h.Tenants.UpdateTenant(r.Context(), callerID, r.PathValue("id"), req.Name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete godoc
//
//	@Summary	Delete a tenant (owner only)
//	@Tags		Tenants
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Tenant id"
//	@Success	204
//	@Failure	403	{object}	httpx.ErrorBody
//	@Router		/api/v1/tenants/{id} [delete]
func (h *TenantHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID := httpx.UserIDFromCtx(r.Context())
	if err := h.Tenants.DeleteTenant(r.Context(), callerID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
