package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moneylegal/identity/internal/identity/domain"
	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/pkg/httpx"
)

// maxBodyBytes caps request bodies; every payload here is small JSON.
const maxBodyBytes = 1 << 20

// decodeJSON parses a JSON body into dst. Unknown fields are rejected so
// client typos surface as 400s instead of silently ignored input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", "Malformed request body")
		return false
	}
	return true
}

type MessageResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

type CheckEmailResponse struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message"`
}

type VerifyCodeResponse struct {
	Message string `json:"message"`
	Valid   bool   `json:"valid"`
}

type UserDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         *string    `json:"phone,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	Active        bool       `json:"active"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type TenantDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Type      string    `json:"type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type MembershipDTO struct {
	ID       string    `json:"id"`
	TenantID string    `json:"tenantId"`
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	Active   bool      `json:"active"`
	JoinedAt time.Time `json:"joinedAt"`
}

type InvitationDTO struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenantId"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

type AccessRequestDTO struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	UserID    string    `json:"userId"`
	Message   *string   `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is the session envelope returned by register, login and
// refresh. ExpiresIn is the access-token lifetime in seconds.
type AuthResponse struct {
	AccessToken   string         `json:"accessToken"`
	RefreshToken  string         `json:"refreshToken"`
	TokenType     string         `json:"tokenType"`
	ExpiresIn     int64          `json:"expiresIn"`
	User          UserDTO        `json:"user"`
	DefaultTenant *TenantDTO     `json:"defaultTenant,omitempty"`
	Membership    *MembershipDTO `json:"membership,omitempty"`
}

func toUserDTO(u domain.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		EmailVerified: u.EmailVerified,
		Active:        u.Active,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

func toTenantDTO(t domain.Tenant) TenantDTO {
	return TenantDTO{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Type:      string(t.Type),
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
	}
}

func toMembershipDTO(m domain.Membership) MembershipDTO {
	return MembershipDTO{
		ID:       m.ID,
		TenantID: m.TenantID,
		UserID:   m.UserID,
		Role:     m.Role.String(),
		Active:   m.Active,
		JoinedAt: m.JoinedAt,
	}
}

func toInvitationDTO(i domain.Invitation) InvitationDTO {
	return InvitationDTO{
		ID:         i.ID,
		TenantID:   i.TenantID,
		Email:      i.Email,
		Role:       i.Role.String(),
		Status:     string(i.Status),
		CreatedAt:  i.CreatedAt,
		ExpiresAt:  i.ExpiresAt,
		AcceptedAt: i.AcceptedAt,
	}
}

func toAccessRequestDTO(r domain.AccessRequest) AccessRequestDTO {
	return AccessRequestDTO{
		ID:        r.ID,
		TenantID:  r.TenantID,
		UserID:    r.UserID,
		Message:   r.Message,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

func toAuthResponse(res service.AuthResult) AuthResponse {
	out := AuthResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		TokenType:    res.Tokens.TokenType,
		ExpiresIn:    int64(res.Tokens.ExpiresIn.Seconds()),
		User:         toUserDTO(res.User),
	}
	if res.Tenant.ID != "" {
		t := toTenantDTO(res.Tenant)
		m := toMembershipDTO(res.Membership)
		out.DefaultTenant = &t
		out.Membership = &m
	}
	return out
}
