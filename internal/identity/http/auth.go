package http

import (
	"net/http"
	"strings"

	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/pkg/httpx"
)

// AuthHandler serves the public authentication surface: the signup
// funnel, sessions and the password-reset flow.
type AuthHandler struct {
	Registration  *service.RegistrationService
	Sessions      *service.SessionService
	PasswordReset *service.PasswordResetService
}

type preRegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandlePreRegister godoc
//
//	@Summary		Start the registration funnel
//	@Description	Creates (or resumes) a pre-registration and emails a verification code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		preRegisterRequest	true	"Name and email"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Router			/api/v1/auth/pre-register [post]
func (h *AuthHandler) HandlePreRegister(w http.ResponseWriter, r *http.Request) {
	var req preRegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := requireFields(map[string]string{"name": req.Name, "email": req.Email}); fields != nil {
		httpx.WriteValidationError(w, r, fields)
		return
	}

	if err := h.Registration.PreRegister(r.Context(), req.Name, req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "Verification code sent",
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
	})
}

// HandleCheckEmail godoc
//
//	@Summary	Check whether an email has a completed account
//	@Tags		Auth
//	@Produce	json
//	@Param		email	query		string	true	"Email to check"
//	@Success	200		{object}	CheckEmailResponse
//	@Failure	400		{object}	httpx.ErrorBody
//	@Router		/api/v1/auth/check-email [get]
func (h *AuthHandler) HandleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httpx.WriteValidationError(w, r, map[string]string{"email": "email is required"})
		return
	}

	exists, err := h.Registration.CheckEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "Email is available"
	if exists {
		msg = "Email is already registered"
	}
	httpx.WriteJSON(w, http.StatusOK, CheckEmailResponse{Exists: exists, Message: msg})
}

type registerRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
	Password string  `json:"password"`
}

// HandleRegister godoc
//
//	@Summary		Complete registration
//	@Description	Finishes the funnel (or creates a legacy direct account), creating the personal tenant and first session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest	true	"Registration payload"
//	@Success		200		{object}	AuthResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Failure		409		{object}	httpx.ErrorBody
//	@Router			/api/v1/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := requireFields(map[string]string{
		"name": req.Name, "email": req.Email, "password": req.Password,
	}); fields != nil {
		httpx.WriteValidationError(w, r, fields)
		return
	}

	res, err := h.Registration.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuthResponse(res))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin godoc
//
//	@Summary	Authenticate and open a session
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"Credentials"
//	@Success	200		{object}	AuthResponse
//	@Failure	401		{object}	httpx.ErrorBody
//	@Router		/api/v1/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := requireFields(map[string]string{"email": req.Email, "password": req.Password}); fields != nil {
		httpx.WriteValidationError(w, r, fields)
		return
	}

	res, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuthResponse(res))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh godoc
//
//	@Summary		Rotate a refresh token
//	@Description	Consumes the presented refresh token and issues a new access/refresh pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		refreshRequest	true	"Refresh token"
//	@Success		200		{object}	AuthResponse
//	@Failure		401		{object}	httpx.ErrorBody
//	@Router			/api/v1/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteValidationError(w, r, map[string]string{"refreshToken": "refreshToken is required"})
		return
	}

	res, err := h.Sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAuthResponse(res))
}

// HandleLogout godoc
//
//	@Summary	Revoke the presented refresh token
//	@Tags		Auth
//	@Accept		json
//	@Success	204
//	@Router		/api/v1/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Sessions.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutAll godoc
//
//	@Summary	Revoke every session of the authenticated user
//	@Tags		Auth
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	httpx.ErrorBody
//	@Router		/api/v1/auth/logout-all [post]
func (h *AuthHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromCtx(r.Context())
	if err := h.Sessions.LogoutAll(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword godoc
//
//	@Summary		Request a password-reset code
//	@Description	Always returns success regardless of whether the email exists.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		forgotPasswordRequest	true	"Email"
//	@Success		200		{object}	MessageResponse
//	@Router			/api/v1/auth/forgot-password [post]
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httpx.WriteValidationError(w, r, map[string]string{"email": "email is required"})
		return
	}

	// Success-shaped regardless of internal outcome.
	_ = h.PasswordReset.ForgotPassword(r.Context(), req.Email)
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: "If the email exists, a reset code has been sent",
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
	})
}

type verifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// HandleVerifyResetCode godoc
//
//	@Summary		Check a reset/verification code
//	@Description	Valid codes during signup additionally mark the email verified. The code is not consumed.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		verifyResetCodeRequest	true	"Email and code"
//	@Success		200		{object}	VerifyCodeResponse
//	@Router			/api/v1/auth/verify-reset-code [post]
func (h *AuthHandler) HandleVerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyResetCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := requireFields(map[string]string{"email": req.Email, "code": req.Code}); fields != nil {
		httpx.WriteValidationError(w, r, fields)
		return
	}

	valid, err := h.PasswordReset.VerifyResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "Code is invalid or expired"
	if valid {
		msg = "Code verified"
	}
	httpx.WriteJSON(w, http.StatusOK, VerifyCodeResponse{Message: msg, Valid: valid})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// HandleResetPassword godoc
//
//	@Summary		Reset the password with a valid code
//	@Description	Consumes the code, installs the new password and revokes every live session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		resetPasswordRequest	true	"Email, code and new password"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	httpx.ErrorBody
//	@Router			/api/v1/auth/reset-password [post]
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := requireFields(map[string]string{
		"email": req.Email, "code": req.Code, "newPassword": req.NewPassword,
	}); fields != nil {
		httpx.WriteValidationError(w, r, fields)
		return
	}

	if err := h.PasswordReset.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password updated"})
}

// requireFields returns a field->message map for every empty value, or
// nil when all are present.
func requireFields(fields map[string]string) map[string]string {
	var missing map[string]string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			if missing == nil {
				missing = make(map[string]string)
			}
			missing[name] = name + " is required"
		}
	}
	return missing
}
