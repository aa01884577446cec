package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/moneylegal/identity/internal/identity/service"
	"github.com/moneylegal/identity/internal/identity/store"
	"github.com/moneylegal/identity/pkg/httpx"
	"github.com/moneylegal/identity/pkg/slogx"

	_ "github.com/moneylegal/identity/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     httpx.TokenVerifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Registration   *service.RegistrationService
	Sessions       *service.SessionService
	PasswordReset  *service.PasswordResetService
	Tenants        *service.TenantService
	Members        *service.MemberService
	AccessRequests *service.AccessRequestService
}

func NewRouter(verifier httpx.TokenVerifier, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTenants()
	r.registerMembers()
	r.registerAccessRequests()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain.
//
//	@title			Identity Service API
//	@version		0.1.0
//	@description	Identity, session and tenant-authorization service: OTP-gated registration, rotating refresh tokens and role-based tenant membership.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Registration:  r.Registration,
		Sessions:      r.Sessions,
		PasswordReset: r.PasswordReset,
	}

	// Public funnel endpoints. Strict limits on anything that sends mail
	// or verifies credentials, keyed by IP plus the submitted email where
	// it makes brute force cheap.
	r.Mux.Handle("POST /api/v1/auth/pre-register",
		httpx.Chain(http.HandlerFunc(h.HandlePreRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /api/v1/auth/check-email",
		httpx.Chain(http.HandlerFunc(h.HandleCheckEmail),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/verify-reset-code",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyResetCode),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Authenticated.
	r.Mux.Handle("POST /api/v1/auth/logout-all",
		httpx.Chain(http.HandlerFunc(h.HandleLogoutAll),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTenants() {
	h := &TenantHandler{Tenants: r.Tenants}

	r.Mux.Handle("POST /api/v1/tenants", r.secured(http.HandlerFunc(h.HandleCreate), httpx.ModerateLimit))
	r.Mux.Handle("GET /api/v1/tenants", r.secured(http.HandlerFunc(h.HandleList), httpx.LenientLimit))
	r.Mux.Handle("GET /api/v1/tenants/{id}", r.secured(http.HandlerFunc(h.HandleGet), httpx.LenientLimit))
	r.Mux.Handle("PATCH /api/v1/tenants/{id}", r.secured(http.HandlerFunc(h.HandleUpdate), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /api/v1/tenants/{id}", r.secured(http.HandlerFunc(h.HandleDelete), httpx.ModerateLimit))
}

func (r *Router) registerMembers() {
	h := &MemberHandler{Members: r.Members}

	r.Mux.Handle("GET /api/v1/tenants/{id}/members", r.secured(http.HandlerFunc(h.HandleListMembers), httpx.LenientLimit))
	r.Mux.Handle("POST /api/v1/tenants/{id}/members/invite", r.secured(http.HandlerFunc(h.HandleInvite), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /api/v1/tenants/{id}/members/{memberId}", r.secured(http.HandlerFunc(h.HandleRemoveMember), httpx.ModerateLimit))
	r.Mux.Handle("PATCH /api/v1/tenants/{id}/members/{memberId}/role", r.secured(http.HandlerFunc(h.HandleChangeRole), httpx.ModerateLimit))

	// Code redemption gets the strict profile: codes are guessable input.
	r.Mux.Handle("POST /api/v1/invitations/accept", r.secured(http.HandlerFunc(h.HandleAcceptInvitation), httpx.StrictLimit))
	r.Mux.Handle("POST /api/v1/invitations/reject", r.secured(http.HandlerFunc(h.HandleRejectInvitation), httpx.StrictLimit))
	r.Mux.Handle("DELETE /api/v1/invitations/{id}", r.secured(http.HandlerFunc(h.HandleCancelInvitation), httpx.ModerateLimit))
	r.Mux.Handle("GET /api/v1/tenants/{id}/invitations", r.secured(http.HandlerFunc(h.HandleListInvitations), httpx.LenientLimit))
}

func (r *Router) registerAccessRequests() {
	h := &AccessRequestHandler{Requests: r.AccessRequests}

	r.Mux.Handle("POST /api/v1/access-requests", r.secured(http.HandlerFunc(h.HandleCreate), httpx.ModerateLimit))
	r.Mux.Handle("GET /api/v1/tenants/{id}/access-requests", r.secured(http.HandlerFunc(h.HandleListPending), httpx.LenientLimit))
	r.Mux.Handle("POST /api/v1/access-requests/{id}/approve", r.secured(http.HandlerFunc(h.HandleApprove), httpx.ModerateLimit))
	r.Mux.Handle("POST /api/v1/access-requests/{id}/reject", r.secured(http.HandlerFunc(h.HandleReject), httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

// secured wraps a handler with bearer authentication and a per-user rate
// limit.
func (r *Router) secured(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(limit),
	)
}
