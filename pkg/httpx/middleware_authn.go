package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/moneylegal/identity/pkg/jwtx"
	"github.com/moneylegal/identity/pkg/slogx"
)

// TokenVerifier validates a compact token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (jwtx.Claims, error)
}

// AuthnMiddleware authenticates requests via the Authorization bearer
// header. Failures return 401 with a code that distinguishes expiry from
// everything else, so clients know when a silent refresh is worth trying.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, r, "TOKEN_MISSING", "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, r, classifyCode(err), "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

func classifyCode(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrEmpty):
		return "TOKEN_MISSING"
	case errors.Is(err, jwtx.ErrExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, jwtx.ErrInvalidSig):
		return "TOKEN_INVALID_SIGNATURE"
	case errors.Is(err, jwtx.ErrMalformed):
		return "TOKEN_MALFORMED"
	case errors.Is(err, jwtx.ErrUnsupported):
		return "TOKEN_UNSUPPORTED"
	case errors.Is(err, jwtx.ErrIssuer):
		return "TOKEN_ISSUER_MISMATCH"
	default:
		return "TOKEN_INVALID"
	}
}

// RFC 6750 bearer challenge plus the standard error envelope.
func writeBearerError(w http.ResponseWriter, r *http.Request, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, r, http.StatusUnauthorized, code, desc)
}
