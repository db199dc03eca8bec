package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// Middleware validates bearer tokens and injects the principal into context.
type Middleware struct {
	issuer  *TokenIssuer
	revoker Revoker
}

// NewMiddleware constructs the auth middleware.
func NewMiddleware(issuer *TokenIssuer, revoker Revoker) *Middleware {
	return &Middleware{issuer: issuer, revoker: revoker}
}

// RequireAuth rejects requests without a valid, unrevoked bearer token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Error(w, fmt.Errorf("%w: missing bearer token", httpx.ErrUnauthorized))
			return
		}
		claims, err := m.issuer.Validate(token)
		if err != nil {
			httpx.Error(w, fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized))
			return
		}
		if m.revoker != nil && claims.IssuedAt != nil {
			revoked, err := m.revoker.IsRevoked(r.Context(), claims.UserID, claims.ID, claims.IssuedAt.Time)
			if err != nil {
				httpx.Error(w, err)
				return
			}
			if revoked {
				httpx.Error(w, fmt.Errorf("%w: token revoked", httpx.ErrUnauthorized))
				return
			}
		}
		ctx := shared.ContextWithPrincipal(r.Context(), claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group to the listed roles. It assumes RequireAuth
// already ran.
func RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Error(w, httpx.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Error(w, fmt.Errorf("%w: insufficient role", httpx.ErrForbidden))
		})
	}
}
