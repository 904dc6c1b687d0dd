package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/slotbook/libs/auth"
)

// Headers set by a trusted upstream gateway.
const (
	UserIDHeader = "X-User-Id"
	RoleHeader   = "X-Role"
)

// Identity is the caller as established by WithIdentity. Role is passed
// through unvalidated; services decide what a role may do.
type Identity struct {
	ID   string
	Role string
}

type IdentityConfig struct {
	// Secret verifies HS256 bearer tokens. Empty disables bearer auth.
	Secret string
	// TrustHeaders accepts X-User-Id/X-Role when no bearer token is sent.
	TrustHeaders bool
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok && id.ID != ""
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// WithIdentity attaches the caller to the request context. A bad bearer token
// is rejected with 401; a missing one leaves the request anonymous.
func WithIdentity(cfg IdentityConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") && cfg.Secret != "" {
				token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				claims, err := auth.ParseAndVerifyHS256(token, cfg.Secret)
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				id := Identity{ID: claims.Subject, Role: claims.Role}
				r.Header.Set(UserIDHeader, id.ID)
				r.Header.Set(RoleHeader, id.Role)
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
				return
			}

			if cfg.TrustHeaders {
				id := Identity{
					ID:   strings.TrimSpace(r.Header.Get(UserIDHeader)),
					Role: strings.TrimSpace(r.Header.Get(RoleHeader)),
				}
				if id.ID != "" {
					next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
					return
				}
			}

			r.Header.Del(UserIDHeader)
			r.Header.Del(RoleHeader)
			next.ServeHTTP(w, r)
		})
	}
}
