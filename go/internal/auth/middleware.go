package auth

import (
	"context"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "auction_session"

type contextKey struct{}

// WithCapability attaches a capability to ctx.
func WithCapability(ctx context.Context, c *Capability) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// CapabilityFromContext returns the capability attached by CapabilityMiddleware, if any.
func CapabilityFromContext(ctx context.Context) (*Capability, bool) {
	c, ok := ctx.Value(contextKey{}).(*Capability)
	return c, ok && c != nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// CapabilityMiddleware resolves the request's session token, if present, into a
// capability on the request context. Requests without a valid token pass through
// anonymously; handlers decide whether that is enough.
func CapabilityMiddleware(sessions *SessionRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			c, err := sessions.Resolve(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCapability(r.Context(), c)))
		})
	}
}
