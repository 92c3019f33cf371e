package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/terramo-esg/terramo/internal/session"
)

type authCtxKey int

const authKey authCtxKey = 7

// WithAuth attaches verified claims to the context when a valid bearer
// token is present. Invalid tokens are ignored here; RequireAuth rejects.
func WithAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if strings.HasPrefix(h, "Bearer ") {
				tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
				if c, err := session.Verify(secret, tok); err == nil {
					ctx := context.WithValue(r.Context(), authKey, c)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Authentication credentials were not provided."}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	c, ok := ctx.Value(authKey).(*session.Claims)
	return c, ok && c != nil
}

// ContextWithClaims is used by tests to bypass token signing.
func ContextWithClaims(ctx context.Context, c *session.Claims) context.Context {
	return context.WithValue(ctx, authKey, c)
}
