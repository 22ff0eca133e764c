package router

import (
	"context"
	"net/http"
	"strings"
)

// Authenticator resolves a bearer token into the identity that owns it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Auth is the authenticated caller stored in the request context.
type Auth struct {
	Identity string
	Token    string
}

type authKey struct{}

// SetAuth stores the authenticated caller in ctx.
func SetAuth(ctx context.Context, a Auth) context.Context {
	return context.WithValue(ctx, authKey{}, a)
}

// GetAuth returns the authenticated caller stored in ctx, if any.
func GetAuth(ctx context.Context) (Auth, bool) {
	a, ok := ctx.Value(authKey{}).(Auth)
	return a, ok
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	p := strings.Fields(r.Header.Get("Authorization"))
	if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
		return ""
	}
	return p[1]
}

// Authentication guards a route with a bearer session token.
func Authentication(verifier Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeJSON(w, newErrorResponse("Authentication required"), http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Authenticate(r.Context(), token)
			if err != nil {
				writeJSON(w, newErrorResponse("Invalid or expired token"), http.StatusUnauthorized)
				return
			}

			ctx := SetAuth(r.Context(), Auth{Identity: identity, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
