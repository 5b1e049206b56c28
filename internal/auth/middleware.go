package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Allliance/content-rating/internal/apierr"
)

type ctxKey int

const identityKey ctxKey = iota

// Identity is the trusted caller identity the pipeline assumes is present
// by the time a request reaches C5/C7 (§1).
type Identity struct {
	UserID   string
	Username string
}

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the caller identity set by Require, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Require returns middleware that validates a bearer access token and
// injects the caller identity into the request context. A missing or
// invalid token fails closed with a 401, matching §7's AuthFailure class.
func Require(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, apierr.AuthFailuref("missing bearer token"))
				return
			}
			claims, err := tokens.ParseAccess(token)
			if err != nil {
				writeAuthError(w, apierr.AuthFailuref("invalid or expired token"))
				return
			}
			ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Username: claims.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func writeAuthError(w http.ResponseWriter, err *apierr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	_, _ = w.Write([]byte(`{"error":"` + err.Message + `"}`))
}
