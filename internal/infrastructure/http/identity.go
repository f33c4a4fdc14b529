package httptransport

import (
	"context"
	"net/http"
)

type identityKey struct{}

// WithIdentity lifts the authenticated user id into the request context.
// Authentication itself is an upstream concern; this transport trusts the
// X-User-ID header an auth proxy is expected to set. Handlers that require
// an identity reject requests where none arrived.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := r.Header.Get("X-User-ID"); uid != "" {
			r = r.WithContext(context.WithValue(r.Context(), identityKey{}, uid))
		}
		next.ServeHTTP(w, r)
	})
}

func ownerFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(identityKey{}).(string)
	return uid
}
