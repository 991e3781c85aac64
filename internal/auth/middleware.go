package auth

import (
	"context"
	"net/http"
	"strings"

	svcErr "github.com/emberdate/match-engine/internal/errors"
)

// contextKey avoids collisions with other context values.
type contextKey string

const userIDKey contextKey = "userID"

// Middleware validates the bearer token and stores the session's user id
// in the request context. Requests without a valid session are rejected
// with no side effects.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				svcErr.WriteError(w, svcErr.ErrUnauthenticated)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				svcErr.WriteError(w, svcErr.ErrUnauthenticated)
				return
			}

			claims, err := ValidateToken(parts[1], secret)
			if err != nil {
				svcErr.WriteError(w, svcErr.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id placed there by
// Middleware. The second return is false if the request never passed
// through it.
func UserIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(userIDKey).(uint64)
	return id, ok
}

// WithUserID returns a context carrying the given user id. Test helper for
// exercising handlers without the middleware.
func WithUserID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}
