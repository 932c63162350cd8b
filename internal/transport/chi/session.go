package chi

import (
	"context"
	"net/http"
	"strings"
)

// DefaultSessionCookie is the cookie carrying the opaque user id.
const DefaultSessionCookie = "userId"

type userIDKey struct{}

// ContextWithUserID stores the authenticated user id in the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// SessionMiddleware resolves the user id from the session cookie and rejects
// requests without one.
func SessionMiddleware(cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
				return
			}

			userID := strings.TrimSpace(c.Value)
			if userID == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}
