package api

import (
	"net/http"
	"strings"

	"git.home.luguber.info/inful/mealprep/internal/observability"
)

const (
	userHeader  = "X-User"
	defaultUser = "default"
)

// userFrom extracts the requesting user from the X-User header. Identity is
// delegated to the front proxy; an absent header maps to the default user.
func userFrom(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(userHeader)); u != "" {
		return u
	}
	return defaultUser
}

// UserMiddleware stamps the requesting user onto the logging context.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithUserID(r.Context(), userFrom(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
