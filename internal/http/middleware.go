package httpapi

import (
	"context"
	"net/http"
	"strings"
)

const HeaderUserID = "X-User-Id"

type ctxKey string

const ctxUserID ctxKey = "user_id"

// RequireUserID enforces the X-User-Id header set by the gateway after
// authentication, and stores the user id in the request context. Core
// operations take the user id explicitly; nothing below this middleware
// reads ambient auth state.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "missing required header: "+HeaderUserID)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}
