package inbound

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// LoginPath is where unauthenticated callers are pointed to start a login.
const LoginPath = "/api/v1/auth/otp/send"

type identityKey struct{}

// WithIdentity stores the authenticated email in ctx.
func WithIdentity(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, identityKey{}, email)
}

// IdentityFrom returns the authenticated email stored by RequireSession.
func IdentityFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(identityKey{}).(string)
	return email, ok && email != ""
}

// RequireSession lets a request through only when its session cookie belongs
// to an authenticated session. Denied requests get 401 with a Location header
// pointing at LoginPath.
func RequireSession(uc uc, cookieName string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(cookieName); err == nil {
				sid = c.Value
			}

			out, err := uc.Authorize(r.Context(), sid)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to authorize session", "error", err)
				router.WriteJSON(w, map[string]string{"message": "Internal server error"}, http.StatusInternalServerError)
				return
			}

			if out.Decision != entity.DecisionAllow {
				w.Header().Set("Location", LoginPath)
				router.WriteJSON(w, map[string]string{"message": "login required"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), out.Identity)))
		})
	}
}
