package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the routes listed under
// app.maintenance.endpoints. An entry is a route pattern, a route pattern
// prefixed by a method ("POST /api/v1/auth/otp/send"), or "*" for every
// route. The list is read on each request so a config reload applies at once.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if underMaintenance(cfg.GetArray("app.maintenance.endpoints"), r.Method, matchedRoutePath(r)) {
				WriteJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func underMaintenance(entries []string, method, route string) bool {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == "*" {
			return true
		}

		if m, path, ok := strings.Cut(entry, " "); ok {
			if strings.EqualFold(m, method) && strings.TrimSpace(path) == route {
				return true
			}
			continue
		}

		if entry == route {
			return true
		}
	}
	return false
}
