package rbac

import (
	"log/slog"
	"net/http"

	"github.com/gatehouse-api/gatehouse/internal/platform/httpx"
)

// Middleware wires the per-route authorization guard. It runs after the
// authentication gate has bound a principal to the request context, so a
// rejection here is an authorization failure, never an authentication one.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current principal holds every bit in required. The
// anonymous principal fails every guard.
func (m Middleware) Require(required Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if !principal.Can(required) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.String("path", r.URL.Path),
						slog.Bool("anonymous", principal.IsAnonymous()))
				}
				httpx.Reject(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
