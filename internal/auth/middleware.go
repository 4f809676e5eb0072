package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gatehouse-api/gatehouse/internal/observability"
	"github.com/gatehouse-api/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-api/gatehouse/internal/rbac"
)

// Gate is the authentication middleware run before every protected handler.
// It extracts the request credential (HTTP Basic or a bearer-style token),
// runs the multi-scheme verifier and binds the resolved principal to the
// request context. On failure the request short-circuits with a 403
// rejection and the handler body never executes.
func Gate(service *Service, logger *slog.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier, secret := extractCredential(r)
			principal, err := service.Authenticate(r.Context(), identifier, secret)
			if err != nil {
				if logger != nil {
					logger.Warn("authentication failed", slog.String("path", r.URL.Path))
				}
				if metrics != nil {
					metrics.AuthOutcome("failure")
				}
				httpx.Reject(w, http.StatusForbidden, "unauthorized")
				return
			}
			if metrics != nil {
				if principal.IsAnonymous() {
					metrics.AuthOutcome("anonymous")
				} else {
					metrics.AuthOutcome("success")
				}
			}
			ctx := rbac.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractCredential pulls the credential material from the Authorization
// header. Basic carries identifier+secret; Bearer and the legacy Smart
// scheme carry a bare token in the identifier slot. No header at all means
// no credential.
func extractCredential(r *http.Request) (identifier, secret string) {
	if user, pass, ok := r.BasicAuth(); ok {
		return user, pass
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", ""
	}
	scheme := parts[0]
	token := strings.TrimSpace(parts[1])
	if strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Smart") {
		return token, ""
	}
	return "", ""
}
