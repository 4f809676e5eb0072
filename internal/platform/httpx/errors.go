package httpx

import (
	"errors"
	"net/http"

	"github.com/gatehouse-api/gatehouse/internal/shared"
)

// RespondError maps domain errors to rejection envelopes. Authentication
// and authorization failures both answer 403 rather than 401: a 401 makes
// Basic-auth-aware browsers pop a native login prompt, which a programmatic
// API does not want.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrTokenInvalid):
		Reject(w, http.StatusForbidden, "unauthorized")
	case errors.Is(err, shared.ErrForbidden):
		Reject(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, shared.ErrNotFound):
		Reject(w, http.StatusNotFound, "not found")
	case errors.Is(err, shared.ErrDuplicate):
		Reject(w, http.StatusConflict, "duplicate entry")
	default:
		Reject(w, http.StatusInternalServerError, "internal error")
	}
}
