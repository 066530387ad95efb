package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// ServiceToken guards internal service-to-service endpoints with a shared
// token carried in the X-Service-Token header.
func ServiceToken(token string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingestion token not configured"))
				return
			}

			provided := strings.TrimSpace(r.Header.Get("X-Service-Token"))
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid service token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
