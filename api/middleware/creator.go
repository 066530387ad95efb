package middleware

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// CreatorContext rejects requests whose token carries no creator account.
func CreatorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CreatorIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "creator context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
