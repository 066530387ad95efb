package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/internal/tiers"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// CreatorTierStatus reports the caller's position on the tier ladder.
func CreatorTierStatus(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Status(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
