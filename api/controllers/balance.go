package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// CreatorBalance returns the caller's ledger totals plus recent entries.
func CreatorBalance(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals, err := svc.Totals(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.History(r.Context(), creatorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"totals":  totals,
			"entries": history,
		})
	}
}
