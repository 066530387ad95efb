package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type setPinBody struct {
	Pin string `json:"pin" validate:"required,min=4,max=12,numeric"`
}

// CreatorSetPin sets or replaces the caller's withdrawal PIN.
func CreatorSetPin(svc creators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setPinBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetPin(r.Context(), creatorID, body.Pin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "pin_set"})
	}
}
