package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/creators"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type recordViewsBody struct {
	CreatorID string `json:"creator_id" validate:"required,uuid"`
	ViewCount int64  `json:"view_count" validate:"required,gt=0"`
}

// InternalRecordViews accrues one batch of monetizable views reported by the
// content ingestion pipeline.
func InternalRecordViews(svc creators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body recordViewsBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		creatorID, err := uuid.Parse(body.CreatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator_id"))
			return
		}

		result, err := svc.AccrueViewEarning(r.Context(), creators.AccrueInput{
			CreatorID: creatorID,
			Views:     body.ViewCount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
