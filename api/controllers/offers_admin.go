package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/offers"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type createOfferBody struct {
	Code       string  `json:"code" validate:"required,min=3,max=64"`
	Kind       string  `json:"kind" validate:"required,oneof=flat multiplier"`
	ValueCents int64   `json:"value_cents,omitempty" validate:"omitempty,gt=0"`
	Multiplier float64 `json:"multiplier,omitempty" validate:"omitempty,gt=1"`
}

// AdminCreateOffer registers a new redeemable offer code.
func AdminCreateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createOfferBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), offers.CreateInput{
			Code:       body.Code,
			Kind:       models.OfferKind(body.Kind),
			ValueCents: body.ValueCents,
			Multiplier: body.Multiplier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

// AdminListOffers returns currently active offers.
func AdminListOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AdminDeactivateOffer retires an offer so it can no longer be redeemed.
func AdminDeactivateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offerID, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), offerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
