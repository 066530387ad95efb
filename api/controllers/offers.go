package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/offers"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type redeemOfferBody struct {
	Code string `json:"code" validate:"required,min=3,max=64"`
}

// CreatorRedeemOffer applies an active offer code to the caller's ledger.
func CreatorRedeemOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body redeemOfferBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Redeem(r.Context(), offers.RedeemInput{
			CreatorID: creatorID,
			Code:      body.Code,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
