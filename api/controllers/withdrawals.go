package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/payouts"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type submitWithdrawalBody struct {
	Pin string `json:"pin" validate:"required,min=4,max=12"`
}

// CreatorSubmitWithdrawal opens a payout request for the creator's full
// current balance after PIN verification.
func CreatorSubmitWithdrawal(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitWithdrawalBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Submit(r.Context(), payouts.SubmitInput{
			CreatorID: creatorID,
			Pin:       body.Pin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// CreatorListWithdrawals returns the creator's payout request history.
func CreatorListWithdrawals(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByCreator(r.Context(), creatorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CreatorWithdrawalDetail returns a single payout request owned by the caller.
func CreatorWithdrawalDetail(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payoutID, err := pathUUID(r, "payoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.GetByID(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if request.CreatorID != creatorID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "payout request not found"))
			return
		}
		responses.WriteSuccess(w, request)
	}
}
