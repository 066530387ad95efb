package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/middleware"
	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/adminops"
	"github.com/angelmondragon/streamvault-backend/internal/creators"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// AdminListCreators returns creator accounts with balances, paginated.
func AdminListCreators(svc creators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accounts, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": accounts})
	}
}

type adjustBalanceBody struct {
	Action      string `json:"action" validate:"required,oneof=fund debit"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Reason      string `json:"reason" validate:"required,min=3,max=500"`
}

// AdminAdjustBalance funds or debits a single creator's ledger.
func AdminAdjustBalance(svc adminops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := pathUUID(r, "creatorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := userFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustBalanceBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := adminops.AdjustInput{
			CreatorID:   creatorID,
			AmountCents: body.AmountCents,
			Reason:      validators.SanitizeString(body.Reason, 500),
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		}

		var entry any
		switch body.Action {
		case "fund":
			entry, err = svc.Fund(r.Context(), input)
		case "debit":
			entry, err = svc.Debit(r.Context(), input)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "action must be fund or debit"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

type massBonusBody struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Reason      string `json:"reason" validate:"required,min=3,max=500"`
}

// AdminMassBonus grants every active creator the same bonus amount.
func AdminMassBonus(svc adminops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := userFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body massBonusBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.MassBonus(r.Context(), adminops.MassBonusInput{
			AmountCents: body.AmountCents,
			Reason:      validators.SanitizeString(body.Reason, 500),
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
