package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/streamvault-backend/api/middleware"
	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/payouts"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// AdminListPayouts returns payout requests filtered by status.
func AdminListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statusStr := strings.TrimSpace(r.URL.Query().Get("status"))
		if statusStr == "" {
			statusStr = string(enums.PayoutStatusPending)
		}
		status, err := enums.ParsePayoutStatus(statusStr)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout status"))
			return
		}

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

		items, err := svc.ListByStatus(r.Context(), status, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

type payoutDecisionBody struct {
	Action        string  `json:"action" validate:"required,oneof=approve complete reject"`
	AdminNote     *string `json:"admin_note,omitempty" validate:"omitempty,max=500"`
	SettlementRef string  `json:"settlement_ref,omitempty" validate:"omitempty,min=3,max=128"`
	Reason        string  `json:"reason,omitempty" validate:"omitempty,min=3,max=500"`
}

// AdminPayoutDecision advances one payout request through its lifecycle.
func AdminPayoutDecision(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := pathUUID(r, "payoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := userFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorRole := middleware.RoleFromContext(r.Context())

		var body payoutDecisionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var request any
		switch body.Action {
		case "approve":
			request, err = svc.Approve(r.Context(), payouts.DecisionInput{
				PayoutID:    payoutID,
				AdminNote:   body.AdminNote,
				ActorUserID: actorID,
				ActorRole:   actorRole,
			})
		case "complete":
			if strings.TrimSpace(body.SettlementRef) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "settlement_ref required to complete"))
				return
			}
			request, err = svc.Complete(r.Context(), payouts.CompleteInput{
				PayoutID:      payoutID,
				SettlementRef: strings.TrimSpace(body.SettlementRef),
				ActorUserID:   actorID,
				ActorRole:     actorRole,
			})
		case "reject":
			if strings.TrimSpace(body.Reason) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reason required to reject"))
				return
			}
			request, err = svc.Reject(r.Context(), payouts.RejectInput{
				PayoutID:    payoutID,
				Reason:      validators.SanitizeString(body.Reason, 500),
				ActorUserID: actorID,
				ActorRole:   actorRole,
			})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}
