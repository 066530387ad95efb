package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/middleware"
	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/tiers"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// AdminListEligibleTiers returns creators awaiting a tier decision.
func AdminListEligibleTiers(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListEligible(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

type tierDecisionBody struct {
	Action string  `json:"action" validate:"required,oneof=approve deny"`
	Tier   string  `json:"tier" validate:"required"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

// AdminTierDecision approves or denies a creator's pending tier promotion.
func AdminTierDecision(svc tiers.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body tierDecisionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tier, err := enums.ParseTier(body.Tier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier"))
			return
		}

		input := tiers.DecisionInput{
			CreatorID:   creatorID,
			Tier:        tier,
			Note:        body.Note,
			ActorUserID: actorID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		}

		switch body.Action {
		case "approve":
			state, err := svc.Approve(r.Context(), input)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, state)
		case "deny":
			if err := svc.Deny(r.Context(), input); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]string{"status": "denied"})
		}
	}
}
