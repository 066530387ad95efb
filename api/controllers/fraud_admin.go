package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/api/middleware"
	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/fraud"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

// AdminListFraudFlags lists open flags, or a single creator's flag history
// when creator_id is supplied.
func AdminListFraudFlags(svc fraud.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creatorStr := strings.TrimSpace(r.URL.Query().Get("creator_id")); creatorStr != "" {
			creatorID, err := uuid.Parse(creatorStr)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator_id"))
				return
			}
			items, err := svc.ListByCreator(r.Context(), creatorID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]any{"items": items})
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

		items, err := svc.ListOpen(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

type raiseFlagBody struct {
	CreatorID   string `json:"creator_id" validate:"required,uuid"`
	FlagType    string `json:"flag_type" validate:"required"`
	Severity    string `json:"severity" validate:"required"`
	Description string `json:"description" validate:"required,min=3,max=1000"`
}

// AdminRaiseFraudFlag opens a new flag against a creator.
func AdminRaiseFraudFlag(svc fraud.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := userFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body raiseFlagBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		creatorID, err := uuid.Parse(body.CreatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator_id"))
			return
		}
		flagType, err := enums.ParseFraudFlagType(body.FlagType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid flag_type"))
			return
		}
		severity, err := enums.ParseFraudSeverity(body.Severity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid severity"))
			return
		}

		flag, err := svc.Raise(r.Context(), fraud.RaiseInput{
			CreatorID:   creatorID,
			FlagType:    flagType,
			Severity:    severity,
			Description: validators.SanitizeString(body.Description, 1000),
			Actor: fraud.Actor{
				UserID: actorID,
				Role:   middleware.RoleFromContext(r.Context()),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, flag)
	}
}

type updateFlagBody struct {
	Action      string  `json:"action" validate:"required,oneof=investigate resolve"`
	Outcome     string  `json:"outcome,omitempty" validate:"omitempty,oneof=cleared confirmed"`
	ActionTaken *string `json:"action_taken,omitempty" validate:"omitempty,max=1000"`
}

// AdminUpdateFraudFlag moves a flag into investigation or resolves it.
func AdminUpdateFraudFlag(svc fraud.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flagID, err := pathUUID(r, "flagID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := userFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := fraud.Actor{
			UserID: actorID,
			Role:   middleware.RoleFromContext(r.Context()),
		}

		var body updateFlagBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch body.Action {
		case "investigate":
			flag, err := svc.StartInvestigation(r.Context(), flagID, actor)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, flag)
		case "resolve":
			if body.Outcome == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "outcome required to resolve"))
				return
			}
			flag, err := svc.Resolve(r.Context(), fraud.ResolveInput{
				FlagID:      flagID,
				Outcome:     fraud.ResolveOutcome(body.Outcome),
				ActionTaken: body.ActionTaken,
				Actor:       actor,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, flag)
		}
	}
}
