package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/api/middleware"
	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	pkgAuth "github.com/angelmondragon/streamvault-backend/pkg/auth"
	"github.com/angelmondragon/streamvault-backend/pkg/auth/session"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type sessionIssuer interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type sessionRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
}

type sessionRevoker interface {
	Revoke(ctx context.Context, accessID string) error
}

type issueSessionBody struct {
	UserID    string  `json:"user_id" validate:"required,uuid"`
	Role      string  `json:"role" validate:"required"`
	CreatorID *string `json:"creator_id,omitempty" validate:"omitempty,uuid"`
}

type refreshSessionBody struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// InternalIssueSession mints an access/refresh pair for a user the identity
// service has already authenticated. Guarded by the service token.
func InternalIssueSession(cfg config.JWTConfig, sessions sessionIssuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body issueSessionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(body.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id"))
			return
		}
		role, err := enums.ParseRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		var creatorID *uuid.UUID
		if body.CreatorID != nil {
			parsed, err := uuid.Parse(*body.CreatorID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid creator_id"))
				return
			}
			creatorID = &parsed
		}

		accessID := session.NewAccessID()
		token, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID:    userID,
			CreatorID: creatorID,
			Role:      role,
			JTI:       accessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mint access token"))
			return
		}
		refresh, err := sessions.Generate(r.Context(), accessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionTokens{
			AccessToken:  token,
			RefreshToken: refresh,
		})
	}
}

// RefreshSession rotates the caller's refresh token and issues a new access
// token. The old access token may be expired; only its signature and jti are
// inspected.
func RefreshSession(cfg config.JWTConfig, sessions sessionRotator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshSessionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, body.AccessToken)
		if err != nil || claims.ID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
			return
		}

		newAccessID, newRefresh, err := sessions.Rotate(r.Context(), claims.ID, body.RefreshToken)
		if err != nil {
			if errors.Is(err, session.ErrInvalidRefreshToken) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session"))
			return
		}

		token, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID:    claims.UserID,
			CreatorID: claims.CreatorID,
			Role:      claims.Role,
			JTI:       newAccessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mint access token"))
			return
		}

		responses.WriteSuccess(w, sessionTokens{
			AccessToken:  token,
			RefreshToken: newRefresh,
		})
	}
}

// Logout revokes the caller's session so the access token stops validating.
func Logout(sessions sessionRevoker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.SessionIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session"))
			return
		}
		if err := sessions.Revoke(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
