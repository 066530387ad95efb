package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/api/validators"
	"github.com/angelmondragon/streamvault-backend/internal/wallets"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type putWalletBody struct {
	WalletType string `json:"wallet_type" validate:"required"`
	Address    string `json:"address" validate:"required,min=8,max=256"`
}

// CreatorGetWallet returns the caller's payout wallet, if registered.
func CreatorGetWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.Get(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}

// CreatorPutWallet registers or replaces the caller's payout wallet.
func CreatorPutWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body putWalletBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		walletType, err := enums.ParseWalletType(body.WalletType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid wallet type"))
			return
		}

		wallet, err := svc.Set(r.Context(), wallets.SetInput{
			CreatorID:  creatorID,
			WalletType: walletType,
			Address:    validators.SanitizeString(body.Address, 256),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}

// CreatorDeleteWallet removes the caller's payout wallet.
func CreatorDeleteWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creatorID, err := creatorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), creatorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
