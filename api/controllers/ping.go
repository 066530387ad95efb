package controllers

import (
	"net/http"

	"github.com/angelmondragon/streamvault-backend/api/middleware"
	"github.com/angelmondragon/streamvault-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if creator := middleware.CreatorIDFromContext(r.Context()); creator != "" {
			payload["creator_id"] = creator
		}
		responses.WriteSuccess(w, payload)
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "admin", "status": "ok"})
	}
}
