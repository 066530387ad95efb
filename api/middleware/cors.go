package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",                          // local dev
	"https://streamvault-4f1c9a7b02d8.herokuapp.com", // backend API
	"https://streamvault-creator.vercel.app",         // creator dashboard
	"https://streamvault-ops.vercel.app",             // ops console
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-PF-Token", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-PF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
