package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StreamVault-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes each wired dependency. Nil pingers are skipped so a
// trimmed deployment can still report ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, bigqueryP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StreamVault-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		deps := []struct {
			name string
			p    pinger
		}{
			{"postgres", dbP},
			{"redis", redisP},
			{"bigquery", bigqueryP},
		}

		checks := map[string]string{}
		healthy := true
		for _, dep := range deps {
			if dep.p == nil {
				checks[dep.name] = "skipped"
				continue
			}
			if err := dep.p.Ping(ctx); err != nil {
				checks[dep.name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", dep.name), "readiness probe failed", err)
				}
				continue
			}
			checks[dep.name] = "ok"
		}

		status := "ready"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
