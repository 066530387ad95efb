package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/streamvault-backend/api/responses"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// ThrottlePolicy defines the throttling parameters for a traffic surface.
type ThrottlePolicy struct {
	name      string
	window    time.Duration
	ipLimit   int
	userLimit int
}

// NewThrottlePolicy builds a policy with the supplied window and limits.
func NewThrottlePolicy(name string, window time.Duration, ipLimit, userLimit int) ThrottlePolicy {
	return ThrottlePolicy{
		name:      strings.ToLower(strings.TrimSpace(name)),
		window:    window,
		ipLimit:   ipLimit,
		userLimit: userLimit,
	}
}

func (p ThrottlePolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.userLimit > 0)
}

func (p ThrottlePolicy) normalizedName() string {
	if p.name == "" {
		return "default"
	}
	return p.name
}

func (p ThrottlePolicy) ipKey(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("rl:ip:%s:%s", p.normalizedName(), ip)
}

func (p ThrottlePolicy) userKey(userID string) string {
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("rl:user:%s:%s", p.normalizedName(), userID)
}

// Throttle enforces per-IP and per-user counters for sensitive endpoints such
// as withdrawal submission, which burns PIN attempts.
func Throttle(policy ThrottlePolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if policy.ipLimit > 0 {
				if key := policy.ipKey(ip); key != "" {
					if allowed, count, err := allow(ctx, store, key, policy.window, int64(policy.ipLimit)); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "ip", ip, "", count, policy.ipLimit)
						return
					}
				}
			}

			if policy.userLimit > 0 {
				userID := UserIDFromContext(ctx)
				if key := policy.userKey(userID); key != "" {
					if allowed, count, err := allow(ctx, store, key, policy.window, int64(policy.userLimit)); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "user", "", userID, count, policy.userLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allow(ctx context.Context, store rateLimiterStore, key string, window time.Duration, limit int64) (bool, int64, error) {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy ThrottlePolicy, scope, ip, userID string, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		if ip != "" {
			fields["ip"] = ip
		}
		if userID != "" {
			fields["user_id"] = userID
		}
		logCtx := logg.WithFields(ctx, fields)
		logg.Warn(logCtx, "throttle.blocked")
	}
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded")
	responses.WriteError(ctx, nil, w, err)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
