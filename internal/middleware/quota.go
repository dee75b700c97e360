package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prismai/prismai/internal/auth"
	"github.com/prismai/prismai/internal/metrics"
	"github.com/prismai/prismai/internal/model"
)

// UsageCounter answers how many gated calls a user has made today.
type UsageCounter interface {
	CountUsageToday(ctx context.Context, userID, endpoint string) (int, error)
}

// QuotaConfig holds configuration for the quota middleware.
type QuotaConfig struct {
	Logger  *slog.Logger
	Usage   UsageCounter
	Metrics metrics.Recorder
}

// Quota returns a middleware that admits or rejects a request against the
// caller's daily tier quota for the given endpoint. Must be applied after
// Auth.
//
// Unlimited tiers are admitted without touching the ledger. For limited
// tiers the current-day count is compared to the limit: a ledger failure is
// a hard 503 (fail closed - under-counting silently would defeat cost
// containment), and count >= limit is a 429 that reports the limit and
// tier so the caller can decide whether to upgrade.
//
// The middleware never records usage. Handlers record only after the
// downstream generation succeeds, so a failed attempt is never charged.
// The check and the later record are not atomic: concurrent requests from
// one user near the boundary can briefly overshoot the quota.
func Quota(endpoint string, cfg QuotaConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				// Auth middleware did not run - treat as unauthenticated
				writeAuthError(w)
				return
			}

			limit := model.DailyLimit(authCtx.Tier, endpoint)
			if limit == model.Unlimited {
				cfg.Metrics.IncAdmission("admitted")
				next.ServeHTTP(w, r)
				return
			}

			count, err := cfg.Usage.CountUsageToday(r.Context(), authCtx.UserID, endpoint)
			if err != nil {
				cfg.Logger.Error("usage count failed during admission",
					slog.String("error", err.Error()),
					slog.String("user_id", authCtx.UserID),
					slog.String("endpoint", endpoint),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.Metrics.IncAdmission("store_error")
				writeStoreError(w)
				return
			}

			remaining := limit - count
			if remaining < 0 {
				remaining = 0
			}
			setQuotaHeaders(w, limit, remaining)

			if count >= limit {
				cfg.Logger.Warn("quota exceeded",
					slog.String("user_id", authCtx.UserID),
					slog.String("tier", authCtx.Tier),
					slog.String("endpoint", endpoint),
					slog.Int("limit", limit),
					slog.Int("used", count),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.Metrics.IncAdmission("quota_exceeded")
				writeQuotaError(w, authCtx.Tier, endpoint, limit)
				return
			}

			cfg.Metrics.IncAdmission("admitted")
			next.ServeHTTP(w, r)
		})
	}
}

// setQuotaHeaders sets standard rate limit response headers.
func setQuotaHeaders(w http.ResponseWriter, limit, remaining int) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
}

// writeQuotaError writes a 429 Too Many Requests response carrying the
// numeric limit and tier.
func writeQuotaError(w http.ResponseWriter, tier, endpoint string, limit int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	msg := fmt.Sprintf(
		`{"error":{"code":"QUOTA_EXCEEDED","message":"Daily limit of %d %s reached for %s tier","tier":"%s","limit":%d}}`,
		limit, endpoint, tier, tier, limit,
	)
	_, _ = w.Write([]byte(msg))
}
