package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"pitchstat-backend/internal/auth"
	"pitchstat-backend/internal/observability"
	"pitchstat-backend/internal/ratelimit"

	"go.uber.org/zap"
)

// RateLimit applies per-identity admission control. Callers without a
// principal are never limited here: identity extraction rejects them
// upstream. Admitted requests carry the quota headers; denied requests get a
// 429 with a Retry-After hint.
func RateLimit(store *ratelimit.Store, collector *observability.Collector, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.FromContext(r.Context())
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			status := store.Check(principal.UserID)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", status.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", status.Remaining))
			w.Header().Set("X-RateLimit-Reset", status.ResetTime.UTC().Format(time.RFC3339))

			if !status.Allowed {
				retryAfter := int(math.Ceil(time.Until(status.ResetTime).Seconds()))
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				collector.RateLimitDenied.Inc()
				logger.Warn("request denied by admission control",
					zap.String("userId", principal.UserID),
					zap.Int("retryAfterSeconds", retryAfter))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"Too many requests. Please try again later.","retryAfter":%d}`+"\n", retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
