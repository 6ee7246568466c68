package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/middleware/metadata"
)

// KeyFunc derives the rate-limit identity for a request. Returning an
// empty key skips the check for that request.
type KeyFunc func(r *http.Request) string

// KeyByClientIP buckets requests by caller address.
func KeyByClientIP(r *http.Request) string {
	return metadata.ClientIPFromRequest(r)
}

// Middleware rejects requests over the budget with 429 and a
// Retry-After header. Store failures let the request through; an
// unavailable counter backend must not take the endpoint down with it.
func (l *Limiter) Middleware(action string, maxAttempts int64, window time.Duration, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.CheckAndIncrement(r.Context(), key, action, maxAttempts, window)
			if err != nil {
				l.logger.ErrorContext(r.Context(), "rate-limit check failed", "action", action, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				retryAfter := int(res.RetryAfter / time.Second)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": string(dErrors.CodeRateLimited)})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
