package router

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
)

// RateLimitByIP rejects requests with 429 once the client address exhausts
// its budget for the matched route. Limiter failures let the request through.
func RateLimitByIP(limiter ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + r.RemoteAddr + ":" + matchedRoutePath(r)
			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				writeJSON(w, errorResponse{Message: "too many requests"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
