package router

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/baginvent/passcode/internal/pkg/throttle"
)

// middlewareThrottle caps requests per client IP and route. A nil limiter or
// a non-positive limit disables it. Limiter failures let the request through.
func middlewareThrottle(limiter throttle.Throttle, limit int, window time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + r.RemoteAddr + ":" + matchedRoutePath(r)

			ok, retryAfter, err := limiter.Allow(r.Context(), key, limit, window)
			if err != nil {
				slog.WarnContext(r.Context(), "failed to check http rate limit", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				setRetryAfter(w, retryAfter)
				writeJSON(w, errorResponse{Message: "Too many requests"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	if d <= 0 {
		return
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
}
