package mw

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/ratelimit"
)

// RateLimit guards a route with l, keyed by client IP. A limiter error
// lets the request through; admin routes stay reachable when Redis is down.
func RateLimit(l ratelimit.Limiter, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.ClientKey(r, trustProxy)

			d, err := l.Admit(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request",
					logger.String("client", key),
					logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			limitStr := strconv.Itoa(d.Limit)
			if !d.Allowed {
				retry := int(math.Ceil(d.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Limit", limitStr)
				w.Header().Set("X-RateLimit-Remaining", "0")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, errorBody{Error: "rate limit exceeded", Code: string(domain.CodeRateLimit)})
				return
			}

			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}
