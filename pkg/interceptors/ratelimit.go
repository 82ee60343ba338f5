package interceptors

import (
	"net/http"

	"golang.org/x/time/rate"
)

// NewRateLimitInterceptor rejects requests beyond the limiter's budget with 429.
func NewRateLimitInterceptor(limiter *rate.Limiter) Interceptor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
