package interceptors

import (
	"net/http"
	"strconv"
	"time"

	"github.com/FACorreiaa/local-guide/pkg/observability"
)

// NewMetricsInterceptor records request totals and latency by matched route.
func NewMetricsInterceptor() Interceptor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r, route := trackRoute(r)
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			observability.HTTPRequestsTotal.WithLabelValues(r.Method, route.route(), strconv.Itoa(rec.status)).Inc()
			observability.HTTPRequestDuration.WithLabelValues(r.Method, route.route()).Observe(time.Since(start).Seconds())
		})
	}
}
