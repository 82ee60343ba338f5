// Package interceptors holds the HTTP middleware chain of the favorites API.
package interceptors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/FACorreiaa/local-guide/internal/types"
)

type contextKey string

const (
	// UserIDKey holds the authenticated user id as a string.
	UserIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"
)

// Interceptor wraps an http.Handler.
type Interceptor func(http.Handler) http.Handler

// Chain wraps h so the first interceptor runs outermost. Nil entries are skipped.
func Chain(h http.Handler, interceptors ...Interceptor) http.Handler {
	for i := len(interceptors) - 1; i >= 0; i-- {
		if interceptors[i] != nil {
			h = interceptors[i](h)
		}
	}
	return h
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(UserIDKey).(string)
	return v, ok
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok
}

// WriteError writes the JSON error envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}

// statusRecorder captures the status code and body size written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

const routeKey contextKey = "route"

type routeHolder struct {
	pattern string
}

// trackRoute makes sure r carries a route holder that RecordRoute can fill.
func trackRoute(r *http.Request) (*http.Request, *routeHolder) {
	if h, ok := r.Context().Value(routeKey).(*routeHolder); ok {
		return r, h
	}
	h := &routeHolder{}
	return r.WithContext(context.WithValue(r.Context(), routeKey, h)), h
}

func (h *routeHolder) route() string {
	if h.pattern == "" {
		return "unmatched"
	}
	return h.pattern
}

// RecordRoute exposes the pattern matched by mux to the tracing and metrics
// interceptors wrapped around it.
func RecordRoute(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if h, ok := r.Context().Value(routeKey).(*routeHolder); ok {
			h.pattern = r.Pattern
		}
	})
}
