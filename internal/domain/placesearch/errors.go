package placesearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/FACorreiaa/local-guide/internal/types"
)

// ErrNoAPIKey is returned when the client was built without a vendor key.
var ErrNoAPIKey = errors.New("places: api key not configured")

// APIError is a non-2xx vendor response.
type APIError struct {
	Endpoint   string
	StatusCode int
	// Body is the decoded JSON body, or the raw text when it was not JSON.
	Body any
	Raw  string
}

func newAPIError(endpoint string, status int, raw []byte) *APIError {
	e := &APIError{Endpoint: endpoint, StatusCode: status, Raw: string(raw)}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		e.Body = decoded
	} else {
		e.Body = string(raw)
	}
	return e
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("places %s: status %d: %s", e.Endpoint, e.StatusCode, msg)
	}
	return fmt.Sprintf("places %s: status %d", e.Endpoint, e.StatusCode)
}

// Message returns the vendor error message, or the raw body.
func (e *APIError) Message() string {
	if env := e.envelope(); env != nil {
		if msg, ok := env["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return e.Raw
}

// Status returns the vendor status string, e.g. RESOURCE_EXHAUSTED.
func (e *APIError) Status() string {
	if env := e.envelope(); env != nil {
		if s, ok := env["status"].(string); ok {
			return s
		}
	}
	return ""
}

func (e *APIError) envelope() map[string]any {
	body, ok := e.Body.(map[string]any)
	if !ok {
		return nil
	}
	env, _ := body["error"].(map[string]any)
	return env
}

// Is lets callers test a vendor failure against the shared sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case types.ErrQuotaExceeded:
		return e.StatusCode == http.StatusTooManyRequests || e.Status() == "RESOURCE_EXHAUSTED"
	case types.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case types.ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}
