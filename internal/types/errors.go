package types

import "errors"

// Domain specific errors shared by the store, the clients and the favorites API.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")

	// ErrQuotaExceeded marks a vendor rejection caused by request quota (HTTP 429).
	ErrQuotaExceeded = errors.New("places quota exceeded")
	// ErrPersistence marks a failed write to the device-local store.
	ErrPersistence = errors.New("local persistence failed")
)
