package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired means the refresh-token exchange itself failed. The
	// session is gone; the caller must route the user to re-authentication.
	ErrSessionExpired = errors.New("session expired")

	ErrInvalidArgument = errors.New("invalid argument")
)

// NetworkError is a transport-level failure: no HTTP response was received.
// It is always retryable. An attempt exceeding its deadline counts as one.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a received non-2xx response.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d: %s", e.Status, e.Body)
}

// Retryable reports whether backoff could plausibly fix the failure. 4xx
// statuses in the set below are caller or authorization errors and fail
// immediately; 401 reaches this check only after the one allowed replay.
func (e *HTTPError) Retryable() bool {
	switch e.Status {
	case 400, 401, 403, 404, 422:
		return false
	}
	return true
}

// StorageError is a credential persistence failure. It is surfaced to the
// caller, never retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
