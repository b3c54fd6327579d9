package storage

import (
	"errors"
	"net/http"
)

// ErrNotFound reports that the requested blob does not exist.
var ErrNotFound = errors.New("blob not found")

// ErrEmptyKey reports an empty storage key.
var ErrEmptyKey = errors.New("storage key must not be empty")

// ErrInvalidKey reports a storage key containing a path traversal segment.
var ErrInvalidKey = errors.New("storage key contains invalid path segment")

// MapHTTPStatus converts a storage error to the HTTP status a handler
// should respond with.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
