package subjects

import (
	"errors"
	"net/http"
)

// Domain errors for roster operations.
var (
	ErrNotFound       = errors.New("subject not found")
	ErrDuplicate      = errors.New("subject already exists")
	ErrInvalidSeatKey = errors.New("subject id must be a seat key such as ca-12 or vt-sen-1")
	ErrInvalidChamber = errors.New("chamber must be house or senate")
	ErrInvalidSubject = errors.New("subject name and provider_ref are required")
)

// MapHTTPStatus maps roster domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidSeatKey) ||
		errors.Is(err, ErrInvalidChamber) ||
		errors.Is(err, ErrInvalidSubject) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
