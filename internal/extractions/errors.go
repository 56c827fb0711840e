package extractions

import (
	"errors"
	"net/http"
)

// Domain errors for extraction records.
var (
	ErrNotFound  = errors.New("extraction record not found")
	ErrDuplicate = errors.New("extraction record already exists for document")
)

// MapHTTPStatus maps extraction domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
