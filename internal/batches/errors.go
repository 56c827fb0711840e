package batches

import (
	"errors"
	"net/http"
)

// Domain errors for batch operations.
var (
	ErrNotFound        = errors.New("batch not found")
	ErrDuplicate       = errors.New("batch already exists")
	ErrEmptySubmission = errors.New("batch submission contains no documents")
	ErrInvalidSchema   = errors.New("field schema is not a valid JSON Schema")
	ErrMalformedInput  = errors.New("malformed batch item input")
	ErrInvalidStatus   = errors.New("illegal item status transition")
)

// MapHTTPStatus translates a batch domain error to an HTTP status code.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptySubmission) || errors.Is(err, ErrInvalidSchema) || errors.Is(err, ErrMalformedInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrInvalidStatus) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
