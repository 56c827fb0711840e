package templates

import (
	"errors"
	"net/http"
)

// Domain errors for template operations.
var (
	ErrNotFound     = errors.New("template not found")
	ErrDuplicate    = errors.New("template version already exists")
	ErrEmptyCatalog = errors.New("template catalog is empty")
	ErrNoRegions    = errors.New("template must define at least one region")
)

// MapHTTPStatus maps template domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoRegions) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
