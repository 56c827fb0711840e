package reference

import "errors"

// Domain errors for ledger lookups.
var (
	// ErrNoMatch means no active ledger row matched any identity key variant.
	// It is a data-completeness failure, distinct from a review-quality signal.
	ErrNoMatch = errors.New("no active reference record matches identity key")

	// ErrEmptyKey means the extraction produced no usable identity components.
	ErrEmptyKey = errors.New("identity key has no usable components")
)
