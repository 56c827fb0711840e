// Package pipeline implements the extraction confidence and reconciliation
// pipeline for Cotejo: template classification, region calibration,
// confidence-scored field extraction, critical-field double verification,
// and cross-validation against the reference ledger, executed as a state
// graph per document.
//
// Region-level and field-level failures are absorbed into confidence
// penalties or discrepancy records; only classification rejection and a
// reference-lookup miss terminate a document, and both are recorded as
// verdicts rather than raised as errors.
package pipeline

import "errors"

// Sentinel errors for pipeline infrastructure failures. Semantic outcomes
// (rejection, review) are carried on the extraction record, not as errors.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInitFailed       = errors.New("failed to prepare document for extraction")
	ErrClassifyFailed   = errors.New("template classification failed")
	ErrExtractFailed    = errors.New("field extraction failed")
	ErrVerifyFailed     = errors.New("critical field verification failed")
	ErrCrossCheckFailed = errors.New("reference cross-validation failed")
	ErrFinalizeFailed   = errors.New("failed to persist extraction record")
)
