// Package extractions implements the extraction-record domain for Cotejo.
// It stores the outcome of one pipeline run per document: extracted fields,
// aggregate confidence, the verification bucket, ledger discrepancies, and
// the final verdict with its machine-readable category.
package extractions

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is the pipeline's accept/review/reject decision for a document.
type Verdict string

// Verdict values. A record is accepted only when aggregate confidence clears
// the threshold, verification left no unresolved critical-field discrepancy,
// and cross-validation found zero critical discrepancies.
const (
	VerdictAccepted    Verdict = "accepted"
	VerdictNeedsReview Verdict = "needs_review"
	VerdictRejected    Verdict = "rejected"
)

// RejectionCategory is the machine-readable reason for a terminal rejection.
type RejectionCategory string

// Rejection categories.
const (
	CategoryNone             RejectionCategory = ""
	CategoryUnrecognizedForm RejectionCategory = "unrecognized_document_type"
	CategoryNoReferenceMatch RejectionCategory = "no_reference_match"
)

// VerificationBucket is the self-consistency confidence level from the
// critical-field double extraction.
type VerificationBucket string

// Verification buckets. High means every critical field agreed across both
// passes; medium lists the disagreeing fields for review; low forces manual
// review.
const (
	VerificationHigh   VerificationBucket = "high"
	VerificationMedium VerificationBucket = "medium"
	VerificationLow    VerificationBucket = "low"
)

// Severity classifies a cross-validation discrepancy.
type Severity string

// Discrepancy severities. Identity and amount fields are critical; everything
// else is a warning.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// RegionResult records the outcome of extracting one template region.
type RegionResult struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Calibrated bool   `json:"calibrated"`
}

// Discrepancy is one field difference between the extracted record and its
// ledger row. Immutable once appended.
type Discrepancy struct {
	Field     string   `json:"field"`
	Extracted string   `json:"extracted"`
	Reference string   `json:"reference"`
	Severity  Severity `json:"severity"`
}

// Record is the persisted result of one extraction pipeline run.
type Record struct {
	ID                uuid.UUID          `json:"id"`
	DocumentID        uuid.UUID          `json:"document_id"`
	TemplateID        *uuid.UUID         `json:"template_id"`
	Fields            map[string]string  `json:"fields"`
	Confidence        float64            `json:"confidence"`
	Verdict           Verdict            `json:"verdict"`
	Category          RejectionCategory  `json:"category,omitempty"`
	Reason            string             `json:"reason,omitempty"`
	Regions           []RegionResult     `json:"regions"`
	Verification      VerificationBucket `json:"verification,omitempty"`
	VerificationFlags []string           `json:"verification_flags,omitempty"`
	Discrepancies     []Discrepancy      `json:"discrepancies,omitempty"`
	MatchPercentage   float64            `json:"match_percentage"`
	ModelName         string             `json:"model_name"`
	ProviderName      string             `json:"provider_name"`
	ExtractedAt       time.Time          `json:"extracted_at"`
}

// CriticalSeverityCount returns the number of critical discrepancies.
func (r *Record) CriticalSeverityCount() int {
	count := 0
	for _, d := range r.Discrepancies {
		if d.Severity == SeverityCritical {
			count++
		}
	}
	return count
}

// WarningSeverityCount returns the number of warning discrepancies.
func (r *Record) WarningSeverityCount() int {
	count := 0
	for _, d := range r.Discrepancies {
		if d.Severity == SeverityWarning {
			count++
		}
	}
	return count
}
