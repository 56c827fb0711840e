package pipeline

import (
	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/render"
	"github.com/hcortiz/cotejo/internal/templates"
	"github.com/hcortiz/cotejo/internal/vision"
)

// State bag keys.
const (
	KeyDocumentID = "document_id"
	KeyTempDir    = "temp_dir"
	KeyExtraction = "extraction_state"
)

// CalibratedRegion is a template region adjusted to one document instance.
// Calibrated is false when calibration failed and the region is carried
// through with its template coordinates for a best-effort extraction.
type CalibratedRegion struct {
	templates.Region
	Calibrated bool
}

// ExtractionState accumulates the single-document pipeline run. Ownership
// passes sequentially from node to node; no two nodes mutate it concurrently.
type ExtractionState struct {
	DocumentID     uuid.UUID
	Filename       string
	PDFPath        string
	Page           *render.Page
	Template       *templates.Template
	Classification *vision.TemplateMatch
	Regions        []CalibratedRegion
	Record         extractions.Record
}

// Terminal reports whether an earlier node already rejected the document,
// in which case remaining analysis nodes are skipped.
func (s *ExtractionState) Terminal() bool {
	return s.Record.Verdict == extractions.VerdictRejected
}

// Result is the final output from an extraction pipeline execution.
type Result struct {
	DocumentID uuid.UUID          `json:"document_id"`
	Filename   string             `json:"filename"`
	Record     extractions.Record `json:"record"`
}

// Config holds the pipeline decision thresholds.
type Config struct {
	// ClassifyGate is the minimum template classification confidence.
	// Below it the document is rejected outright.
	ClassifyGate float64
	// AcceptThreshold is the region success ratio above which extraction is
	// tentatively accepted.
	AcceptThreshold float64
	// MediumRatio is the minimum critical-field agreement ratio for the
	// medium verification bucket.
	MediumRatio float64
	// RegionWorkers bounds concurrent region extraction calls per document.
	RegionWorkers int
}

// DefaultConfig returns the standard pipeline thresholds.
func DefaultConfig() Config {
	return Config{
		ClassifyGate:    0.70,
		AcceptThreshold: 0.85,
		MediumRatio:     0.75,
		RegionWorkers:   4,
	}
}
