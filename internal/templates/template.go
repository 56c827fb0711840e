// Package templates implements the form template catalog for Cotejo.
// A template describes the reference geometry of one published version of a
// subsidy form and the ordered field regions to extract from it.
package templates

import (
	"time"

	"github.com/google/uuid"
)

// FieldType distinguishes how a region's value is extracted.
type FieldType string

// Supported region field types.
const (
	FieldTypeText     FieldType = "text"
	FieldTypeCheckbox FieldType = "checkbox"
)

// BoundingBox locates a region in template reference pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Region is one labeled extraction area within a template.
type Region struct {
	Label     string      `json:"label"`
	Box       BoundingBox `json:"box"`
	FieldType FieldType   `json:"field_type"`
}

// Template is an immutable published form layout. Layout changes are made by
// publishing a new version, never by mutating an existing row.
type Template struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Version     int       `json:"version"`
	PageWidth   int       `json:"page_width"`
	PageHeight  int       `json:"page_height"`
	Regions     []Region  `json:"regions"`
	PublishedAt time.Time `json:"published_at"`
}

// PublishCommand carries the data needed to publish a new template version.
type PublishCommand struct {
	Name       string   `json:"name"`
	PageWidth  int      `json:"page_width"`
	PageHeight int      `json:"page_height"`
	Regions    []Region `json:"regions"`
}
