// Package documents implements the scanned-form document domain for Cotejo.
// It registers uploaded subsidy form PDFs, stores them in blob storage, and
// tracks their processing status.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document statuses.
const (
	StatusUploaded  = "uploaded"
	StatusQueued    = "queued"
	StatusProcessed = "processed"
)

// Document represents a registered scanned form with its blob storage reference.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   int       `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new document.
// Data holds the raw PDF bytes; the page count is derived during registration.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
}
