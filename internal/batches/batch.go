// Package batches implements durable batch submission and execution of the
// extraction pipeline. A batch queues a set of uploaded documents; a bounded
// worker pool drains them, retrying rate-limited items with backoff and
// recording every terminal outcome against durable per-batch counters.
package batches

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Batch statuses.
const (
	BatchQueued     = "queued"
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchCancelled  = "cancelled"
)

// Item statuses. Transitions are strictly forward:
// pending → processing → {completed | failed}.
const (
	ItemPending    = "pending"
	ItemProcessing = "processing"
	ItemCompleted  = "completed"
	ItemFailed     = "failed"
)

// itemTransitions enumerates the legal item status transitions.
var itemTransitions = map[string][]string{
	ItemPending:    {ItemProcessing},
	ItemProcessing: {ItemCompleted, ItemFailed},
}

// CanTransition reports whether an item may move from one status to another.
// Terminal statuses have no outgoing transitions; an item never reverses or
// skips a stage.
func CanTransition(from, to string) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Batch is one submitted extraction run over a set of documents.
// CompletedCount, FailedCount, and TotalDurationMS are durable running
// counters updated as items reach terminal status, so progress and ETA never
// require re-scanning items.
type Batch struct {
	ID              uuid.UUID       `json:"id"`
	Model           string          `json:"model"`
	FieldSchema     json.RawMessage `json:"field_schema,omitempty"`
	Status          string          `json:"status"`
	TotalCount      int             `json:"total_count"`
	CompletedCount  int             `json:"completed_count"`
	FailedCount     int             `json:"failed_count"`
	TotalDurationMS int64           `json:"total_duration_ms"`
	Cancelled       bool            `json:"cancelled"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Item is one document inside a batch.
type Item struct {
	ID         uuid.UUID `json:"id"`
	BatchID    uuid.UUID `json:"batch_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SubmitCommand carries a batch submission: the documents to process, the
// model identifier to record, and the JSON schema describing the expected
// field set. The schema must compile as a JSON Schema document.
type SubmitCommand struct {
	DocumentIDs []uuid.UUID     `json:"document_ids"`
	Model       string          `json:"model"`
	FieldSchema json.RawMessage `json:"field_schema"`
}

// Receipt is the submission response: the batch id and how many items were
// queued.
type Receipt struct {
	BatchID     uuid.UUID `json:"batch_id"`
	QueuedCount int       `json:"queued_count"`
}

// Progress is the status-query response for one batch.
type Progress struct {
	Batch        Batch  `json:"batch"`
	Items        []Item `json:"items"`
	PendingCount int    `json:"pending_count"`
	// ETASeconds estimates remaining time from the running average duration
	// of completed items times the remaining pending items. Zero until at
	// least one item has completed.
	ETASeconds float64 `json:"eta_seconds"`
}

// Remaining returns how many items have not yet reached terminal status.
func (b *Batch) Remaining() int {
	return b.TotalCount - b.CompletedCount - b.FailedCount
}

// ETA derives the estimated remaining seconds from the durable counters.
func (b *Batch) ETA() float64 {
	if b.CompletedCount == 0 {
		return 0
	}

	avgMS := float64(b.TotalDurationMS) / float64(b.CompletedCount)
	return avgMS * float64(b.Remaining()) / 1000
}
