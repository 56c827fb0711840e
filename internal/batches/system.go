package batches

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// System defines the public contract for batch submission and tracking.
type System interface {
	Handler() *Handler
	Store

	// Submit validates the field schema, creates the batch with one pending
	// item per document, and marks the documents queued.
	Submit(ctx context.Context, cmd SubmitCommand) (*Receipt, error)

	Find(ctx context.Context, id uuid.UUID) (*Batch, error)

	// Progress reports per-item states, aggregate counts, and the ETA
	// derived from the durable duration counters.
	Progress(ctx context.Context, id uuid.UUID) (*Progress, error)

	// Cancel raises the batch's cancel flag. In-flight items finish their
	// current document; workers observe the flag between items.
	Cancel(ctx context.Context, id uuid.UUID) error
}

// Store is the durable item queue consumed by the Executor. Separated from
// System so the executor can be tested against an in-memory implementation.
type Store interface {
	// PendingItems returns the batch's pending items in submission order.
	PendingItems(ctx context.Context, batchID uuid.UUID) ([]Item, error)

	// MarkProcessing transitions a pending item to processing and counts
	// the attempt.
	MarkProcessing(ctx context.Context, itemID uuid.UUID) error

	// CompleteItem transitions an item to completed, records its duration,
	// and bumps the batch's completed counter.
	CompleteItem(ctx context.Context, itemID uuid.UUID, duration time.Duration) error

	// FailItem transitions an item to failed with its last error and bumps
	// the batch's failed counter.
	FailItem(ctx context.Context, itemID uuid.UUID, lastError string, duration time.Duration) error

	// IsCancelled reads the batch's cancel flag.
	IsCancelled(ctx context.Context, batchID uuid.UUID) (bool, error)

	// SetBatchStatus moves the batch itself through its lifecycle.
	SetBatchStatus(ctx context.Context, batchID uuid.UUID, status string) error
}
