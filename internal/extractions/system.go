package extractions

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for extraction record operations.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	FindByDocument(ctx context.Context, documentID uuid.UUID) (*Record, error)
	Create(ctx context.Context, record *Record) (*Record, error)
	ListByVerdict(ctx context.Context, verdict Verdict, limit int) ([]Record, error)
}
