package documents

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, status string, limit int) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
