package templates

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for template catalog operations.
type System interface {
	Handler() *Handler

	// Catalog returns the latest published version of every template,
	// ordered by name. Used by the pipeline classifier.
	Catalog(ctx context.Context) ([]Template, error)

	Find(ctx context.Context, id uuid.UUID) (*Template, error)
	FindByName(ctx context.Context, name string) (*Template, error)
	Publish(ctx context.Context, cmd PublishCommand) (*Template, error)
}
