package pipeline

import (
	"log/slog"

	"github.com/hcortiz/cotejo/internal/documents"
	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/reference"
	"github.com/hcortiz/cotejo/internal/render"
	"github.com/hcortiz/cotejo/internal/templates"
	"github.com/hcortiz/cotejo/internal/vision"
	"github.com/hcortiz/cotejo/pkg/storage"
)

// Runtime bundles the dependencies that pipeline nodes require.
// It is constructed once by higher-level composition code and shared by all
// batch workers; every member is safe for concurrent use.
type Runtime struct {
	Vision      vision.Backend
	Render      render.Engine
	Storage     storage.System
	Documents   documents.System
	Templates   templates.System
	Reference   reference.System
	Extractions extractions.System
	Config      Config
	Logger      *slog.Logger
}
