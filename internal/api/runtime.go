package api

import (
	"github.com/hcortiz/cotejo/internal/config"
	"github.com/hcortiz/cotejo/internal/infrastructure"
)

// Runtime extends Infrastructure with the API-facing configuration slices.
type Runtime struct {
	*infrastructure.Infrastructure
	Config *config.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Config: cfg,
	}
}
