// Package api assembles the API module with all domain systems, the
// extraction pipeline runtime, and route registration.
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/internal/config"
	"github.com/hcortiz/cotejo/internal/infrastructure"
	"github.com/hcortiz/cotejo/pkg/middleware"
	"github.com/hcortiz/cotejo/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}

// launch starts a batch run detached from the submitting request. The run
// outlives the HTTP request, so it runs under a fresh context; cancellation
// happens through the batch's durable cancel flag instead.
func (d *Domain) launch(batchID uuid.UUID) {
	go func() {
		if err := d.Executor.Run(context.Background(), batchID); err != nil {
			d.Pipeline.Logger.Error(
				"batch run aborted",
				"batch_id", batchID,
				"error", err,
			)
		}
	}()
}
