package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"golang.org/x/time/rate"

	"github.com/hcortiz/cotejo/internal/batches"
	"github.com/hcortiz/cotejo/internal/documents"
	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/pipeline"
	"github.com/hcortiz/cotejo/internal/reference"
	"github.com/hcortiz/cotejo/internal/render"
	"github.com/hcortiz/cotejo/internal/templates"
	"github.com/hcortiz/cotejo/internal/vision"
	"github.com/hcortiz/cotejo/pkg/retry"
)

// Domain holds all domain systems that comprise the API, plus the pipeline
// runtime and batch executor built on top of them.
type Domain struct {
	Documents   documents.System
	Templates   templates.System
	Reference   reference.System
	Extractions extractions.System
	Batches     batches.System

	Pipeline *pipeline.Runtime
	Executor *batches.Executor
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(rt *Runtime) (*Domain, error) {
	db := rt.Database.Connection()

	docsSystem := documents.New(db, rt.Storage, rt.Logger)
	templatesSystem := templates.New(db, rt.Logger)
	referenceSystem := reference.New(db, rt.Logger)
	extractionsSystem := extractions.New(db, rt.Logger)
	batchesSystem := batches.New(db, docsSystem, rt.Logger)

	backend, err := vision.New(
		&rt.Config.Agent,
		rate.Limit(rt.Config.Pipeline.RequestRate),
		rt.Config.Pipeline.RequestBurst,
		rt.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("vision backend init failed: %w", err)
	}

	pipelineRuntime := &pipeline.Runtime{
		Vision:      backend,
		Render:      render.NewEngine(),
		Storage:     rt.Storage,
		Documents:   docsSystem,
		Templates:   templatesSystem,
		Reference:   referenceSystem,
		Extractions: extractionsSystem,
		Config: pipeline.Config{
			ClassifyGate:    rt.Config.Pipeline.ClassifyGate,
			AcceptThreshold: rt.Config.Pipeline.AcceptThreshold,
			MediumRatio:     rt.Config.Pipeline.MediumRatio,
			RegionWorkers:   rt.Config.Pipeline.RegionWorkers,
		},
		Logger: rt.Logger.With("module", "pipeline"),
	}

	executor := batches.NewExecutor(
		batchesSystem,
		func(ctx context.Context, documentID uuid.UUID) error {
			_, err := pipeline.Execute(ctx, pipelineRuntime, documentID)
			return err
		},
		batches.ExecutorConfig{
			Workers: rt.Config.Batch.Workers,
			Retry: retry.Policy{
				MaxAttempts: rt.Config.Batch.MaxAttempts,
				BaseDelay:   rt.Config.Batch.BaseDelayDuration(),
				MaxDelay:    rt.Config.Batch.MaxDelayDuration(),
				Retryable:   batches.IsRetryable,
			},
		},
		rt.Logger,
	)

	return &Domain{
		Documents:   docsSystem,
		Templates:   templatesSystem,
		Reference:   referenceSystem,
		Extractions: extractionsSystem,
		Batches:     batchesSystem,
		Pipeline:    pipelineRuntime,
		Executor:    executor,
	}, nil
}
