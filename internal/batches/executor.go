package batches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"golang.org/x/sync/errgroup"

	"github.com/hcortiz/cotejo/internal/vision"
	"github.com/hcortiz/cotejo/pkg/retry"
)

// Runner executes the extraction pipeline for one document. It is injected
// so the executor can be tested without a live pipeline.
type Runner func(ctx context.Context, documentID uuid.UUID) error

// ExecutorConfig bounds the worker pool and shapes the retry behavior.
// Workers is the single knob limiting load on the extraction backend.
type ExecutorConfig struct {
	Workers int
	Retry   retry.Policy
}

// DefaultExecutorConfig returns a conservative pool sized for rate-limited
// vision backends.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Workers: 2,
		Retry:   retry.Default(IsRetryable),
	}
}

// IsRetryable reports whether a pipeline failure is worth retrying. Only
// backend throttling qualifies; malformed input and missing documents fail
// an item immediately without consuming retry budget.
func IsRetryable(err error) bool {
	return errors.Is(err, vision.ErrRateLimited)
}

// Executor drains a batch's pending items through a fixed-size worker pool.
// Each worker runs one document pipeline to completion before taking the
// next item; the batch cancel flag is observed between documents, never
// mid-document.
type Executor struct {
	store  Store
	run    Runner
	cfg    ExecutorConfig
	logger *slog.Logger
}

// NewExecutor creates a batch executor.
func NewExecutor(store Store, run Runner, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &Executor{
		store:  store,
		run:    run,
		cfg:    cfg,
		logger: logger.With("system", "batches"),
	}
}

// Run processes every pending item of the batch and seals the batch status.
// Item failures are recorded, not returned; Run only errors on store
// failures or context cancellation.
func (e *Executor) Run(ctx context.Context, batchID uuid.UUID) error {
	if err := e.store.SetBatchStatus(ctx, batchID, BatchProcessing); err != nil {
		return fmt.Errorf("start batch %s: %w", batchID, err)
	}

	items, err := e.store.PendingItems(ctx, batchID)
	if err != nil {
		return fmt.Errorf("load pending items: %w", err)
	}

	jobs := make(chan Item)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range e.cfg.Workers {
		g.Go(func() error {
			halted := false
			for item := range jobs {
				if halted {
					continue
				}

				cancelled, err := e.store.IsCancelled(gctx, batchID)
				if err != nil {
					return fmt.Errorf("read cancel flag: %w", err)
				}
				if cancelled {
					halted = true
					continue
				}

				e.processItem(gctx, item)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	cancelled, err := e.store.IsCancelled(ctx, batchID)
	if err != nil {
		return fmt.Errorf("read cancel flag: %w", err)
	}

	final := BatchCompleted
	if cancelled {
		final = BatchCancelled
	}

	if err := e.store.SetBatchStatus(ctx, batchID, final); err != nil {
		return fmt.Errorf("seal batch %s: %w", batchID, err)
	}

	e.logger.Info(
		"batch run finished",
		"batch_id", batchID,
		"items", len(items),
		"status", final,
	)
	return nil
}

func (e *Executor) processItem(ctx context.Context, item Item) {
	if err := e.store.MarkProcessing(ctx, item.ID); err != nil {
		e.logger.Error(
			"failed to claim batch item",
			"item_id", item.ID,
			"error", err,
		)
		return
	}

	start := time.Now()
	err := e.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		return e.run(ctx, item.DocumentID)
	})
	duration := time.Since(start)

	if err != nil {
		e.logger.Warn(
			"batch item failed",
			"item_id", item.ID,
			"document_id", item.DocumentID,
			"error", err,
		)

		if err := e.store.FailItem(ctx, item.ID, err.Error(), duration); err != nil {
			e.logger.Error("failed to record item failure", "item_id", item.ID, "error", err)
		}
		return
	}

	if err := e.store.CompleteItem(ctx, item.ID, duration); err != nil {
		e.logger.Error("failed to record item completion", "item_id", item.ID, "error", err)
	}
}
