package batches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/internal/documents"
	"github.com/hcortiz/cotejo/pkg/repository"
)

const batchProjection = `id, model, field_schema, status, total_count, completed_count,
	failed_count, total_duration_ms, cancelled, submitted_at, updated_at`

const itemProjection = `id, batch_id, document_id, status, attempts, last_error,
	duration_ms, updated_at`

type repo struct {
	db     *sql.DB
	docs   documents.System
	logger *slog.Logger
}

// New creates a batch repository implementing the System interface.
func New(db *sql.DB, docs documents.System, logger *slog.Logger) System {
	return &repo{
		db:     db,
		docs:   docs,
		logger: logger.With("system", "batches"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Submit(ctx context.Context, cmd SubmitCommand) (*Receipt, error) {
	if len(cmd.DocumentIDs) == 0 {
		return nil, ErrEmptySubmission
	}

	if _, err := compileFieldSchema(cmd.FieldSchema); err != nil {
		return nil, err
	}

	for _, id := range cmd.DocumentIDs {
		if _, err := r.docs.Find(ctx, id); err != nil {
			return nil, fmt.Errorf("%w: document %s: %w", ErrMalformedInput, id, err)
		}
	}

	batchID := uuid.New()

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var none struct{}

		q := `
			INSERT INTO batches(id, model, field_schema, status, total_count)
			VALUES ($1, $2, $3, $4, $5)`
		if err := repository.ExecExpectOne(ctx, tx, q, batchID, cmd.Model, []byte(cmd.FieldSchema), BatchQueued, len(cmd.DocumentIDs)); err != nil {
			return none, fmt.Errorf("insert batch: %w", err)
		}

		itemQ := `
			INSERT INTO batch_items(id, batch_id, document_id, status)
			VALUES ($1, $2, $3, $4)`
		for _, docID := range cmd.DocumentIDs {
			if err := repository.ExecExpectOne(ctx, tx, itemQ, uuid.New(), batchID, docID, ItemPending); err != nil {
				return none, fmt.Errorf("insert item for document %s: %w", docID, err)
			}
		}

		return none, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	for _, docID := range cmd.DocumentIDs {
		if err := r.docs.SetStatus(ctx, docID, documents.StatusQueued); err != nil {
			r.logger.Warn("failed to mark document queued", "document_id", docID, "error", err)
		}
	}

	r.logger.Info(
		"batch submitted",
		"batch_id", batchID,
		"model", cmd.Model,
		"items", len(cmd.DocumentIDs),
	)

	return &Receipt{BatchID: batchID, QueuedCount: len(cmd.DocumentIDs)}, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Batch, error) {
	q := fmt.Sprintf(`SELECT %s FROM batches WHERE id = $1`, batchProjection)

	batch, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanBatch)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &batch, nil
}

func (r *repo) Progress(ctx context.Context, id uuid.UUID) (*Progress, error) {
	batch, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		SELECT %s FROM batch_items
		WHERE batch_id = $1
		ORDER BY updated_at`, itemProjection)

	items, err := repository.QueryMany(ctx, r.db, q, []any{id}, scanItem)
	if err != nil {
		return nil, fmt.Errorf("query batch items: %w", err)
	}

	return &Progress{
		Batch:        *batch,
		Items:        items,
		PendingCount: batch.Remaining(),
		ETASeconds:   batch.ETA(),
	}, nil
}

func (r *repo) Cancel(ctx context.Context, id uuid.UUID) error {
	q := `
		UPDATE batches
		SET cancelled = TRUE, updated_at = now()
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, q, id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("batch cancelled", "batch_id", id)
	return nil
}

func (r *repo) PendingItems(ctx context.Context, batchID uuid.UUID) ([]Item, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM batch_items
		WHERE batch_id = $1 AND status = $2
		ORDER BY updated_at`, itemProjection)

	items, err := repository.QueryMany(ctx, r.db, q, []any{batchID, ItemPending}, scanItem)
	if err != nil {
		return nil, fmt.Errorf("query pending items: %w", err)
	}
	return items, nil
}

func (r *repo) MarkProcessing(ctx context.Context, itemID uuid.UUID) error {
	q := `
		UPDATE batch_items
		SET status = $2, attempts = attempts + 1, updated_at = now()
		WHERE id = $1 AND status = $3`

	if err := repository.ExecExpectOne(ctx, r.db, q, itemID, ItemProcessing, ItemPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: item %s is not pending", ErrInvalidStatus, itemID)
		}
		return fmt.Errorf("mark item processing: %w", err)
	}
	return nil
}

func (r *repo) CompleteItem(ctx context.Context, itemID uuid.UUID, duration time.Duration) error {
	return r.finishItem(ctx, itemID, ItemCompleted, "", duration)
}

func (r *repo) FailItem(ctx context.Context, itemID uuid.UUID, lastError string, duration time.Duration) error {
	return r.finishItem(ctx, itemID, ItemFailed, lastError, duration)
}

// finishItem seals an item and bumps the batch's durable counters in one
// transaction so progress reads never observe a half-recorded outcome.
func (r *repo) finishItem(ctx context.Context, itemID uuid.UUID, status, lastError string, duration time.Duration) error {
	durationMS := duration.Milliseconds()

	itemQ := `
		UPDATE batch_items
		SET status = $2, last_error = $3, duration_ms = $4, updated_at = now()
		WHERE id = $1 AND status = $5`

	counter := "completed_count"
	if status == ItemFailed {
		counter = "failed_count"
	}

	batchQ := fmt.Sprintf(`
		UPDATE batches
		SET %s = %s + 1, total_duration_ms = total_duration_ms + $2, updated_at = now()
		WHERE id = (SELECT batch_id FROM batch_items WHERE id = $1)`, counter, counter)

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var none struct{}

		if err := repository.ExecExpectOne(ctx, tx, itemQ, itemID, status, lastError, durationMS, ItemProcessing); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return none, fmt.Errorf("%w: item %s is not processing", ErrInvalidStatus, itemID)
			}
			return none, fmt.Errorf("seal item: %w", err)
		}

		if err := repository.ExecExpectOne(ctx, tx, batchQ, itemID, durationMS); err != nil {
			return none, fmt.Errorf("bump batch counters: %w", err)
		}

		return none, nil
	})
	return err
}

func (r *repo) IsCancelled(ctx context.Context, batchID uuid.UUID) (bool, error) {
	q := `SELECT cancelled FROM batches WHERE id = $1`

	cancelled, err := repository.QueryValue[bool](ctx, r.db, q, batchID)
	if err != nil {
		return false, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return cancelled, nil
}

func (r *repo) SetBatchStatus(ctx context.Context, batchID uuid.UUID, status string) error {
	q := `
		UPDATE batches
		SET status = $2, updated_at = now()
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, q, batchID, status); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func scanBatch(s repository.Scanner) (Batch, error) {
	var b Batch
	err := s.Scan(
		&b.ID,
		&b.Model,
		&b.FieldSchema,
		&b.Status,
		&b.TotalCount,
		&b.CompletedCount,
		&b.FailedCount,
		&b.TotalDurationMS,
		&b.Cancelled,
		&b.SubmittedAt,
		&b.UpdatedAt,
	)
	return b, err
}

func scanItem(s repository.Scanner) (Item, error) {
	var i Item
	err := s.Scan(
		&i.ID,
		&i.BatchID,
		&i.DocumentID,
		&i.Status,
		&i.Attempts,
		&i.LastError,
		&i.DurationMS,
		&i.UpdatedAt,
	)
	return i, err
}
