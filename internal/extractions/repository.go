package extractions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/pkg/repository"
)

const projection = `id, document_id, template_id, fields, confidence, verdict, category,
	reason, regions, verification, verification_flags, discrepancies,
	match_percentage, model_name, provider_name, extracted_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates an extraction record repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "extractions"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM extractions WHERE id = $1`, projection)

	rec, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) FindByDocument(ctx context.Context, documentID uuid.UUID) (*Record, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM extractions
		WHERE document_id = $1
		ORDER BY extracted_at DESC
		LIMIT 1`, projection)

	rec, err := repository.QueryOne(ctx, r.db, q, []any{documentID}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) Create(ctx context.Context, record *Record) (*Record, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	fields, err := json.Marshal(record.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	regions, err := json.Marshal(record.Regions)
	if err != nil {
		return nil, fmt.Errorf("encode regions: %w", err)
	}
	flags, err := json.Marshal(record.VerificationFlags)
	if err != nil {
		return nil, fmt.Errorf("encode verification flags: %w", err)
	}
	discrepancies, err := json.Marshal(record.Discrepancies)
	if err != nil {
		return nil, fmt.Errorf("encode discrepancies: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO extractions(
			id, document_id, template_id, fields, confidence, verdict, category,
			reason, regions, verification, verification_flags, discrepancies,
			match_percentage, model_name, provider_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING %s`, projection)

	args := []any{
		record.ID,
		record.DocumentID,
		record.TemplateID,
		fields,
		record.Confidence,
		record.Verdict,
		record.Category,
		record.Reason,
		regions,
		record.Verification,
		flags,
		discrepancies,
		record.MatchPercentage,
		record.ModelName,
		record.ProviderName,
	}

	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Record, error) {
		return repository.QueryOne(ctx, tx, q, args, scanRecord)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"extraction recorded",
		"id", rec.ID,
		"document_id", rec.DocumentID,
		"verdict", rec.Verdict,
		"confidence", rec.Confidence,
	)
	return &rec, nil
}

func (r *repo) ListByVerdict(ctx context.Context, verdict Verdict, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	q := fmt.Sprintf(`
		SELECT %s FROM extractions
		WHERE verdict = $1
		ORDER BY extracted_at DESC
		LIMIT $2`, projection)

	records, err := repository.QueryMany(ctx, r.db, q, []any{verdict, limit}, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	return records, nil
}

func scanRecord(s repository.Scanner) (Record, error) {
	var rec Record
	var fields, regions, flags, discrepancies []byte

	if err := s.Scan(
		&rec.ID,
		&rec.DocumentID,
		&rec.TemplateID,
		&fields,
		&rec.Confidence,
		&rec.Verdict,
		&rec.Category,
		&rec.Reason,
		&regions,
		&rec.Verification,
		&flags,
		&discrepancies,
		&rec.MatchPercentage,
		&rec.ModelName,
		&rec.ProviderName,
		&rec.ExtractedAt,
	); err != nil {
		return rec, err
	}

	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return rec, fmt.Errorf("decode fields: %w", err)
	}
	if err := json.Unmarshal(regions, &rec.Regions); err != nil {
		return rec, fmt.Errorf("decode regions: %w", err)
	}
	if err := json.Unmarshal(flags, &rec.VerificationFlags); err != nil {
		return rec, fmt.Errorf("decode verification flags: %w", err)
	}
	if err := json.Unmarshal(discrepancies, &rec.Discrepancies); err != nil {
		return rec, fmt.Errorf("decode discrepancies: %w", err)
	}
	return rec, nil
}
