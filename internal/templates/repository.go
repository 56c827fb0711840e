package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/pkg/repository"
)

const projection = `id, name, version, page_width, page_height, regions, published_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a template repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "templates"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Catalog(ctx context.Context) ([]Template, error) {
	q := fmt.Sprintf(`
		SELECT DISTINCT ON (name) %s
		FROM templates
		ORDER BY name, version DESC`, projection)

	catalog, err := repository.QueryMany(ctx, r.db, q, nil, scanTemplate)
	if err != nil {
		return nil, fmt.Errorf("query template catalog: %w", err)
	}

	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	return catalog, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Template, error) {
	q := fmt.Sprintf(`SELECT %s FROM templates WHERE id = $1`, projection)

	t, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanTemplate)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) FindByName(ctx context.Context, name string) (*Template, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM templates
		WHERE name = $1
		ORDER BY version DESC
		LIMIT 1`, projection)

	t, err := repository.QueryOne(ctx, r.db, q, []any{name}, scanTemplate)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) Publish(ctx context.Context, cmd PublishCommand) (*Template, error) {
	if len(cmd.Regions) == 0 {
		return nil, ErrNoRegions
	}

	regions, err := json.Marshal(cmd.Regions)
	if err != nil {
		return nil, fmt.Errorf("encode regions: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO templates(id, name, version, page_width, page_height, regions)
		VALUES ($1, $2, COALESCE((SELECT MAX(version) FROM templates WHERE name = $2), 0) + 1, $3, $4, $5)
		RETURNING %s`, projection)

	args := []any{uuid.New(), cmd.Name, cmd.PageWidth, cmd.PageHeight, regions}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Template, error) {
		return repository.QueryOne(ctx, tx, q, args, scanTemplate)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("template published", "id", t.ID, "name", t.Name, "version", t.Version)
	return &t, nil
}

func scanTemplate(s repository.Scanner) (Template, error) {
	var t Template
	var regions []byte

	if err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Version,
		&t.PageWidth,
		&t.PageHeight,
		&regions,
		&t.PublishedAt,
	); err != nil {
		return t, err
	}

	if err := json.Unmarshal(regions, &t.Regions); err != nil {
		return t, fmt.Errorf("decode regions: %w", err)
	}
	return t, nil
}
