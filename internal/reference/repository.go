package reference

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hcortiz/cotejo/internal/match"
	"github.com/hcortiz/cotejo/pkg/repository"
)

const projection = `id, expediente, accion, grupo, codigo_grupo_detalle, is_active, fields, loaded_at`

// norm mirrors match.Normalize in SQL so lookups tolerate the same formatting
// drift as in-process comparisons.
const norm = `regexp_replace(upper(%s), '[^A-Z0-9]', '', 'g')`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a ledger repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "reference"),
	}
}

func (r *repo) Lookup(ctx context.Context, variants []Key) (*Record, error) {
	usable := 0

	for _, key := range variants {
		if key.Empty() {
			continue
		}
		usable++

		rec, err := r.lookupKey(ctx, key)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("lookup reference key: %w", err)
		}
		return rec, nil
	}

	if usable == 0 {
		return nil, ErrEmptyKey
	}
	return nil, ErrNoMatch
}

func (r *repo) lookupKey(ctx context.Context, key Key) (*Record, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM reference_records
		WHERE is_active
		  AND `+norm+` = $1
		  AND ltrim(`+norm+`, '0') = ltrim($2, '0')
		  AND (
			ltrim(`+norm+`, '0') = ltrim($3, '0')
			OR ($3 <> '' AND `+norm+` LIKE '%%' || $3 || '%%')
		  )
		LIMIT 1`,
		projection, "expediente", "accion", "grupo", "codigo_grupo_detalle")

	args := []any{
		match.Normalize(key.Expediente),
		match.Normalize(key.Accion),
		match.Normalize(key.Grupo),
	}

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, err
	}

	if !match.ValuesMatch(rec.Grupo, key.Grupo) {
		// Row matched only through the detail-code substring rule, which is
		// permissive enough to hit unrelated codes sharing the same digits.
		r.logger.Warn(
			"reference match via codigo_grupo_detalle substring",
			"expediente", rec.Expediente,
			"grupo", key.Grupo,
			"codigo_grupo_detalle", rec.CodigoGrupoDetalle,
		)
	}

	return &rec, nil
}

func scanRecord(s repository.Scanner) (Record, error) {
	var rec Record
	var fields []byte

	if err := s.Scan(
		&rec.ID,
		&rec.Expediente,
		&rec.Accion,
		&rec.Grupo,
		&rec.CodigoGrupoDetalle,
		&rec.IsActive,
		&fields,
		&rec.LoadedAt,
	); err != nil {
		return rec, err
	}

	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return rec, fmt.Errorf("decode reference fields: %w", err)
	}
	return rec, nil
}
