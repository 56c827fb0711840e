package reference

import "context"

// System defines the public contract for ledger lookups. The ledger is
// read-only and safe to share across pipeline workers without locking.
type System interface {
	// Lookup tries each identity key variant in order and returns the first
	// active ledger row that matches. Grupo matching also accepts a substring
	// hit against the row's codigo_grupo_detalle composite code.
	// Returns ErrNoMatch when no variant matches any active row.
	Lookup(ctx context.Context, variants []Key) (*Record, error)
}
