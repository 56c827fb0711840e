// Package reference implements read-only access to the authoritative subsidy
// ledger that extracted records are reconciled against. The pipeline never
// mutates ledger rows; they are maintained by an external load process.
package reference

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hcortiz/cotejo/internal/match"
)

// Record is one authoritative ledger row. Fields holds the full comparable
// field set keyed by canonical field name, including the identity components.
type Record struct {
	ID                 uuid.UUID         `json:"id"`
	Expediente         string            `json:"expediente"`
	Accion             string            `json:"accion"`
	Grupo              string            `json:"grupo"`
	CodigoGrupoDetalle string            `json:"codigo_grupo_detalle"`
	IsActive           bool              `json:"is_active"`
	Fields             map[string]string `json:"fields"`
	LoadedAt           time.Time         `json:"loaded_at"`
}

// Key is the expediente/accion/grupo triple identifying a ledger row.
type Key struct {
	Expediente string `json:"expediente"`
	Accion     string `json:"accion"`
	Grupo      string `json:"grupo"`
}

// Alias candidate lists per logical identity field, in fallback order:
// canonical name first, then the next-most-common upstream alias, then the
// prefixed form some feeds emit. Alias lists are data; resolution logic
// lives in Resolve alone.
var (
	ExpedienteAliases = []string{"expediente", "numero_expediente", "n_expediente"}
	AccionAliases     = []string{"accion", "numero_accion", "codigo_accion"}
	GrupoAliases      = []string{"grupo", "numero_grupo", "codigo_grupo"}
)

// Resolve returns the first candidate field with a non-empty normalized value.
func Resolve(fields map[string]string, candidates []string) string {
	for _, name := range candidates {
		if v, ok := fields[name]; ok && match.Normalize(v) != "" {
			return v
		}
	}
	return ""
}

var prefixedExpediente = regexp.MustCompile(`^([A-Z])(\d+)$`)

// KeyVariants builds the ordered list of identity keys to try against the
// ledger for an extracted field set. The first variant uses the resolved
// values as extracted; when the expediente has the compact letter+digits
// form, a "<letter> - <digits>" spelled-out variant is appended because some
// ledger feeds store it that way.
func KeyVariants(fields map[string]string) []Key {
	base := Key{
		Expediente: Resolve(fields, ExpedienteAliases),
		Accion:     Resolve(fields, AccionAliases),
		Grupo:      Resolve(fields, GrupoAliases),
	}

	variants := []Key{base}

	if m := prefixedExpediente.FindStringSubmatch(match.Normalize(base.Expediente)); m != nil {
		spelled := base
		spelled.Expediente = m[1] + " - " + m[2]
		variants = append(variants, spelled)
	}

	return variants
}

// Empty reports whether the key has no usable identity component.
func (k Key) Empty() bool {
	return match.Normalize(k.Expediente) == "" &&
		match.Normalize(k.Accion) == "" &&
		match.Normalize(k.Grupo) == ""
}
