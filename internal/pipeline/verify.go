package pipeline

import (
	"context"
	"fmt"
	"regexp"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/match"
	"github.com/hcortiz/cotejo/internal/reference"
	"github.com/hcortiz/cotejo/internal/vision"
)

// NifAliases lists the source field names that may carry the tax id, in
// fallback order.
var NifAliases = []string{"nif", "cif", "nif_cif", "dni"}

// Format validators applied during reconciliation, on normalized values.
// Acción and grupo are plain numbers with no checkable shape.
var (
	nifFormat        = regexp.MustCompile(`^[A-Z]\d{8}$`)
	expedienteFormat = regexp.MustCompile(`^[A-Z]\d{2,}`)
)

// criticalField binds one critical field to its source aliases and optional
// format validator.
type criticalField struct {
	name      string
	aliases   []string
	validates func(string) bool
	second    func(*vision.CriticalFields) string
}

var criticalFields = []criticalField{
	{
		name:      "expediente",
		aliases:   reference.ExpedienteAliases,
		validates: func(v string) bool { return expedienteFormat.MatchString(match.Normalize(v)) },
		second:    func(cf *vision.CriticalFields) string { return cf.Expediente },
	},
	{
		name:    "accion",
		aliases: reference.AccionAliases,
		second:  func(cf *vision.CriticalFields) string { return cf.Accion },
	},
	{
		name:    "grupo",
		aliases: reference.GrupoAliases,
		second:  func(cf *vision.CriticalFields) string { return cf.Grupo },
	},
	{
		name:      "nif",
		aliases:   NifAliases,
		validates: func(v string) bool { return nifFormat.MatchString(match.Normalize(v)) },
		second:    func(cf *vision.CriticalFields) string { return cf.Nif },
	},
}

// VerifyNode returns a state node that re-extracts the critical fields with
// an independently worded prompt and reconciles disagreements against the
// first pass. The agreement ratio maps to a verification bucket; anything
// short of full agreement, or an unresolved disagreement, downgrades the
// tentative verdict to needs_review.
func VerifyNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("verify: %w", err)
		}

		pageURI, err := rt.Render.PageDataURI(es.Page.ImagePath)
		if err != nil {
			return s, fmt.Errorf("verify: %w: %w", ErrVerifyFailed, err)
		}

		secondPass, err := rt.Vision.ExtractCriticalFields(ctx, pageURI)
		if err != nil {
			return s, fmt.Errorf("verify: %w: %w", ErrVerifyFailed, err)
		}

		agreed := 0
		var flags []string

		for _, cf := range criticalFields {
			fieldName, first := resolveField(es.Record.Fields, cf.aliases)
			if fieldName == "" {
				fieldName = cf.name
			}
			second := cf.second(secondPass)

			if match.ValuesMatch(first, second) {
				agreed++
				continue
			}

			value, resolved := reconcile(first, second, cf.validates)
			es.Record.Fields[fieldName] = value
			if !resolved {
				flags = append(flags, cf.name)
			}

			rt.Logger.WarnContext(
				ctx, "critical field disagreement",
				"document_id", es.DocumentID,
				"field", cf.name,
				"resolved", resolved,
			)
		}

		ratio := float64(agreed) / float64(len(criticalFields))
		es.Record.Verification = bucketFor(ratio, rt.Config.MediumRatio)
		es.Record.VerificationFlags = flags

		if es.Record.Verdict == extractions.VerdictAccepted &&
			(es.Record.Verification != extractions.VerificationHigh || len(flags) > 0) {
			es.Record.Verdict = extractions.VerdictNeedsReview
			es.Record.Reason = fmt.Sprintf(
				"critical field verification %s with %d unresolved field(s)",
				es.Record.Verification, len(flags),
			)
		}

		rt.Logger.InfoContext(
			ctx, "verify node complete",
			"document_id", es.DocumentID,
			"agreement", ratio,
			"bucket", es.Record.Verification,
			"unresolved", len(flags),
		)

		return s.Set(KeyExtraction, *es), nil
	})
}

// resolveField returns the first alias present with a non-empty normalized
// value, along with the field name it resolved from.
func resolveField(fields map[string]string, candidates []string) (string, string) {
	for _, name := range candidates {
		if v, ok := fields[name]; ok && match.Normalize(v) != "" {
			return name, v
		}
	}
	return "", ""
}

// reconcile merges two disagreeing extraction passes. An empty re-extraction
// never overrides a present value; absence is not evidence of error. When
// both passes hold values, a format validator adjudicates; if it cannot, the
// first pass wins and the field stays flagged rather than guessed.
func reconcile(first, second string, validates func(string) bool) (string, bool) {
	if match.Normalize(first) == "" {
		return second, true
	}
	if match.Normalize(second) == "" {
		return first, true
	}

	if validates != nil {
		firstOK := validates(first)
		secondOK := validates(second)

		if firstOK && !secondOK {
			return first, true
		}
		if secondOK && !firstOK {
			return second, true
		}
	}

	return first, false
}

func bucketFor(ratio, mediumRatio float64) extractions.VerificationBucket {
	switch {
	case ratio == 1:
		return extractions.VerificationHigh
	case ratio >= mediumRatio:
		return extractions.VerificationMedium
	default:
		return extractions.VerificationLow
	}
}
