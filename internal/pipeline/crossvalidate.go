package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/match"
	"github.com/hcortiz/cotejo/internal/reference"
)

// CrossValidateNode returns a state node that reconciles the extracted
// record against the authoritative ledger. A lookup miss is a terminal
// rejection: downstream reporting must never carry a record that cannot be
// reconciled. A match is compared field by field, mismatches classified by
// severity, and any critical discrepancy downgrades the verdict.
func CrossValidateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("crossvalidate: %w", err)
		}

		variants := reference.KeyVariants(es.Record.Fields)

		rec, err := rt.Reference.Lookup(ctx, variants)
		if err != nil {
			if errors.Is(err, reference.ErrNoMatch) || errors.Is(err, reference.ErrEmptyKey) {
				es.Record.Verdict = extractions.VerdictRejected
				es.Record.Category = extractions.CategoryNoReferenceMatch
				es.Record.Reason = "no active ledger row matches the extracted identity key"

				rt.Logger.WarnContext(
					ctx, "document rejected at cross-validation",
					"document_id", es.DocumentID,
					"variants", len(variants),
				)

				return s.Set(KeyExtraction, *es), nil
			}
			return s, fmt.Errorf("crossvalidate: %w: %w", ErrCrossCheckFailed, err)
		}

		compared, matched := compareFields(es, rec)

		if compared > 0 {
			es.Record.MatchPercentage = float64(matched) / float64(compared) * 100
		}

		critical := es.Record.CriticalSeverityCount()
		if es.Record.Verdict == extractions.VerdictAccepted && critical > 0 {
			es.Record.Verdict = extractions.VerdictNeedsReview
			es.Record.Reason = fmt.Sprintf("%d critical discrepancy(ies) against the ledger", critical)
		}

		rt.Logger.InfoContext(
			ctx, "crossvalidate node complete",
			"document_id", es.DocumentID,
			"compared", compared,
			"matched", matched,
			"match_percentage", es.Record.MatchPercentage,
			"critical", critical,
			"warnings", es.Record.WarningSeverityCount(),
		)

		return s.Set(KeyExtraction, *es), nil
	})
}

func compareFields(es *ExtractionState, rec *reference.Record) (compared, matched int) {
	for field, extracted := range es.Record.Fields {
		refValue, ok := rec.Fields[field]
		if !ok {
			continue
		}

		compared++
		if match.ValuesMatch(extracted, refValue) {
			matched++
			continue
		}

		es.Record.Discrepancies = append(es.Record.Discrepancies, extractions.Discrepancy{
			Field:     field,
			Extracted: extracted,
			Reference: refValue,
			Severity:  severityFor(field),
		})
	}

	return compared, matched
}

// severityFor classifies a discrepancy by field. Identity and amount fields
// are critical; everything else is a warning.
func severityFor(field string) extractions.Severity {
	for _, aliases := range [][]string{
		reference.ExpedienteAliases,
		reference.AccionAliases,
		reference.GrupoAliases,
		NifAliases,
	} {
		for _, alias := range aliases {
			if field == alias {
				return extractions.SeverityCritical
			}
		}
	}

	for _, amount := range []string{"importe", "cuantia", "coste"} {
		if strings.Contains(field, amount) {
			return extractions.SeverityCritical
		}
	}

	return extractions.SeverityWarning
}
