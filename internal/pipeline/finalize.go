package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/hcortiz/cotejo/internal/documents"
	"github.com/hcortiz/cotejo/internal/extractions"
)

// FinalizeNode returns a state node that seals the verdict, persists the
// extraction record, and marks the document processed. Acceptance requires
// confidence above the threshold, a high verification bucket with no
// unresolved critical field, and zero critical ledger discrepancies; the
// node enforces that here regardless of what upstream nodes decided.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		if es.Record.Verdict == extractions.VerdictAccepted && !acceptable(&es.Record, rt.Config) {
			es.Record.Verdict = extractions.VerdictNeedsReview
			if es.Record.Reason == "" {
				es.Record.Reason = "acceptance conditions not met"
			}
		}

		es.Record.ExtractedAt = time.Now()

		stored, err := rt.Extractions.Create(ctx, &es.Record)
		if err != nil {
			return s, fmt.Errorf("finalize: %w: %w", ErrFinalizeFailed, err)
		}
		es.Record = *stored

		if err := rt.Documents.SetStatus(ctx, es.DocumentID, documents.StatusProcessed); err != nil {
			return s, fmt.Errorf("finalize: %w: %w", ErrFinalizeFailed, err)
		}

		rt.Logger.InfoContext(
			ctx, "finalize node complete",
			"document_id", es.DocumentID,
			"verdict", es.Record.Verdict,
			"category", es.Record.Category,
			"confidence", es.Record.Confidence,
		)

		return s.Set(KeyExtraction, *es), nil
	})
}

func acceptable(r *extractions.Record, cfg Config) bool {
	return r.Confidence > cfg.AcceptThreshold &&
		r.Verification == extractions.VerificationHigh &&
		len(r.VerificationFlags) == 0 &&
		r.CriticalSeverityCount() == 0
}
