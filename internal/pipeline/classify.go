package pipeline

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/hcortiz/cotejo/internal/extractions"
)

// ClassifyNode returns a state node that identifies which form template the
// rendered page matches. Confidence below the gate rejects the document
// outright; no partial extraction is attempted against a layout the model
// is unsure about.
func ClassifyNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("classify: %w", err)
		}

		catalog, err := rt.Templates.Catalog(ctx)
		if err != nil {
			return s, fmt.Errorf("classify: %w: load catalog: %w", ErrClassifyFailed, err)
		}

		names := make([]string, len(catalog))
		for i, t := range catalog {
			names[i] = t.Name
		}

		pageURI, err := rt.Render.PageDataURI(es.Page.ImagePath)
		if err != nil {
			return s, fmt.Errorf("classify: %w: %w", ErrClassifyFailed, err)
		}

		match, err := rt.Vision.ClassifyTemplate(ctx, pageURI, names)
		if err != nil {
			return s, fmt.Errorf("classify: %w: %w", ErrClassifyFailed, err)
		}

		es.Classification = match

		if match.Confidence < rt.Config.ClassifyGate {
			es.Record.Verdict = extractions.VerdictRejected
			es.Record.Category = extractions.CategoryUnrecognizedForm
			es.Record.Reason = fmt.Sprintf(
				"template %q matched at %.2f, below gate %.2f",
				match.Template, match.Confidence, rt.Config.ClassifyGate,
			)

			rt.Logger.WarnContext(
				ctx, "document rejected at classification",
				"document_id", es.DocumentID,
				"template", match.Template,
				"confidence", match.Confidence,
			)

			return s.Set(KeyExtraction, *es), nil
		}

		template, err := rt.Templates.FindByName(ctx, match.Template)
		if err != nil {
			return s, fmt.Errorf("classify: %w: template %q: %w", ErrClassifyFailed, match.Template, err)
		}

		es.Template = template
		es.Record.TemplateID = &template.ID

		rt.Logger.InfoContext(
			ctx, "classify node complete",
			"document_id", es.DocumentID,
			"template", template.Name,
			"version", template.Version,
			"confidence", match.Confidence,
		)

		return s.Set(KeyExtraction, *es), nil
	})
}
