package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"golang.org/x/sync/errgroup"

	"github.com/hcortiz/cotejo/internal/extractions"
	"github.com/hcortiz/cotejo/internal/prompts"
)

// ExtractNode returns a state node that extracts every calibrated region
// concurrently and aggregates the outcomes into a single confidence score.
// A region failure counts against confidence instead of failing the run;
// only context cancellation aborts the node.
func ExtractNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("extract: %w", err)
		}

		results, err := extractRegions(ctx, rt, es)
		if err != nil {
			return s, fmt.Errorf("extract: %w: %w", ErrExtractFailed, err)
		}

		es.Record.Regions = results
		es.Record.Fields = collectFields(results)
		es.Record.Confidence = aggregateConfidence(results)

		// Tentative verdict; later nodes only ever downgrade it.
		if es.Record.Confidence > rt.Config.AcceptThreshold {
			es.Record.Verdict = extractions.VerdictAccepted
		} else {
			es.Record.Verdict = extractions.VerdictNeedsReview
		}

		rt.Logger.InfoContext(
			ctx, "extract node complete",
			"document_id", es.DocumentID,
			"regions", len(results),
			"confidence", es.Record.Confidence,
			"tentative_verdict", es.Record.Verdict,
		)

		return s.Set(KeyExtraction, *es), nil
	})
}

func extractRegions(ctx context.Context, rt *Runtime, es *ExtractionState) ([]extractions.RegionResult, error) {
	results := make([]extractions.RegionResult, len(es.Regions))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rt.Config.RegionWorkers)

	for i, region := range es.Regions {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			result := extractions.RegionResult{
				Label:      region.Label,
				Calibrated: region.Calibrated,
			}

			value, err := extractRegion(gctx, rt, es.Page.ImagePath, region)
			switch {
			case err != nil:
				result.Error = err.Error()
			case strings.EqualFold(strings.TrimSpace(value), prompts.IllegibleSentinel):
				result.Error = "region reported illegible"
			default:
				result.Value = value
				result.Success = true
			}

			mu.Lock()
			results[i] = result
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func extractRegion(ctx context.Context, rt *Runtime, imagePath string, region CalibratedRegion) (string, error) {
	cropURI, err := rt.Render.CropDataURI(imagePath, region.Box)
	if err != nil {
		return "", fmt.Errorf("crop region %s: %w", region.Label, err)
	}

	return rt.Vision.ExtractRegion(ctx, cropURI, region.Region)
}

func collectFields(results []extractions.RegionResult) map[string]string {
	fields := make(map[string]string, len(results))
	for _, r := range results {
		if r.Success {
			fields[r.Label] = r.Value
		}
	}
	return fields
}

// aggregateConfidence is the ratio of successful region extractions to total
// regions. A template with no regions yields zero confidence rather than a
// vacuous pass.
func aggregateConfidence(results []extractions.RegionResult) float64 {
	if len(results) == 0 {
		return 0
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	return float64(succeeded) / float64(len(results))
}
