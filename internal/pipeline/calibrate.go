package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/hcortiz/cotejo/internal/templates"
)

// CalibrateNode returns a state node that scales each template region from
// the template's reference geometry to the rendered page's actual pixel
// dimensions. A region that cannot be calibrated keeps its template
// coordinates and is flagged so extraction can proceed best-effort; a
// calibration miss never terminates the document.
func CalibrateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		es, err := extractState(s)
		if err != nil {
			return s, fmt.Errorf("calibrate: %w", err)
		}

		scaleX, scaleY, scalable := pageScale(es.Template, es.Page.Width, es.Page.Height)

		es.Regions = make([]CalibratedRegion, len(es.Template.Regions))
		calibrated := 0

		for i, region := range es.Template.Regions {
			cr := CalibratedRegion{Region: region}

			if scalable {
				box := scaleBox(region.Box, scaleX, scaleY)
				if boxOnPage(box, es.Page.Width, es.Page.Height) {
					cr.Box = box
					cr.Calibrated = true
					calibrated++
				}
			}

			if !cr.Calibrated {
				rt.Logger.WarnContext(
					ctx, "region calibration failed",
					"document_id", es.DocumentID,
					"region", region.Label,
				)
			}

			es.Regions[i] = cr
		}

		rt.Logger.InfoContext(
			ctx, "calibrate node complete",
			"document_id", es.DocumentID,
			"regions", len(es.Regions),
			"calibrated", calibrated,
		)

		return s.Set(KeyExtraction, *es), nil
	})
}

func pageScale(t *templates.Template, pageWidth, pageHeight int) (float64, float64, bool) {
	if t.PageWidth <= 0 || t.PageHeight <= 0 || pageWidth <= 0 || pageHeight <= 0 {
		return 0, 0, false
	}

	return float64(pageWidth) / float64(t.PageWidth),
		float64(pageHeight) / float64(t.PageHeight),
		true
}

func scaleBox(box templates.BoundingBox, scaleX, scaleY float64) templates.BoundingBox {
	return templates.BoundingBox{
		X:      int(math.Round(float64(box.X) * scaleX)),
		Y:      int(math.Round(float64(box.Y) * scaleY)),
		Width:  int(math.Round(float64(box.Width) * scaleX)),
		Height: int(math.Round(float64(box.Height) * scaleY)),
	}
}

// boxOnPage reports whether the scaled box keeps a positive area that
// overlaps the rendered page.
func boxOnPage(box templates.BoundingBox, pageWidth, pageHeight int) bool {
	if box.Width <= 0 || box.Height <= 0 {
		return false
	}

	return box.X < pageWidth && box.Y < pageHeight &&
		box.X+box.Width > 0 && box.Y+box.Height > 0
}
