package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Execute runs the extraction pipeline for a single document. It creates a
// temp directory for the source PDF and rendered page (cleaned up via defer),
// builds the state graph (init → classify → calibrate → extract → verify →
// crossvalidate → finalize), executes it, and extracts the Result from the
// final state. A classification below the gate short-circuits from classify
// straight to finalize.
func Execute(ctx context.Context, rt *Runtime, documentID uuid.UUID) (*Result, error) {
	tempDir, err := os.MkdirTemp("", "cotejo-extract-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyDocumentID, documentID)
	initialState = initialState.Set(KeyTempDir, tempDir)

	finalState, err := graph.Execute(ctx, initialState)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(finalState)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("cotejo-extract")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("init", InitNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("classify", ClassifyNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("calibrate", CalibrateNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("extract", ExtractNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("verify", VerifyNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("crossvalidate", CrossValidateNode(rt)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("finalize", FinalizeNode(rt)); err != nil {
		return nil, err
	}

	// init → classify (unconditional)
	if err := graph.AddEdge("init", "classify", nil); err != nil {
		return nil, err
	}

	// classify → finalize (hard gate: unrecognized document type)
	if err := graph.AddEdge("classify", "finalize", rejected); err != nil {
		return nil, err
	}

	// classify → calibrate (template recognized)
	if err := graph.AddEdge("classify", "calibrate", state.Not(rejected)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("calibrate", "extract", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("extract", "verify", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("verify", "crossvalidate", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("crossvalidate", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("init"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

func extractState(s state.State) (*ExtractionState, error) {
	val, ok := s.Get(KeyExtraction)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyExtraction)
	}

	es, ok := val.(ExtractionState)
	if !ok {
		return nil, fmt.Errorf("%s is not ExtractionState", KeyExtraction)
	}
	return &es, nil
}

func extractResult(s state.State) (*Result, error) {
	es, err := extractState(s)
	if err != nil {
		return nil, fmt.Errorf("final state: %w", err)
	}

	return &Result{
		DocumentID: es.DocumentID,
		Filename:   es.Filename,
		Record:     es.Record,
	}, nil
}

func rejected(s state.State) bool {
	es, err := extractState(s)
	if err != nil {
		return false
	}
	return es.Terminal()
}
