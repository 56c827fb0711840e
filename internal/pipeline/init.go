package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/hcortiz/cotejo/internal/documents"
)

const sourcePDF = "source.pdf"

// InitNode returns a state node that downloads the form PDF from blob
// storage, renders its first page, and seeds the ExtractionState in the
// workflow state bag.
func InitNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		documentID, tempDir, err := extractInitState(s)
		if err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		doc, pdfPath, err := downloadPDF(ctx, rt, documentID, tempDir)
		if err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		page, err := rt.Render.RenderFirstPage(pdfPath, tempDir)
		if err != nil {
			return s, fmt.Errorf("init: %w: %w", ErrInitFailed, err)
		}

		rt.Logger.InfoContext(
			ctx, "init node complete",
			"document_id", documentID,
			"page_count", page.PageCount,
			"page_width", page.Width,
			"page_height", page.Height,
		)

		es := ExtractionState{
			DocumentID: documentID,
			Filename:   doc.Filename,
			PDFPath:    pdfPath,
			Page:       page,
		}
		es.Record.DocumentID = documentID
		es.Record.ModelName = rt.Vision.ModelName()
		es.Record.ProviderName = rt.Vision.ProviderName()

		return s.Set(KeyExtraction, es), nil
	})
}

func downloadPDF(
	ctx context.Context,
	rt *Runtime,
	documentID uuid.UUID,
	tempDir string,
) (*documents.Document, string, error) {
	doc, err := rt.Documents.Find(ctx, documentID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDocumentNotFound, err)
	}

	blob, err := rt.Storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: download blob: %w", ErrInitFailed, err)
	}
	defer blob.Close()

	pdfPath := filepath.Join(tempDir, sourcePDF)
	pdfFile, err := os.Create(pdfPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: create temp pdf: %w", ErrInitFailed, err)
	}

	if _, err := io.Copy(pdfFile, blob); err != nil {
		pdfFile.Close()
		return nil, "", fmt.Errorf("%w: write temp pdf: %w", ErrInitFailed, err)
	}
	pdfFile.Close()

	return doc, pdfPath, nil
}

func extractInitState(s state.State) (uuid.UUID, string, error) {
	docIDVal, ok := s.Get(KeyDocumentID)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("%w: missing %s in state", ErrDocumentNotFound, KeyDocumentID)
	}

	documentID, ok := docIDVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("%w: %s is not uuid.UUID", ErrDocumentNotFound, KeyDocumentID)
	}

	tempDirVal, ok := s.Get(KeyTempDir)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("%w: missing %s in state", ErrInitFailed, KeyTempDir)
	}

	tempDir, ok := tempDirVal.(string)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("%w: %s is not string", ErrInitFailed, KeyTempDir)
	}

	return documentID, tempDir, nil
}
