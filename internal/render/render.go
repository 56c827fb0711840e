// Package render adapts PDF page rendering and region cropping for the
// extraction pipeline. Rendering is delegated to document-context's
// ImageMagick renderer; cropping happens in-process on the rendered PNG.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/JaimeStill/document-context/pkg/config"
	dcdocument "github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	dcimage "github.com/JaimeStill/document-context/pkg/image"

	"github.com/hcortiz/cotejo/internal/templates"
)

// Page describes a rendered form page on disk.
type Page struct {
	ImagePath string
	Width     int
	Height    int
	PageCount int
}

// Engine renders form PDFs to page images and crops field regions from them.
type Engine interface {
	// RenderFirstPage renders page one of the PDF at pdfPath into outDir
	// and returns its on-disk image with pixel dimensions. Subsidy forms
	// carry one record per document, always on the first page.
	RenderFirstPage(pdfPath, outDir string) (*Page, error)
	// PageDataURI encodes a rendered page image as a PNG data URI.
	PageDataURI(imagePath string) (string, error)
	// CropDataURI cuts the bounding box out of a rendered page image and
	// encodes the crop as a PNG data URI.
	CropDataURI(imagePath string, box templates.BoundingBox) (string, error)
}

type engine struct{}

// NewEngine creates the default document-context backed render engine.
func NewEngine() Engine {
	return engine{}
}

func (engine) RenderFirstPage(pdfPath, outDir string) (*Page, error) {
	doc, err := dcdocument.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrRenderFailed, err)
	}
	defer doc.Close()

	renderer, err := dcimage.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: create renderer: %w", ErrRenderFailed, err)
	}

	pages, err := doc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pages: %w", ErrRenderFailed, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrRenderFailed)
	}

	data, err := pages[0].ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: render page 1: %w", ErrRenderFailed, err)
	}

	imgPath := filepath.Join(outDir, "page-1.png")
	if err := os.WriteFile(imgPath, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: write page image: %w", ErrRenderFailed, err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode page image: %w", ErrRenderFailed, err)
	}

	return &Page{
		ImagePath: imgPath,
		Width:     cfg.Width,
		Height:    cfg.Height,
		PageCount: len(pages),
	}, nil
}

func (engine) PageDataURI(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read page image: %w", err)
	}

	uri, err := encoding.EncodeImageDataURI(data, dcdocument.PNG)
	if err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}
	return uri, nil
}

func (engine) CropDataURI(imagePath string, box templates.BoundingBox) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open page image: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode page image: %w", err)
	}

	rect := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height)
	bounds := img.Bounds()
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return "", fmt.Errorf("%w: box %+v outside page bounds %v", ErrCropOutOfBounds, box, bounds)
	}

	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return "", fmt.Errorf("page image does not support cropping")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(rect)); err != nil {
		return "", fmt.Errorf("encode crop: %w", err)
	}

	uri, err := encoding.EncodeImageDataURI(buf.Bytes(), dcdocument.PNG)
	if err != nil {
		return "", fmt.Errorf("encode crop data uri: %w", err)
	}
	return uri, nil
}
