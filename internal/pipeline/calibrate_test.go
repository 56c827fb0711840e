package pipeline

import (
	"testing"

	"github.com/hcortiz/cotejo/internal/templates"
)

func TestPageScale(t *testing.T) {
	tests := []struct {
		name       string
		template   templates.Template
		pageWidth  int
		pageHeight int
		wantX      float64
		wantY      float64
		wantOK     bool
	}{
		{
			"identity",
			templates.Template{PageWidth: 1000, PageHeight: 1400},
			1000, 1400,
			1, 1, true,
		},
		{
			"double resolution",
			templates.Template{PageWidth: 1000, PageHeight: 1400},
			2000, 2800,
			2, 2, true,
		},
		{
			"non-uniform scale",
			templates.Template{PageWidth: 1000, PageHeight: 1000},
			1500, 750,
			1.5, 0.75, true,
		},
		{
			"degenerate template dimensions",
			templates.Template{PageWidth: 0, PageHeight: 1400},
			1000, 1400,
			0, 0, false,
		},
		{
			"degenerate page dimensions",
			templates.Template{PageWidth: 1000, PageHeight: 1400},
			1000, 0,
			0, 0, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := pageScale(&tt.template, tt.pageWidth, tt.pageHeight)
			if ok != tt.wantOK {
				t.Fatalf("pageScale() ok = %v, want %v", ok, tt.wantOK)
			}
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("pageScale() = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestScaleBox(t *testing.T) {
	tests := []struct {
		name   string
		box    templates.BoundingBox
		scaleX float64
		scaleY float64
		want   templates.BoundingBox
	}{
		{
			"identity",
			templates.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50},
			1, 1,
			templates.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50},
		},
		{
			"uniform doubling",
			templates.BoundingBox{X: 10, Y: 20, Width: 100, Height: 50},
			2, 2,
			templates.BoundingBox{X: 20, Y: 40, Width: 200, Height: 100},
		},
		{
			"fractional scale rounds",
			templates.BoundingBox{X: 3, Y: 3, Width: 3, Height: 3},
			1.5, 1.5,
			templates.BoundingBox{X: 5, Y: 5, Width: 5, Height: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scaleBox(tt.box, tt.scaleX, tt.scaleY); got != tt.want {
				t.Errorf("scaleBox() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBoxOnPage(t *testing.T) {
	tests := []struct {
		name string
		box  templates.BoundingBox
		want bool
	}{
		{
			"fully inside",
			templates.BoundingBox{X: 100, Y: 100, Width: 200, Height: 100},
			true,
		},
		{
			"partially overlapping right edge",
			templates.BoundingBox{X: 900, Y: 100, Width: 200, Height: 100},
			true,
		},
		{
			"fully past right edge",
			templates.BoundingBox{X: 1100, Y: 100, Width: 200, Height: 100},
			false,
		},
		{
			"fully above page",
			templates.BoundingBox{X: 100, Y: -300, Width: 200, Height: 100},
			false,
		},
		{
			"zero width",
			templates.BoundingBox{X: 100, Y: 100, Width: 0, Height: 100},
			false,
		},
		{
			"negative height",
			templates.BoundingBox{X: 100, Y: 100, Width: 200, Height: -1},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boxOnPage(tt.box, 1000, 1400); got != tt.want {
				t.Errorf("boxOnPage() = %v, want %v", got, tt.want)
			}
		})
	}
}
