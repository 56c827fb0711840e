package render

import "errors"

// Errors returned by the render engine.
var (
	ErrRenderFailed    = errors.New("failed to render page image")
	ErrCropOutOfBounds = errors.New("region crop outside page bounds")
)
