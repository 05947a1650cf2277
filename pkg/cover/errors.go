package cover

import "errors"

// Sentinel errors for the render pipeline.
var (
	// ErrNoImage is returned when a stage needs a bitmap and none is loaded.
	ErrNoImage = errors.New("no image loaded")

	// ErrDecode is returned when source bytes cannot be turned into a bitmap.
	ErrDecode = errors.New("decode image")

	// ErrImageTooLarge is returned when the source exceeds MaxImageBytes.
	ErrImageTooLarge = errors.New("image too large")

	// ErrInvalidRequest is returned when a render request fails validation.
	ErrInvalidRequest = errors.New("invalid render request")
)
