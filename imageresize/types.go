package imageresize

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("resulting image is too large")
	ErrInvalidScale      = errors.New("scale must be at least 2")
)

// Request describes an image to resize.
type Request struct {
	URL      string
	Filename string
	// Width and Height are the source dimensions when known ahead of the
	// download; zero skips the early size check.
	Width  int
	Height int
	Scale  int
}

// Result is an encoded, resized image ready for upload.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Resizer fetches and resizes images.
type Resizer interface {
	Resize(ctx context.Context, req Request) (Result, error)
}
