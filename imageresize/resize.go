package imageresize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tnicklin/thimble-bot/logger"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var _ Resizer = (*DefaultResizer)(nil)

const (
	defaultMaxPixels   = 40_000_000
	defaultMaxDownload = 25 << 20
)

// DefaultResizer upscales images with nearest-neighbour sampling, which
// keeps pixel art crisp.
type DefaultResizer struct {
	http        *resty.Client
	maxPixels   int
	maxDownload int64
	logger      logger.Logger
}

// Params holds configuration for creating a new DefaultResizer.
type Params struct {
	HTTPClient  *resty.Client
	MaxPixels   int
	MaxDownload int64
	Logger      logger.Logger
}

// New creates a DefaultResizer.
func New(p Params) *DefaultResizer {
	client := p.HTTPClient
	if client == nil {
		client = resty.New()
	}
	maxPixels := p.MaxPixels
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	maxDownload := p.MaxDownload
	if maxDownload <= 0 {
		maxDownload = defaultMaxDownload
	}

	return &DefaultResizer{
		http:        client,
		maxPixels:   maxPixels,
		maxDownload: maxDownload,
		logger:      logger.OrNop(p.Logger),
	}
}

// Resize downloads req.URL and scales it by req.Scale in both dimensions.
func (r *DefaultResizer) Resize(ctx context.Context, req Request) (Result, error) {
	if req.Scale < 2 {
		return Result{}, ErrInvalidScale
	}
	if req.Width > 0 && req.Height > 0 && !r.fits(req.Width, req.Height, req.Scale) {
		return Result{}, ErrTooLarge
	}

	data, err := r.download(ctx, req.URL)
	if err != nil {
		return Result{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if !r.fits(cfg.Width, cfg.Height, req.Scale) {
		return Result{}, ErrTooLarge
	}

	r.logger.DebugW("resizing image",
		"format", format,
		"width", cfg.Width,
		"height", cfg.Height,
		"scale", req.Scale,
	)

	return scale(data, req.Filename, req.Scale, r.maxPixels)
}

func (r *DefaultResizer) fits(w, h, scale int) bool {
	return fits(w, h, scale, r.maxPixels)
}

func fits(w, h, scale, maxPixels int) bool {
	return scaledPixels(w, h, scale) <= int64(maxPixels)
}

func scaledPixels(w, h, scale int) int64 {
	return int64(w) * int64(scale) * int64(h) * int64(scale)
}

func (r *DefaultResizer) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := r.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, r.maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if int64(len(data)) > r.maxDownload {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Scale decodes data, scales it by factor with nearest-neighbour sampling
// and encodes it in the source format. Formats without an encoder are
// written as PNG. The output, summed over every gif frame, is limited to the
// default pixel budget.
func Scale(data []byte, filename string, factor int) (Result, error) {
	return scale(data, filename, factor, defaultMaxPixels)
}

func scale(data []byte, filename string, factor, maxPixels int) (Result, error) {
	if factor < 2 {
		return Result{}, ErrInvalidScale
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if !fits(cfg.Width, cfg.Height, factor, maxPixels) {
		return Result{}, ErrTooLarge
	}

	if format == "gif" {
		return scaleGIF(data, filename, factor, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", format, err)
	}
	dst := scaleImage(src, factor)

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "jpeg":
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 95})
	case "bmp":
		contentType = "image/bmp"
		err = bmp.Encode(&buf, dst)
	default:
		format = "png"
		contentType = "image/png"
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", format, err)
	}

	b := dst.Bounds()
	return Result{
		Filename:    outputName(filename, format),
		ContentType: contentType,
		Data:        buf.Bytes(),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

func scaleImage(src image.Image, factor int) *image.RGBA {
	sb := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, sb.Dx()*factor, sb.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

// scaleGIF scales every frame so animations survive the upscale. maxPixels
// bounds the sum of all scaled frames.
func scaleGIF(data []byte, filename string, factor, maxPixels int) (Result, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode gif: %w", err)
	}

	var total int64
	for _, frame := range g.Image {
		fb := frame.Bounds()
		total += scaledPixels(fb.Dx(), fb.Dy(), factor)
		if total > int64(maxPixels) {
			return Result{}, fmt.Errorf("%w: %d frames", ErrTooLarge, len(g.Image))
		}
	}

	for i, frame := range g.Image {
		fb := frame.Bounds()
		rect := image.Rect(fb.Min.X*factor, fb.Min.Y*factor, fb.Max.X*factor, fb.Max.Y*factor)
		dst := image.NewPaletted(rect, frame.Palette)
		draw.NearestNeighbor.Scale(dst, rect, frame, fb, draw.Src, nil)
		g.Image[i] = dst
	}
	g.Config.Width *= factor
	g.Config.Height *= factor

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return Result{}, fmt.Errorf("encode gif: %w", err)
	}

	return Result{
		Filename:    outputName(filename, "gif"),
		ContentType: "image/gif",
		Data:        buf.Bytes(),
		Width:       g.Config.Width,
		Height:      g.Config.Height,
	}, nil
}

// outputName keeps the source extension unless the image was re-encoded to
// a different format.
func outputName(filename, format string) string {
	if filename == "" {
		filename = "image"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	base := strings.TrimSuffix(filename, path.Ext(filename))

	switch {
	case ext == format, ext == "jpg" && format == "jpeg":
		return base + "_upscaled." + ext
	case format == "jpeg":
		return base + "_upscaled.jpg"
	default:
		return base + "_upscaled." + format
	}
}
