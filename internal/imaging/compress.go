package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth  = 800
	DefaultQuality   = 0.8
	DefaultThreshold = 1024 * 1024
	DefaultMaxPixels = 50_000_000
)

// ErrImageTooLarge is returned for images whose declared dimensions exceed MaxPixels
var ErrImageTooLarge = errors.New("image dimensions too large")

// Options controls how reference images are downsampled
type Options struct {
	MaxWidth  int
	Quality   float64
	Threshold int64
	MaxPixels int64
}

func DefaultOptions() Options {
	return Options{
		MaxWidth:  DefaultMaxWidth,
		Quality:   DefaultQuality,
		Threshold: DefaultThreshold,
		MaxPixels: DefaultMaxPixels,
	}
}

// Compressor re-encodes oversized images as bounded-width JPEGs
type Compressor struct {
	opts Options
}

// NewCompressor creates a compressor, filling zero options with defaults
func NewCompressor(opts Options) *Compressor {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.Quality <= 0 || opts.Quality > 1 {
		opts.Quality = DefaultQuality
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Compressor{opts: opts}
}

// Options returns the effective options
func (c *Compressor) Options() Options {
	return c.opts
}

// ShouldCompress reports whether the file is above the size threshold
func (c *Compressor) ShouldCompress(f models.File) bool {
	return f.Size() > c.opts.Threshold
}

// Compress decodes the image, scales it down to MaxWidth if wider and re-encodes it as JPEG.
func (c *Compressor) Compress(ctx context.Context, f models.File) (models.File, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return models.File{}, fmt.Errorf("failed to decode image: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > c.opts.MaxPixels {
		return models.File{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, c.opts.MaxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return models.File{}, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return models.File{}, err
	}

	b := src.Bounds()
	width, height := ScaledSize(b.Dx(), b.Dy(), c.opts.MaxWidth)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha channel
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	if err := ctx.Err(); err != nil {
		return models.File{}, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(c.opts.Quality)}); err != nil {
		return models.File{}, fmt.Errorf("failed to encode image: %w", err)
	}

	slog.Info("Image compressed",
		"name", f.Name,
		"format", format,
		"original_width", b.Dx(),
		"original_height", b.Dy(),
		"width", width,
		"height", height,
		"original_bytes", f.Size(),
		"bytes", buf.Len())

	return models.File{
		Name:     jpegName(f.Name),
		MIMEType: "image/jpeg",
		Data:     buf.Bytes(),
	}, nil
}

// ScaledSize returns the output dimensions for an image of w x h bounded by maxWidth.
// Aspect ratio is preserved; narrower images keep their size.
func ScaledSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth || w <= 0 {
		return w, h
	}
	nh := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}

// Dimensions returns the width and height of encoded image data without decoding pixels
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

func jpegName(name string) string {
	if name == "" {
		return "image.jpg"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
