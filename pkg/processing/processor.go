package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/vision-app/pkg/types"
)

const (
	DefaultMaxWidth     = 960
	DefaultQuality      = 60
	DefaultMinImageSize = 16
)

// Options controls how captured frames are shrunk before upload.
type Options struct {
	MaxWidth     int
	Quality      int
	MinImageSize int
}

// Processor resizes captured frames and re-encodes them as Base64 JPEG.
type Processor struct {
	opts Options
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
}

// NewProcessor creates a new image processor
func NewProcessor(opts Options) *Processor {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	if opts.MinImageSize <= 0 {
		opts.MinImageSize = DefaultMinImageSize
	}
	return &Processor{opts: opts}
}

// Normalize decodes a captured frame, bounds its width, re-encodes it as JPEG
// and returns sanitized Base64 text.
func (p *Processor) Normalize(ctx context.Context, captured types.CapturedImage) (types.EncodedImage, error) {
	if captured.Empty() {
		return types.EncodedImage{}, fmt.Errorf("no image to normalize")
	}
	if err := ctx.Err(); err != nil {
		return types.EncodedImage{}, err
	}

	img, err := p.Load(captured)
	if err != nil {
		return types.EncodedImage{}, err
	}
	if err := p.ValidateImage(img); err != nil {
		return types.EncodedImage{}, err
	}
	return p.PrepareImageForModel(img)
}

// Load decodes the in-memory bytes of a capture, or the file it points to.
func (p *Processor) Load(captured types.CapturedImage) (image.Image, error) {
	if len(captured.Data) > 0 {
		return p.decodeImageFromBytes(captured.Data)
	}
	return p.LoadImage(captured.Path)
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	}
	return p.decodeImageFromBytes(data)
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// PrepareImageForModel shrinks the image to the configured width and encodes
// it as Base64 JPEG. Narrower images are not upscaled.
func (p *Processor) PrepareImageForModel(img image.Image) (types.EncodedImage, error) {
	if img.Bounds().Dx() > p.opts.MaxWidth {
		img = imaging.Resize(img, p.opts.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.opts.Quality)); err != nil {
		return types.EncodedImage{}, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	info := GetImageInfo(img)
	return types.EncodedImage{
		Base64: NormalizeBase64(base64.StdEncoding.EncodeToString(buf.Bytes())),
		Width:  info.Width,
		Height: info.Height,
		Bytes:  buf.Len(),
	}, nil
}

// ValidateImage checks if an image meets minimum requirements
func (p *Processor) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < p.opts.MinImageSize || bounds.Dy() < p.opts.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), p.opts.MinImageSize)
	}
	return nil
}

// GetImageInfo returns basic information about an image
func GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{Width: width, Height: height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}
