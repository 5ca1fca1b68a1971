package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/vision-app/pkg/types"
)

// createTestImage creates a gradient test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeEncoded(t *testing.T, enc types.EncodedImage) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(enc.Base64)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestNewProcessorDefaults(t *testing.T) {
	p := NewProcessor(Options{})
	assert.Equal(t, DefaultMaxWidth, p.opts.MaxWidth)
	assert.Equal(t, DefaultQuality, p.opts.Quality)
	assert.Equal(t, DefaultMinImageSize, p.opts.MinImageSize)

	p = NewProcessor(Options{MaxWidth: 320, Quality: 150})
	assert.Equal(t, 320, p.opts.MaxWidth)
	assert.Equal(t, DefaultQuality, p.opts.Quality)
}

func TestNormalizeShrinksWideFrames(t *testing.T) {
	p := NewProcessor(Options{})
	captured := types.CapturedImage{Data: encodePNG(t, createTestImage(1920, 1080))}

	enc, err := p.Normalize(context.Background(), captured)
	require.NoError(t, err)
	assert.Equal(t, 960, enc.Width)
	assert.Equal(t, 540, enc.Height)
	assert.Zero(t, len(enc.Base64)%4)
	assert.Greater(t, enc.Bytes, 0)

	img := decodeEncoded(t, enc)
	assert.Equal(t, 960, img.Bounds().Dx())
}

func TestNormalizeDoesNotUpscale(t *testing.T) {
	p := NewProcessor(Options{})
	captured := types.CapturedImage{Data: encodePNG(t, createTestImage(400, 300))}

	enc, err := p.Normalize(context.Background(), captured)
	require.NoError(t, err)
	assert.Equal(t, 400, enc.Width)
	assert.Equal(t, 300, enc.Height)
}

func TestNormalizeFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, createTestImage(1200, 900)), 0o644))

	enc, err := NewProcessor(Options{MaxWidth: 600}).Normalize(context.Background(), types.CapturedImage{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 600, enc.Width)
	assert.Equal(t, 450, enc.Height)
}

func TestNormalizeWebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, createTestImage(200, 100), &webp.Options{Quality: 80}))

	path := filepath.Join(t.TempDir(), "frame.webp")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	p := NewProcessor(Options{})
	for _, captured := range []types.CapturedImage{{Data: buf.Bytes()}, {Path: path}} {
		enc, err := p.Normalize(context.Background(), captured)
		require.NoError(t, err)
		assert.Equal(t, 200, enc.Width)
	}
}

func TestNormalizeFailures(t *testing.T) {
	p := NewProcessor(Options{})

	_, err := p.Normalize(context.Background(), types.CapturedImage{})
	assert.Error(t, err)

	_, err = p.Normalize(context.Background(), types.CapturedImage{Data: []byte("not an image")})
	assert.Error(t, err)

	_, err = p.Normalize(context.Background(), types.CapturedImage{Data: encodePNG(t, createTestImage(8, 8))})
	assert.ErrorContains(t, err, "image too small")

	_, err = p.Normalize(context.Background(), types.CapturedImage{Path: filepath.Join(t.TempDir(), "missing.jpg")})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Normalize(ctx, types.CapturedImage{Data: encodePNG(t, createTestImage(64, 64))})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetImageInfo(t *testing.T) {
	info := GetImageInfo(createTestImage(400, 300))
	assert.Equal(t, 400, info.Width)
	assert.Equal(t, 300, info.Height)
	assert.InDelta(t, 400.0/300.0, info.AspectRatio, 1e-9)
}
