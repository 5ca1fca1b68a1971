package capture

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/menta2k/vision-app/pkg/types"
)

// DefaultQuality matches a reduced-quality still suitable for upload.
const DefaultQuality = 0.4

// FFmpegConfig describes the capture device.
type FFmpegConfig struct {
	Command     string
	InputFormat string
	InputDevice string
	// Quality is in [0,1]; lower values produce smaller JPEG frames.
	Quality float64
}

// FFmpegCamera grabs single JPEG frames from a video device using ffmpeg.
type FFmpegCamera struct {
	cfg FFmpegConfig
}

var _ Camera = (*FFmpegCamera)(nil)

// NewFFmpegCamera creates a new ffmpeg camera, filling unset fields with v4l2 defaults
func NewFFmpegCamera(cfg FFmpegConfig) *FFmpegCamera {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "v4l2"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "/dev/video0"
	}
	if cfg.Quality <= 0 || cfg.Quality > 1 {
		cfg.Quality = DefaultQuality
	}
	return &FFmpegCamera{cfg: cfg}
}

// Ready checks that the ffmpeg binary can be found.
func (c *FFmpegCamera) Ready(ctx context.Context) error {
	if _, err := exec.LookPath(c.cfg.Command); err != nil {
		return fmt.Errorf("%w: %v", ErrCameraNotReady, err)
	}
	return nil
}

func (c *FFmpegCamera) Capture(ctx context.Context) (types.CapturedImage, error) {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-f", c.cfg.InputFormat,
		"-i", c.cfg.InputDevice,
		"-frames:v", "1",
		"-q:v", strconv.Itoa(jpegQScale(c.cfg.Quality)),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.cfg.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return types.CapturedImage{}, fmt.Errorf("ffmpeg capture failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return types.CapturedImage{}, nil
	}
	return types.CapturedImage{Data: stdout.Bytes(), Format: "jpeg"}, nil
}

// jpegQScale maps a [0,1] quality onto ffmpeg's 2 (best) .. 31 (worst) scale.
func jpegQScale(quality float64) int {
	return 2 + int(math.Round((1-quality)*29))
}
