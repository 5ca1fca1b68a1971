package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/menta2k/vision-app/internal/utils"
	"github.com/menta2k/vision-app/pkg/types"
)

// FileCamera serves stills from disk. When Path is a directory the most
// recently modified image in it is returned, which lets another process drop
// frames into a spool directory.
type FileCamera struct {
	path string
}

var _ Camera = (*FileCamera)(nil)

// NewFileCamera creates a new camera reading an image file or a spool directory
func NewFileCamera(path string) *FileCamera {
	return &FileCamera{path: path}
}

func (c *FileCamera) Ready(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("%w: no capture path configured", ErrCameraNotReady)
	}
	if !utils.FileExists(c.path) && !utils.DirExists(c.path) {
		return fmt.Errorf("%w: %s does not exist", ErrCameraNotReady, c.path)
	}
	return nil
}

func (c *FileCamera) Capture(ctx context.Context) (types.CapturedImage, error) {
	if err := ctx.Err(); err != nil {
		return types.CapturedImage{}, err
	}

	if !utils.DirExists(c.path) {
		if !utils.FileExists(c.path) {
			return types.CapturedImage{}, fmt.Errorf("%w: %s does not exist", ErrCameraNotReady, c.path)
		}
		if !utils.IsImageFile(c.path) {
			return types.CapturedImage{}, fmt.Errorf("not an image file: %s", c.path)
		}
		return types.CapturedImage{Path: c.path, Format: utils.GetFileExtension(c.path)}, nil
	}

	files, err := utils.ListImageFiles(c.path)
	if err != nil {
		return types.CapturedImage{}, fmt.Errorf("failed to list %s: %w", c.path, err)
	}

	var newest string
	var newestMod time.Time
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) ||
			(info.ModTime().Equal(newestMod) && f > newest) {
			newest = f
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return types.CapturedImage{}, nil
	}
	return types.CapturedImage{Path: newest, Format: utils.GetFileExtension(newest)}, nil
}
