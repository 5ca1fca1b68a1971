// Package capture provides still-frame camera adapters.
package capture

import (
	"context"
	"errors"

	"github.com/menta2k/vision-app/pkg/types"
)

// ErrCameraNotReady is returned when the camera cannot take a picture yet.
var ErrCameraNotReady = errors.New("camera not ready")

// Camera captures one still frame per call.
//
// Capture returns an error when the device fails, and an empty
// types.CapturedImage with a nil error when it succeeded without a frame.
type Camera interface {
	Ready(ctx context.Context) error
	Capture(ctx context.Context) (types.CapturedImage, error)
}
