// Package permission answers whether the app may use the camera and microphone.
package permission

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/apex/log"

	"github.com/menta2k/vision-app/pkg/types"
)

// Permission exposes the current status of one capability and a way to ask for it.
type Permission interface {
	Status(ctx context.Context) (types.PermissionStatus, error)
	Request(ctx context.Context) (types.PermissionStatus, error)
}

// DevicePermission derives the permission from whether the process can open
// a device node such as /dev/video0 or /dev/snd. Desktop hosts have no
// consent prompt, so Request only re-checks access.
type DevicePermission struct {
	name string
	path string
}

var _ Permission = (*DevicePermission)(nil)

// NewDevicePermission creates a new permission backed by access to the device at path
func NewDevicePermission(name, path string) *DevicePermission {
	return &DevicePermission{name: name, path: path}
}

func (p *DevicePermission) Status(ctx context.Context) (types.PermissionStatus, error) {
	if err := ctx.Err(); err != nil {
		return types.PermissionUndetermined, err
	}

	f, err := os.Open(p.path)
	if err == nil {
		_ = f.Close()
		return types.PermissionGranted, nil
	}
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return types.PermissionDenied, nil
	}
	return types.PermissionUndetermined, err
}

func (p *DevicePermission) Request(ctx context.Context) (types.PermissionStatus, error) {
	status, err := p.Status(ctx)
	if status == types.PermissionDenied {
		log.WithFields(log.Fields{
			"permission": p.name,
			"device":     p.path,
		}).Warn("device not accessible; check that it exists and that the user is in its group")
	}
	return status, err
}

// Static always answers with the same status. Use Granted for capture
// backends that need no device access.
type Static struct {
	status types.PermissionStatus
}

var _ Permission = Static{}

// NewStatic creates a permission that always answers status
func NewStatic(status types.PermissionStatus) Static {
	return Static{status: status}
}

// Granted is a permission that is always granted.
func Granted() Static {
	return NewStatic(types.PermissionGranted)
}

func (s Static) Status(ctx context.Context) (types.PermissionStatus, error) {
	return s.status, nil
}

func (s Static) Request(ctx context.Context) (types.PermissionStatus, error) {
	return s.status, nil
}
