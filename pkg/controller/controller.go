// Package controller sequences permission checks, capture, normalization,
// description and speech for each user gesture.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/menta2k/vision-app/internal/metrics"
	"github.com/menta2k/vision-app/internal/utils"
	"github.com/menta2k/vision-app/pkg/capture"
	"github.com/menta2k/vision-app/pkg/permission"
	"github.com/menta2k/vision-app/pkg/speech"
	"github.com/menta2k/vision-app/pkg/types"
)

// ErrBusy is returned when a describe gesture arrives while another request
// is in flight. The gesture is dropped, not queued.
var ErrBusy = errors.New("a description request is already in flight")

// Normalizer turns a captured frame into sanitized Base64 JPEG.
type Normalizer interface {
	Normalize(ctx context.Context, captured types.CapturedImage) (types.EncodedImage, error)
}

// Describer produces the text for an encoded image.
type Describer interface {
	Name() string
	Configured() bool
	Describe(ctx context.Context, img types.EncodedImage) (string, error)
}

// StateObserver is notified of every state transition.
type StateObserver interface {
	StateChanged(state types.State)
}

// Deps are the collaborators of a Controller. Observer and MicPermission are optional.
type Deps struct {
	Camera           capture.Camera
	CameraPermission permission.Permission
	MicPermission    permission.Permission
	Normalizer       Normalizer
	Describer        Describer
	Speaker          speech.Speaker
	Observer         StateObserver
}

// Controller owns the busy flag and the last description. At most one
// describe pipeline runs at a time; the last description is only replaced
// after a fully successful run.
type Controller struct {
	deps Deps

	mu              sync.Mutex
	state           types.State
	busy            bool
	lastDescription string
}

// New creates a controller in the idle state. A nil CameraPermission is
// treated as always granted.
func New(deps Deps) *Controller {
	if deps.CameraPermission == nil {
		deps.CameraPermission = permission.Granted()
	}
	return &Controller{deps: deps, state: types.StateIdle}
}

// Startup asks for device permissions and announces whether the app is ready.
func (c *Controller) Startup(ctx context.Context) {
	if c.deps.MicPermission != nil && !c.ensure(ctx, c.deps.MicPermission) {
		c.speak(ctx, MsgMicPermissionDenied)
	}
	if !c.ensure(ctx, c.deps.CameraPermission) {
		log.Warn("camera permission not granted at startup")
	}

	if !c.deps.Describer.Configured() {
		log.WithField("backend", c.deps.Describer.Name()).Warn("vision credential missing")
		c.speak(ctx, MsgStartupCredentialMissing)
		return
	}
	c.speak(ctx, MsgReady)
}

// Describe runs the full pipeline for a tap gesture and returns the spoken
// description. Every failure is announced before it is returned; the
// controller is back to idle when Describe returns.
func (c *Controller) Describe(ctx context.Context) (string, error) {
	if !c.tryAcquire() {
		metrics.DescribeTotal.WithLabelValues("busy").Inc()
		log.Warn("describe gesture ignored: a request is already in flight")
		return "", ErrBusy
	}
	defer c.release()

	logger := log.WithFields(log.Fields{
		"request_id": uuid.NewString(),
		"backend":    c.deps.Describer.Name(),
	})

	start := time.Now()
	text, err := c.run(ctx, logger)
	elapsed := time.Since(start)

	result := "ok"
	if err != nil {
		result = string(types.KindOf(err))
		c.setState(types.StateError)
		logger.WithError(err).WithField("kind", result).Error("describe failed")
		c.speak(ctx, SpokenMessage(err))
	} else {
		logger.WithFields(log.Fields{
			"duration": elapsed.Round(time.Millisecond).String(),
			"chars":    len([]rune(text)),
		}).Info("description spoken")
	}
	metrics.DescribeTotal.WithLabelValues(result).Inc()
	metrics.DescribeDurationSeconds.WithLabelValues(c.deps.Describer.Name()).Observe(elapsed.Seconds())
	return text, err
}

func (c *Controller) run(ctx context.Context, logger *log.Entry) (string, error) {
	c.setState(types.StateRequestingPermission)
	if !c.ensure(ctx, c.deps.CameraPermission) {
		return "", types.NewError(types.KindPermissionDenied, "camera permission denied", nil)
	}
	if !c.deps.Describer.Configured() {
		return "", types.ConfigurationError()
	}

	c.setState(types.StateCapturing)
	if err := c.deps.Camera.Ready(ctx); err != nil {
		if !errors.Is(err, capture.ErrCameraNotReady) {
			err = fmt.Errorf("%w: %v", capture.ErrCameraNotReady, err)
		}
		return "", types.NewError(types.KindCaptureFailure, "", err)
	}
	// Adapter errors stay unclassified and are read out verbatim; only an
	// empty result gets the fixed capture or processing sentence.
	captured, err := c.deps.Camera.Capture(ctx)
	if errors.Is(err, capture.ErrCameraNotReady) {
		return "", types.NewError(types.KindCaptureFailure, "", err)
	}
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}
	if captured.Empty() {
		return "", types.NewError(types.KindCaptureFailure, "capture produced no image", nil)
	}

	c.setState(types.StateNormalizing)
	encoded, err := c.deps.Normalizer.Normalize(ctx, captured)
	if err != nil {
		return "", fmt.Errorf("normalize: %w", err)
	}
	if encoded.Base64 == "" {
		return "", types.NewError(types.KindProcessingFailure, "normalization produced no payload", nil)
	}
	metrics.UploadBytes.Observe(float64(encoded.Bytes))
	logger.WithFields(log.Fields{
		"width":  encoded.Width,
		"height": encoded.Height,
		"size":   utils.FormatFileSize(int64(encoded.Bytes)),
	}).Debug("frame normalized")

	c.speak(ctx, MsgProcessing)

	c.setState(types.StateDescribing)
	text, err := c.deps.Describer.Describe(ctx, encoded)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.lastDescription = text
	c.mu.Unlock()

	c.setState(types.StateSpeaking)
	c.speak(ctx, text)
	return text, nil
}

// Replay speaks the last description again for a long-press gesture. It never
// captures nor calls the vision backend. ok is false when nothing has been
// described yet, in which case a notice is spoken instead.
func (c *Controller) Replay(ctx context.Context) (text string, ok bool) {
	text, ok = c.LastDescription()
	if !ok {
		metrics.ReplayTotal.WithLabelValues("empty").Inc()
		c.speak(ctx, MsgNothingToReplay)
		return "", false
	}

	metrics.ReplayTotal.WithLabelValues("replayed").Inc()
	idle := c.Status().State == types.StateIdle
	if idle {
		c.notify(types.StateSpeaking)
	}
	c.speak(ctx, text)
	if idle {
		c.notify(types.StateIdle)
	}
	return text, true
}

// LastDescription returns the most recent successful description.
func (c *Controller) LastDescription() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDescription, c.lastDescription != ""
}

// Busy reports whether a describe request is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Status returns a snapshot for the gesture surfaces.
func (c *Controller) Status() types.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.Status{
		State:              c.state,
		Busy:               c.busy,
		HasLastDescription: c.lastDescription != "",
	}
}

func (c *Controller) tryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	metrics.Busy.Set(1)
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	metrics.Busy.Set(0)
	c.setState(types.StateIdle)
}

// ensure returns true if p is granted, requesting it first when needed.
func (c *Controller) ensure(ctx context.Context, p permission.Permission) bool {
	status, err := p.Status(ctx)
	if err == nil && status == types.PermissionGranted {
		return true
	}
	status, err = p.Request(ctx)
	if err != nil {
		log.WithError(err).Warn("permission request failed")
		return false
	}
	return status == types.PermissionGranted
}

func (c *Controller) setState(state types.State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.notify(state)
}

func (c *Controller) notify(state types.State) {
	if c.deps.Observer != nil {
		c.deps.Observer.StateChanged(state)
	}
}

// speak never fails the pipeline; synthesizer errors are only logged.
func (c *Controller) speak(ctx context.Context, text string) {
	if err := c.deps.Speaker.Speak(ctx, text); err != nil {
		log.WithError(fmt.Errorf("speak: %w", err)).Warn("speech output failed")
	}
}
