// Package visionapp assembles a garment-describing assistant for visually
// impaired users: a tap captures a still frame, the frame is shrunk and sent
// to a multimodal model, and the returned description is read aloud in
// Brazilian Portuguese. A long press repeats the last description.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		visionapp "github.com/menta2k/vision-app"
//	)
//
//	func main() {
//		cfg, err := visionapp.LoadConfig("")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		app, err := visionapp.New(cfg, visionapp.Options{})
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer app.Close()
//
//		ctx := context.Background()
//		app.Controller.Startup(ctx)
//		if _, err := app.Controller.Describe(ctx); err != nil {
//			log.Print(err)
//		}
//		app.Controller.Replay(ctx)
//	}
//
// The package wires these components:
//
// 1. Capture (pkg/capture): grabs a still frame from ffmpeg or a file
// 2. Processing (pkg/processing): bounded resize, JPEG re-encode and Base64 cleanup
// 3. Describer (pkg/describer): prompt and token cap on top of pkg/openai or pkg/ollama
// 4. Speech (pkg/speech): espeak-ng/say or a plain writer
// 5. Controller (pkg/controller): the gesture state machine tying them together
package visionapp

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"

	"github.com/menta2k/vision-app/internal/config"
	"github.com/menta2k/vision-app/pkg/capture"
	"github.com/menta2k/vision-app/pkg/client"
	"github.com/menta2k/vision-app/pkg/controller"
	"github.com/menta2k/vision-app/pkg/describer"
	"github.com/menta2k/vision-app/pkg/ollama"
	"github.com/menta2k/vision-app/pkg/openai"
	"github.com/menta2k/vision-app/pkg/permission"
	"github.com/menta2k/vision-app/pkg/processing"
	"github.com/menta2k/vision-app/pkg/speech"
)

// Version of the vision app
const Version = "1.0.0"

// Config is the application configuration.
type Config = config.Config

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads defaults, the YAML file at path (if any) and the environment.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Options replaces pieces of the assembly. Zero values are built from the config.
type Options struct {
	Camera   capture.Camera
	Speaker  speech.Speaker
	Observer controller.StateObserver
	// Output receives utterances when the writer speech backend is used.
	Output io.Writer
}

// App is an assembled controller plus the adapters it owns.
type App struct {
	Config     *config.Config
	Controller *controller.Controller
	Speaker    speech.Speaker
	Camera     capture.Camera
	Backend    client.VisionClient
}

// New validates cfg and builds the controller and its collaborators.
func New(cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := NewVisionClient(cfg)
	if err != nil {
		return nil, err
	}

	camera := opts.Camera
	if camera == nil {
		camera = NewCamera(cfg)
	}

	speaker := opts.Speaker
	if speaker == nil {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		speaker = NewSpeaker(cfg, out)
	}

	cameraPerm, micPerm := NewPermissions(cfg)

	ctrl := controller.New(controller.Deps{
		Camera:           camera,
		CameraPermission: cameraPerm,
		MicPermission:    micPerm,
		Normalizer: processing.NewProcessor(processing.Options{
			MaxWidth:     cfg.Image.MaxWidth,
			Quality:      cfg.Image.Quality,
			MinImageSize: cfg.Image.MinImageSize,
		}),
		Describer: describer.NewDescriber(backend, describer.Options{
			Temperature: cfg.Vision.Temperature,
			Tips:        cfg.Vision.Tips,
		}),
		Speaker:  speaker,
		Observer: opts.Observer,
	})

	log.WithFields(log.Fields{
		"backend": backend.Name(),
		"capture": cfg.Capture.Backend,
		"speech":  cfg.Speech.Backend,
		"version": Version,
	}).Debug("vision app assembled")

	return &App{
		Config:     cfg,
		Controller: ctrl,
		Speaker:    speaker,
		Camera:     camera,
		Backend:    backend,
	}, nil
}

// Close stops any utterance in progress.
func (a *App) Close() error {
	return a.Speaker.Stop()
}

// NewVisionClient creates the description backend named by vision.backend.
func NewVisionClient(cfg *config.Config) (client.VisionClient, error) {
	switch cfg.Vision.Backend {
	case "ollama":
		c, err := ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Vision.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "openai", "":
		return openai.NewClient(openai.Config{
			APIKey:  cfg.Vision.APIKey,
			BaseURL: cfg.Vision.BaseURL,
			Model:   cfg.Vision.Model,
			Timeout: cfg.Vision.RequestTimeout,
		}), nil
	}
	return nil, fmt.Errorf("unknown backend: %s (use 'openai' or 'ollama')", cfg.Vision.Backend)
}

// NewCamera creates the capture adapter named by capture.backend.
func NewCamera(cfg *config.Config) capture.Camera {
	if cfg.Capture.Backend == "file" {
		return capture.NewFileCamera(cfg.Capture.Path)
	}
	return capture.NewFFmpegCamera(capture.FFmpegConfig{
		Command:     cfg.Capture.Command,
		InputFormat: cfg.Capture.InputFormat,
		InputDevice: cfg.Capture.InputDevice,
		Quality:     cfg.Capture.Quality,
	})
}

// NewSpeaker creates the speech adapter named by speech.backend. A command
// synthesizer that is not installed falls back to writing to w.
func NewSpeaker(cfg *config.Config, w io.Writer) speech.Speaker {
	if cfg.Speech.Backend == "command" {
		s := speech.NewCommandSpeaker(cfg.Speech.Command, speech.Options{
			Language: cfg.Speech.Language,
			Voice:    cfg.Speech.Voice,
			Rate:     cfg.Speech.Rate,
			Pitch:    cfg.Speech.Pitch,
		})
		if s.Available() {
			return s
		}
		log.WithField("command", cfg.Speech.Command).Warn("speech synthesizer not found, printing utterances instead")
	}
	return speech.NewWriterSpeaker(w, "🔊 ")
}

// NewPermissions maps the configured device paths to permission checks. An
// empty path is always granted; no microphone path means no microphone check.
func NewPermissions(cfg *config.Config) (camera, microphone permission.Permission) {
	camera = permission.Granted()
	if cfg.Permissions.CameraDevice != "" {
		camera = permission.NewDevicePermission("camera", cfg.Permissions.CameraDevice)
	}
	if cfg.Permissions.MicrophoneDevice != "" {
		microphone = permission.NewDevicePermission("microphone", cfg.Permissions.MicrophoneDevice)
	}
	return camera, microphone
}

// GetVersion returns the app version
func GetVersion() string {
	return Version
}
