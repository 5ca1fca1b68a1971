package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/vision-app/internal/utils"
)

// Config holds the application configuration
type Config struct {
	Vision      VisionConfig      `yaml:"vision"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	Image       ImageConfig       `yaml:"image"`
	Capture     CaptureConfig     `yaml:"capture"`
	Speech      SpeechConfig      `yaml:"speech"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// VisionConfig selects the description backend
type VisionConfig struct {
	Backend        string        `yaml:"backend"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	Temperature    float64       `yaml:"temperature"`
	Tips           bool          `yaml:"tips"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// OllamaConfig is used when vision.backend is "ollama"
type OllamaConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// ImageConfig bounds the frame sent upstream
type ImageConfig struct {
	MaxWidth     int `yaml:"max_width"`
	Quality      int `yaml:"quality"`
	MinImageSize int `yaml:"min_image_size"`
}

// CaptureConfig selects the camera adapter
type CaptureConfig struct {
	Backend     string  `yaml:"backend"`
	Command     string  `yaml:"command"`
	InputFormat string  `yaml:"input_format"`
	InputDevice string  `yaml:"input_device"`
	Quality     float64 `yaml:"quality"`
	Path        string  `yaml:"path"`
}

// SpeechConfig selects the speech adapter and prosody
type SpeechConfig struct {
	Backend  string  `yaml:"backend"`
	Command  string  `yaml:"command"`
	Language string  `yaml:"language"`
	Voice    string  `yaml:"voice"`
	Rate     float64 `yaml:"rate"`
	Pitch    float64 `yaml:"pitch"`
}

// PermissionsConfig names the device nodes whose access stands in for
// camera and microphone consent. An empty path means always granted.
type PermissionsConfig struct {
	CameraDevice     string `yaml:"camera_device"`
	MicrophoneDevice string `yaml:"microphone_device"`
}

// ServerConfig configures the HTTP gesture surface
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures apex/log
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Vision: VisionConfig{
			Backend:     "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Tips:        true,
		},
		Ollama: OllamaConfig{
			URL:   "http://localhost:11434",
			Model: "llava",
		},
		Image: ImageConfig{
			MaxWidth:     960,
			Quality:      60,
			MinImageSize: 16,
		},
		Capture: CaptureConfig{
			Backend:     "ffmpeg",
			Command:     "ffmpeg",
			InputFormat: "v4l2",
			InputDevice: "/dev/video0",
			Quality:     0.4,
		},
		Speech: SpeechConfig{
			Backend:  "command",
			Command:  "espeak-ng",
			Language: "pt-BR",
			Rate:     1.0,
			Pitch:    1.0,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "cli",
		},
	}
}

// Load reads defaults, then the YAML file at filename if it is not empty,
// then the environment.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		if err := cfg.mergeFile(filename); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML (or JSON) file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(filename); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables. OPENAI_API_KEY is honoured as is;
// everything else uses the VISION_APP_ prefix.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("OPENAI_API_KEY"); ok {
		c.Vision.APIKey = strings.TrimSpace(v)
	}

	strs := map[string]*string{
		"VISION_APP_API_KEY":           &c.Vision.APIKey,
		"VISION_APP_BACKEND":           &c.Vision.Backend,
		"VISION_APP_BASE_URL":          &c.Vision.BaseURL,
		"VISION_APP_MODEL":             &c.Vision.Model,
		"VISION_APP_OLLAMA_URL":        &c.Ollama.URL,
		"VISION_APP_OLLAMA_MODEL":      &c.Ollama.Model,
		"VISION_APP_CAPTURE_BACKEND":   &c.Capture.Backend,
		"VISION_APP_CAPTURE_DEVICE":    &c.Capture.InputDevice,
		"VISION_APP_CAPTURE_PATH":      &c.Capture.Path,
		"VISION_APP_SPEECH_BACKEND":    &c.Speech.Backend,
		"VISION_APP_SPEECH_COMMAND":    &c.Speech.Command,
		"VISION_APP_SPEECH_VOICE":      &c.Speech.Voice,
		"VISION_APP_SERVER_ADDR":       &c.Server.Addr,
		"VISION_APP_LOG_LEVEL":         &c.Log.Level,
		"VISION_APP_LOG_FORMAT":        &c.Log.Format,
		"VISION_APP_CAMERA_DEVICE":     &c.Permissions.CameraDevice,
		"VISION_APP_MICROPHONE_DEVICE": &c.Permissions.MicrophoneDevice,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("VISION_APP_TIPS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VISION_APP_TIPS: %w", err)
		}
		c.Vision.Tips = b
	}
	if v, ok := lookup("VISION_APP_REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VISION_APP_REQUEST_TIMEOUT: %w", err)
		}
		c.Vision.RequestTimeout = d
	}
	return nil
}

// SaveToFile saves configuration to a YAML file. The API key is not written.
func (c *Config) SaveToFile(filename string) error {
	if err := utils.EnsureDir(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.Vision.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid. A missing API key is not an
// error here; it is announced to the user at startup.
func (c *Config) Validate() error {
	switch c.Vision.Backend {
	case "openai", "ollama":
	default:
		return fmt.Errorf("vision.backend must be openai or ollama, got %q", c.Vision.Backend)
	}

	if c.Vision.Temperature < 0 || c.Vision.Temperature > 2 {
		return fmt.Errorf("vision.temperature must be between 0 and 2")
	}

	if c.Vision.RequestTimeout < 0 {
		return fmt.Errorf("vision.request_timeout must not be negative")
	}

	if c.Image.MaxWidth < 1 {
		return fmt.Errorf("image.max_width must be positive")
	}

	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("image.quality must be between 1 and 100")
	}

	switch c.Capture.Backend {
	case "ffmpeg":
		if c.Capture.Command == "" {
			return fmt.Errorf("capture.command cannot be empty")
		}
	case "file":
		if c.Capture.Path == "" {
			return fmt.Errorf("capture.path is required for the file backend")
		}
	default:
		return fmt.Errorf("capture.backend must be ffmpeg or file, got %q", c.Capture.Backend)
	}

	if c.Capture.Quality <= 0 || c.Capture.Quality > 1 {
		return fmt.Errorf("capture.quality must be in (0, 1]")
	}

	switch c.Speech.Backend {
	case "command":
		if c.Speech.Command == "" {
			return fmt.Errorf("speech.command cannot be empty")
		}
	case "writer":
	default:
		return fmt.Errorf("speech.backend must be command or writer, got %q", c.Speech.Backend)
	}

	if c.Speech.Rate <= 0 || c.Speech.Pitch <= 0 {
		return fmt.Errorf("speech.rate and speech.pitch must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "vision-app", "config.yaml")
}
