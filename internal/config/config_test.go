package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "openai", cfg.Vision.Backend)
	assert.Equal(t, 0.2, cfg.Vision.Temperature)
	assert.True(t, cfg.Vision.Tips)
	assert.Equal(t, 960, cfg.Image.MaxWidth)
	assert.Equal(t, 60, cfg.Image.Quality)
	assert.Equal(t, 0.4, cfg.Capture.Quality)
	assert.Equal(t, "pt-BR", cfg.Speech.Language)
	assert.Empty(t, cfg.Vision.APIKey)
	assert.Zero(t, cfg.Vision.RequestTimeout)
}

func TestLoadFromFileMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vision:
  model: gpt-4o
  tips: false
  request_timeout: 45s
capture:
  backend: file
  path: /tmp/frames
speech:
  voice: pt-br+f3
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Vision.Model)
	assert.False(t, cfg.Vision.Tips)
	assert.Equal(t, 45*time.Second, cfg.Vision.RequestTimeout)
	assert.Equal(t, "file", cfg.Capture.Backend)
	assert.Equal(t, "pt-br+f3", cfg.Speech.Voice)
	// untouched sections keep their defaults
	assert.Equal(t, "https://api.openai.com/v1", cfg.Vision.BaseURL)
	assert.Equal(t, 960, cfg.Image.MaxWidth)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileAcceptsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"image": {"max_width": 640, "quality": 70}}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Image.MaxWidth)
	assert.Equal(t, 70, cfg.Image.Quality)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vision: [unclosed"), 0o644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"OPENAI_API_KEY":             " sk-test \n",
		"VISION_APP_BACKEND":         "ollama",
		"VISION_APP_OLLAMA_MODEL":    "llava:13b",
		"VISION_APP_TIPS":            "false",
		"VISION_APP_REQUEST_TIMEOUT": "20s",
		"VISION_APP_SERVER_ADDR":     "127.0.0.1:9000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Vision.APIKey)
	assert.Equal(t, "ollama", cfg.Vision.Backend)
	assert.Equal(t, "llava:13b", cfg.Ollama.Model)
	assert.False(t, cfg.Vision.Tips)
	assert.Equal(t, 20*time.Second, cfg.Vision.RequestTimeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestApplyEnvPrefixedKeyWins(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"OPENAI_API_KEY":     "from-openai",
		"VISION_APP_API_KEY": "from-prefixed",
	})))
	assert.Equal(t, "from-prefixed", cfg.Vision.APIKey)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	assert.Error(t, Default().ApplyEnv(env(map[string]string{"VISION_APP_TIPS": "maybe"})))
	assert.Error(t, Default().ApplyEnv(env(map[string]string{"VISION_APP_REQUEST_TIMEOUT": "soon"})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Vision.Backend = "bard" }},
		{"temperature", func(c *Config) { c.Vision.Temperature = 3 }},
		{"negative timeout", func(c *Config) { c.Vision.RequestTimeout = -time.Second }},
		{"max width", func(c *Config) { c.Image.MaxWidth = 0 }},
		{"jpeg quality", func(c *Config) { c.Image.Quality = 101 }},
		{"capture backend", func(c *Config) { c.Capture.Backend = "gphoto" }},
		{"file without path", func(c *Config) { c.Capture.Backend = "file" }},
		{"capture quality", func(c *Config) { c.Capture.Quality = 1.5 }},
		{"speech backend", func(c *Config) { c.Speech.Backend = "cloud" }},
		{"speech command", func(c *Config) { c.Speech.Command = "" }},
		{"speech rate", func(c *Config) { c.Speech.Rate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAllowsMissingAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Vision.APIKey = ""
	assert.NoError(t, cfg.Validate())
}

func TestSaveToFileOmitsAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Vision.APIKey = "sk-secret"
	cfg.Vision.RequestTimeout = 30 * time.Second

	require.NoError(t, cfg.SaveToFile(path))
	assert.Equal(t, "sk-secret", cfg.Vision.APIKey)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Vision.APIKey)
	assert.Equal(t, 30*time.Second, loaded.Vision.RequestTimeout)
	assert.Equal(t, cfg.Image, loaded.Image)
}

func TestGetConfigPath(t *testing.T) {
	assert.Contains(t, GetConfigPath(), "vision-app")
}
