package client

import (
	"context"
)

// Request is one description call: a prompt plus a normalized Base64 JPEG.
type Request struct {
	Prompt      string
	ImageB64    string
	Temperature float64
	MaxTokens   int
}

// VisionClient turns an image into a textual description.
type VisionClient interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Configured reports whether the credentials the backend needs are present.
	Configured() bool

	// Describe issues a single attempt and returns the trimmed answer text.
	Describe(ctx context.Context, req Request) (string, error)
}
