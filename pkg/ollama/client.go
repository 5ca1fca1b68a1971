package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/vision-app/pkg/client"
	"github.com/menta2k/vision-app/pkg/processing"
	"github.com/menta2k/vision-app/pkg/types"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llava"
)

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a new Ollama client. Any path on ollamaURL (such as
// /api/chat) is ignored.
func NewClient(ollamaURL, model string, timeout time.Duration) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}

	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: timeout,
	}, nil
}

func (c *Client) Name() string {
	return "ollama"
}

// Configured is always true: a local Ollama server needs no credential.
func (c *Client) Configured() bool {
	return true
}

// Describe performs a single non-streaming chat call with the image attached.
func (c *Client) Describe(ctx context.Context, req client.Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	imgBytes, err := base64.StdEncoding.DecodeString(processing.NormalizeBase64(req.ImageB64))
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &streamFalse,
		Options: options,
	}

	var responseContent strings.Builder
	err = c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		responseContent.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			reason := statusErr.ErrorMessage
			if reason == "" {
				reason = statusErr.Status
			}
			return "", types.RemoteServiceError(statusErr.StatusCode, reason)
		}
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	text := strings.TrimSpace(responseContent.String())
	if text == "" {
		return "", types.EmptyResponseError()
	}
	return text, nil
}
