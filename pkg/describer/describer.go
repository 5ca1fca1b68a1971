package describer

import (
	"context"
	"fmt"
	"strings"

	"github.com/menta2k/vision-app/pkg/client"
	"github.com/menta2k/vision-app/pkg/types"
)

const (
	DefaultTemperature = 0.2

	// MaxTokensDescription caps answers that only describe the garment.
	MaxTokensDescription = 150
	// MaxTokensWithTips caps answers that also carry practical tips.
	MaxTokensWithTips = 220
)

// DescriptionPrompt asks for a short, objective garment description.
const DescriptionPrompt = `Você é um assistente para pessoas com deficiência visual. Descreva a roupa de forma objetiva em 1 a 2 frases, em português do Brasil. Inclua: tipo da peça, cor principal, padrões (listras, xadrez, estampas) e detalhes visuais relevantes (botões, bolsos, gola). Evite suposições e não mencione a presença de pessoas.`

// TipsPrompt extends DescriptionPrompt with a fixed two-section layout.
const TipsPrompt = DescriptionPrompt + `

Responda exatamente neste formato, sem markdown:
Descrição: <1 a 2 frases sobre a peça>
Dicas:
- <dica prática de combinação ou uso>
- <dica prática de cuidado ou ocasião>
- <terceira dica opcional>

Dê de 2 a 3 dicas curtas e práticas.`

// Options tunes the request sent to the vision backend.
type Options struct {
	Temperature float64
	Tips        bool
}

// Describer turns normalized images into spoken-ready garment descriptions.
type Describer struct {
	client client.VisionClient
	opts   Options
}

// DefaultOptions returns temperature 0.2 with tips enabled.
func DefaultOptions() Options {
	return Options{Temperature: DefaultTemperature, Tips: true}
}

// NewDescriber creates a describer on top of a vision client. opts is used as
// given, so a zero Temperature is sent as 0.
func NewDescriber(c client.VisionClient, opts Options) *Describer {
	return &Describer{client: c, opts: opts}
}

// Name returns the backend name.
func (d *Describer) Name() string {
	return d.client.Name()
}

// Configured reports whether the backend credential is present.
func (d *Describer) Configured() bool {
	return d.client.Configured()
}

// Describe sends the image with the configured prompt and returns the trimmed answer.
func (d *Describer) Describe(ctx context.Context, img types.EncodedImage) (string, error) {
	if img.Base64 == "" {
		return "", fmt.Errorf("empty image payload")
	}

	text, err := d.client.Describe(ctx, BuildRequest(img.Base64, d.opts))
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", types.EmptyResponseError()
	}
	return text, nil
}

// BuildRequest selects prompt and token cap for the given options.
func BuildRequest(imgB64 string, opts Options) client.Request {
	req := client.Request{
		Prompt:      DescriptionPrompt,
		ImageB64:    imgB64,
		Temperature: opts.Temperature,
		MaxTokens:   MaxTokensDescription,
	}
	if opts.Tips {
		req.Prompt = TipsPrompt
		req.MaxTokens = MaxTokensWithTips
	}
	return req
}
