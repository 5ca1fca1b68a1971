package describer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/vision-app/pkg/client"
	"github.com/menta2k/vision-app/pkg/types"
)

type fakeClient struct {
	answer     string
	err        error
	configured bool
	requests   []client.Request
}

func (f *fakeClient) Name() string { return "fake" }
func (f *fakeClient) Configured() bool { return f.configured }
func (f *fakeClient) Describe(ctx context.Context, req client.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

func TestBuildRequest(t *testing.T) {
	req := BuildRequest("QUJD", Options{Temperature: 0.2})
	assert.Equal(t, DescriptionPrompt, req.Prompt)
	assert.Equal(t, MaxTokensDescription, req.MaxTokens)
	assert.Equal(t, 0.2, req.Temperature)
	assert.Equal(t, "QUJD", req.ImageB64)

	req = BuildRequest("QUJD", Options{Temperature: 0.2, Tips: true})
	assert.Equal(t, TipsPrompt, req.Prompt)
	assert.Equal(t, MaxTokensWithTips, req.MaxTokens)
	assert.Contains(t, req.Prompt, "Dicas:")
}

func TestDescribeUsesDefaults(t *testing.T) {
	fc := &fakeClient{answer: "  Camisa azul.  ", configured: true}
	d := NewDescriber(fc, DefaultOptions())

	text, err := d.Describe(context.Background(), types.EncodedImage{Base64: "QUJD"})
	require.NoError(t, err)
	assert.Equal(t, "Camisa azul.", text)
	require.Len(t, fc.requests, 1)
	assert.Equal(t, DefaultTemperature, fc.requests[0].Temperature)
	assert.Equal(t, TipsPrompt, fc.requests[0].Prompt)
	assert.True(t, d.Configured())
	assert.Equal(t, "fake", d.Name())
}

func TestDescribeKeepsAnswerBody(t *testing.T) {
	answer := "Descrição: Camisa azul.  \n\n\nDicas:\n  - Use com jeans.\n- Lave do avesso."
	fc := &fakeClient{answer: "\n " + answer + " \n\n"}
	d := NewDescriber(fc, Options{Tips: true})

	text, err := d.Describe(context.Background(), types.EncodedImage{Base64: "QUJD"})
	require.NoError(t, err)
	assert.Equal(t, answer, text)
}

func TestDescribeHonoursZeroTemperature(t *testing.T) {
	fc := &fakeClient{answer: "Camisa azul."}
	d := NewDescriber(fc, Options{Temperature: 0})

	_, err := d.Describe(context.Background(), types.EncodedImage{Base64: "QUJD"})
	require.NoError(t, err)
	require.Len(t, fc.requests, 1)
	assert.Zero(t, fc.requests[0].Temperature)
	assert.Equal(t, DescriptionPrompt, fc.requests[0].Prompt)
}

func TestDescribeErrors(t *testing.T) {
	d := NewDescriber(&fakeClient{}, Options{})
	_, err := d.Describe(context.Background(), types.EncodedImage{})
	assert.Error(t, err)

	remote := types.RemoteServiceError(500, "boom")
	d = NewDescriber(&fakeClient{err: remote}, Options{})
	_, err = d.Describe(context.Background(), types.EncodedImage{Base64: "QUJD"})
	assert.True(t, errors.Is(err, remote))

	d = NewDescriber(&fakeClient{answer: " \n\n "}, Options{})
	_, err = d.Describe(context.Background(), types.EncodedImage{Base64: "QUJD"})
	assert.Equal(t, types.KindEmptyResponse, types.KindOf(err))
}
