package processing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBase64CleanInputIsUnchanged(t *testing.T) {
	inputs := []string{"", "QUJD", "QUJDREVGR0g=", "/9j/4AAQSkZJRgABAQ=="}
	for _, in := range inputs {
		out := NormalizeBase64(in)
		assert.Equal(t, in, out)
		assert.Equal(t, out, NormalizeBase64(out), "normalization should be idempotent")
	}
}

func TestNormalizeBase64Padding(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"mod 2 gets two pad characters", "QUJDRA", "QUJDRA=="},
		{"mod 3 gets one pad character", "QUJDREU", "QUJDREU="},
		{"mod 1 drops the last character", "QUJDREVGR", "QUJDREVG"},
		{"mod 0 is untouched", "QUJDREVG", "QUJDREVG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBase64(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, len(got)%4)
		})
	}
}

func TestNormalizeBase64LengthProperties(t *testing.T) {
	for n := 1; n <= 64; n++ {
		in := strings.Repeat("A", n)
		out := NormalizeBase64(in)
		switch n % 4 {
		case 2, 3:
			assert.Equal(t, n+(4-n%4), len(out), "length %d", n)
		case 1:
			assert.Equal(t, n-1, len(out), "length %d", n)
		case 0:
			assert.Equal(t, n, len(out), "length %d", n)
		}
		assert.Zero(t, len(out)%4, "length %d", n)
	}
}

func TestNormalizeBase64StripsDataURLAndWhitespace(t *testing.T) {
	payload := "QUJDREVGR0hJ"
	prefixed := []string{
		"data:image/jpeg;base64," + payload,
		"data:image/png;base64," + payload,
		"data:image/svg+xml;base64," + payload,
		"data:image/vnd.ms-photo;base64," + payload,
	}
	for _, in := range prefixed {
		assert.Equal(t, NormalizeBase64(payload), NormalizeBase64(in), in)
	}

	assert.Equal(t, "QUJDREVGR0hJ", NormalizeBase64("QUJD\nREVG\r\n R0hJ\t"))
	assert.Equal(t, "QUJDRA==", NormalizeBase64("data:image/jpeg;base64,QUJD\nRA"))
}

func TestNormalizeBase64OnlyStripsLeadingHeader(t *testing.T) {
	in := "QUJDdata:image/jpeg;base64,"
	assert.Contains(t, NormalizeBase64(in), "data:image/jpeg")
}

func TestNormalizeBase64StripsAllWhitespace(t *testing.T) {
	assert.Equal(t, "QUJDRA==", NormalizeBase64("QUJD\vRA"))
	assert.Equal(t, "QUJDRA==", NormalizeBase64("QUJD\u00a0RA"))
	assert.Equal(t, "QUJDREVG", NormalizeBase64("\fQUJD\u2003RE\u3000VG\u0085"))
}
