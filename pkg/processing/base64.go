package processing

import (
	"regexp"
	"strings"
	"unicode"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9+.-]+;base64,`)

// NormalizeBase64 strips a data URL header and all Unicode whitespace, then
// fixes the padding so the length is a multiple of 4. A remainder of 1 cannot
// be padded and the last character is dropped instead; that recovery is lossy.
func NormalizeBase64(b64 string) string {
	s := dataURLPrefix.ReplaceAllString(b64, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	case 1:
		s = s[:len(s)-1]
	}
	return s
}
