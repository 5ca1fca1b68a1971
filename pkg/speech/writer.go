package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// WriterSpeaker prints utterances instead of synthesizing them. It is used on
// hosts without a synthesizer and by tests.
type WriterSpeaker struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
	spoken []string
}

var _ Speaker = (*WriterSpeaker)(nil)

// NewWriterSpeaker creates a new speaker writing each utterance to w after prefix
func NewWriterSpeaker(w io.Writer, prefix string) *WriterSpeaker {
	return &WriterSpeaker{w: w, prefix: prefix}
}

func (s *WriterSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	if s.w == nil {
		return nil
	}
	_, err := fmt.Fprintf(s.w, "%s%s\n", s.prefix, text)
	return err
}

func (s *WriterSpeaker) Stop() error {
	return nil
}

// Spoken returns everything spoken so far.
func (s *WriterSpeaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

// Last returns the most recent utterance, or "".
func (s *WriterSpeaker) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.spoken) == 0 {
		return ""
	}
	return s.spoken[len(s.spoken)-1]
}
