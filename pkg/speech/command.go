package speech

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/apex/log"
)

// baseWordsPerMinute is the engine default speed that Rate scales.
const baseWordsPerMinute = 175

// CommandSpeaker speaks through an external synthesizer: espeak-ng/espeak
// style flags by default, or macOS say when the command is named "say".
type CommandSpeaker struct {
	command string
	opts    Options

	mu      sync.Mutex
	current *exec.Cmd
}

var _ Speaker = (*CommandSpeaker)(nil)

// NewCommandSpeaker creates a new speaker running command, espeak-ng by default
func NewCommandSpeaker(command string, opts Options) *CommandSpeaker {
	if command == "" {
		command = "espeak-ng"
	}
	return &CommandSpeaker{command: command, opts: opts.withDefaults()}
}

// Available reports whether the synthesizer binary can be found.
func (s *CommandSpeaker) Available() bool {
	_, err := exec.LookPath(s.command)
	return err == nil
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	cmd := exec.Command(s.command, s.args(text)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.command, err)
	}
	s.current = cmd

	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		if s.current == cmd {
			s.current = nil
		}
		s.mu.Unlock()
		if err != nil && !isKilled(err) {
			log.WithError(err).WithField("command", s.command).Warn("speech synthesizer exited with error")
		}
	}()
	return nil
}

func (s *CommandSpeaker) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Speaking reports whether an utterance is still playing.
func (s *CommandSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *CommandSpeaker) stopLocked() error {
	if s.current == nil || s.current.Process == nil {
		return nil
	}
	err := s.current.Process.Kill()
	s.current = nil
	if err != nil && err != os.ErrProcessDone {
		return err
	}
	return nil
}

func (s *CommandSpeaker) args(text string) []string {
	wpm := strconv.Itoa(int(math.Round(baseWordsPerMinute * s.opts.Rate)))

	if filepath.Base(s.command) == "say" {
		args := []string{"-r", wpm}
		if s.opts.Voice != "" {
			args = append(args, "-v", s.opts.Voice)
		}
		return append(args, text)
	}

	voice := s.opts.Voice
	if voice == "" {
		voice = strings.ToLower(s.opts.Language)
	}
	pitch := int(math.Round(50 * s.opts.Pitch))
	if pitch > 99 {
		pitch = 99
	}
	return []string{"-v", voice, "-s", wpm, "-p", strconv.Itoa(pitch), "--", text}
}

func isKilled(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	return !exitErr.Exited()
}
