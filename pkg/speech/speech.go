// Package speech provides text-to-speech output adapters.
package speech

import (
	"context"
)

const (
	DefaultLanguage = "pt-BR"
	DefaultRate     = 1.0
	DefaultPitch    = 1.0
)

// Options selects voice and prosody. Rate and Pitch are relative to the
// engine default (1.0).
type Options struct {
	Language string
	Voice    string
	Rate     float64
	Pitch    float64
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.Rate <= 0 {
		o.Rate = DefaultRate
	}
	if o.Pitch <= 0 {
		o.Pitch = DefaultPitch
	}
	return o
}

// Speaker reads text aloud. Speak interrupts any utterance in progress and
// returns without waiting for playback to finish.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop() error
}
