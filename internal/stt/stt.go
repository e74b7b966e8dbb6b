// Package stt defines the interface for speech-to-text backends.
package stt

import (
	"context"

	"github.com/nadzzz/lovtrans/internal/lang"
)

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language hints the spoken language. Empty lets the backend detect it.
	Language lang.Code

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string
}

// Result is the output of a transcription.
type Result struct {
	Text string

	// Language is the detected language, or "" when the backend reported one
	// outside the supported set.
	Language lang.Code

	// Confidence in [0,1], or nil when the backend does not report one.
	Confidence *float64
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "whisper").
	Name() string

	// Transcribe converts audio bytes of the given content type to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (*Result, error)

	// Close releases any resources held by the transcriber.
	Close() error
}
