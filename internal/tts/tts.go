// Package tts defines the interface for text-to-speech synthesis.
//
// lovtrans speaks translations aloud in the language they were translated
// into, both over the HTTP API and through the CLI's playback adapter.
package tts

import (
	"context"
	"errors"

	"github.com/nadzzz/lovtrans/internal/lang"
)

// ErrNoVoice is returned when no voice is configured for the requested
// language.
var ErrNoVoice = errors.New("no voice for language")

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language selects the voice.
	Language lang.Code

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier (e.g., "piper").
	Name() string

	// Synthesize generates a WAV file from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*Result, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// Result holds the output of synthesis.
type Result struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	SampleRate int
	Channels   int
}
