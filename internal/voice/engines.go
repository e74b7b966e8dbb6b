package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/stt"
	"github.com/nadzzz/lovtrans/internal/tts"
)

// wavHeaderSize is the size of a canonical WAV header; recordings no longer
// than this hold no samples.
const wavHeaderSize = 44

// runFunc runs an external command with stdin and returns its stdout.
type runFunc func(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error)

func runCommand(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// localeCode maps a speech locale back to a supported language code.
func localeCode(locale language.Tag) lang.Code {
	code, ok := lang.Parse(locale.String())
	if !ok {
		return ""
	}
	return code
}

// MicRecognizer records a fixed-length clip from the microphone with an
// external recorder and transcribes it in one request. It emits a single
// final result.
type MicRecognizer struct {
	transcriber stt.Transcriber
	command     string
	seconds     int
	run         runFunc
	available   func(string) bool
}

// NewMicRecognizer returns a recognizer that runs command (arecord-compatible)
// for seconds and sends the WAV to transcriber.
func NewMicRecognizer(transcriber stt.Transcriber, command string, seconds int) *MicRecognizer {
	if command == "" {
		command = "arecord"
	}
	if seconds <= 0 {
		seconds = 5
	}
	return &MicRecognizer{
		transcriber: transcriber,
		command:     command,
		seconds:     seconds,
		run:         runCommand,
		available:   lookPath,
	}
}

// Available reports whether a transcriber is configured and the recorder is
// installed.
func (m *MicRecognizer) Available() bool {
	return m.transcriber != nil && m.available(m.command)
}

// Recognize records one clip and emits its transcript as a final result.
func (m *MicRecognizer) Recognize(ctx context.Context, locale language.Tag, emit Emit) error {
	args := []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-d", strconv.Itoa(m.seconds), "-"}
	audio, err := m.run(ctx, m.command, args, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if strings.Contains(strings.ToLower(err.Error()), "permission denied") {
			return &CaptureError{Code: ErrPermissionDenied, Err: err}
		}
		return &CaptureError{Code: ErrCapture, Err: err}
	}
	if len(audio) <= wavHeaderSize {
		return &CaptureError{Code: ErrNoSpeech}
	}

	res, err := m.transcriber.Transcribe(ctx, audio, "audio/wav", stt.TranscribeOpts{Language: localeCode(locale)})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CaptureError{Code: ErrNetwork, Err: err}
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return &CaptureError{Code: ErrNoSpeech}
	}
	slog.Debug("voice capture complete", "locale", locale, "text_length", len(text))
	emit(text, true)
	return nil
}

// PiperSpeaker synthesizes speech and pipes the WAV into an external player.
type PiperSpeaker struct {
	synth     tts.Synthesizer
	command   string
	run       runFunc
	available func(string) bool
}

// NewPiperSpeaker returns a speaker that plays synth's output with command
// (aplay-compatible, reading WAV from stdin).
func NewPiperSpeaker(synth tts.Synthesizer, command string) *PiperSpeaker {
	if command == "" {
		command = "aplay"
	}
	return &PiperSpeaker{
		synth:     synth,
		command:   command,
		run:       runCommand,
		available: lookPath,
	}
}

// Available reports whether a synthesizer is configured and the player is
// installed.
func (p *PiperSpeaker) Available() bool {
	return p.synth != nil && p.available(p.command)
}

// Speak synthesizes text in the language of locale and plays it.
func (p *PiperSpeaker) Speak(ctx context.Context, text string, locale language.Tag) error {
	code := localeCode(locale)
	if code == "" {
		return fmt.Errorf("unsupported locale %s", locale)
	}

	res, err := p.synth.Synthesize(ctx, text, tts.SynthesizeOpts{Language: code})
	if err != nil {
		return fmt.Errorf("synthesizing: %w", err)
	}

	if _, err := p.run(ctx, p.command, []string{"-q", "-"}, bytes.NewReader(res.Audio)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playing: %w", err)
	}
	return nil
}
