// Package piper implements the TTS Synthesizer using a Piper Wyoming protocol server.
//
// Piper is a fast, local neural text-to-speech system. The linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200; one instance can
// serve every voice, or each language can get its own instance.
package piper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/nadzzz/lovtrans/internal/config"
	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/tts"
)

// defaultVoices maps language codes to Piper voice model names. Languages
// without a published Piper voice need one configured explicitly.
var defaultVoices = map[lang.Code]string{
	lang.Chinese:    "zh_CN-huayan-medium",
	lang.English:    "en_US-lessac-medium",
	lang.Japanese:   "ja_JP-amitaro-medium",
	lang.Korean:     "ko_KR-kss-x_low",
	lang.Vietnamese: "vi_VN-vais1000-medium",
	lang.French:     "fr_FR-siwis-medium",
	lang.German:     "de_DE-thorsten-medium",
	lang.Spanish:    "es_ES-davefx-medium",
	lang.Italian:    "it_IT-riccardo-x_low",
	lang.Portuguese: "pt_BR-faber-medium",
	lang.Russian:    "ru_RU-ruslan-medium",
	lang.Arabic:     "ar_JO-kareem-medium",
	lang.Hindi:      "hi_IN-pratham-medium",
}

const dialTimeout = 10 * time.Second

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint  string               // default host:port of the Piper Wyoming server
	endpoints map[lang.Code]string // per-language Piper instances
	voices    map[lang.Code]string
}

// New creates a new Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	voices := make(map[lang.Code]string, len(defaultVoices)+len(cfg.Voices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		if code, ok := lang.Parse(k); ok {
			voices[code] = v
		}
	}

	endpoints := make(map[lang.Code]string, len(cfg.Endpoints))
	for k, ep := range cfg.Endpoints {
		if code, ok := lang.Parse(k); ok {
			endpoints[code] = cleanEndpoint(ep)
		}
	}

	return &Synthesizer{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
	}
}

func cleanEndpoint(ep string) string {
	ep = strings.TrimPrefix(ep, "tcp://")
	ep = strings.TrimPrefix(ep, "http://")
	return ep
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "piper" }

// Voice returns the voice used for code, or "" if none is configured.
func (s *Synthesizer) Voice(code lang.Code) string {
	return s.voices[code]
}

// Synthesize sends text to the Piper server and returns synthesized audio as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	voice := opts.Voice
	if voice == "" {
		voice = s.voices[opts.Language]
	}
	if voice == "" {
		return nil, fmt.Errorf("%w: %s", tts.ErrNoVoice, opts.Language)
	}

	endpoint := s.endpoints[opts.Language]
	if endpoint == "" {
		endpoint = s.endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured for language %q", opts.Language)
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "language", opts.Language, "endpoint", endpoint)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	synth := event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, synth, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	return collectAudio(newEventReader(conn))
}

// collectAudio reads audio-start, audio-chunk* and audio-stop and wraps the
// PCM stream in a WAV container.
func collectAudio(r *eventReader) (*tts.Result, error) {
	var (
		pcm    bytes.Buffer
		format = audioFormat{rate: 22050, channels: 1, width: 2}
	)

	for {
		evt, payload, err := r.next()
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			format = format.update(evt.Data)
			slog.Debug("piper audio-start", "rate", format.rate, "channels", format.channels, "width", format.width)

		case "audio-chunk":
			pcm.Write(payload)

		case "audio-stop":
			slog.Debug("piper audio-stop", "pcm_bytes", pcm.Len())
			return &tts.Result{
				Audio:       pcmToWAV(pcm.Bytes(), format),
				ContentType: "audio/wav",
				SampleRate:  format.rate,
				Channels:    format.channels,
			}, nil

		case "error":
			msg := "unknown error"
			if text, ok := evt.Data["text"].(string); ok {
				msg = text
			}
			return nil, fmt.Errorf("piper error: %s", msg)

		default:
			slog.Debug("piper unknown event", "type", evt.Type)
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }
