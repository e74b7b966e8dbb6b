// Package whisper implements the Transcriber interface against Whisper-style
// HTTP services.
//
// Two flavors are supported:
//   - "openai": the OpenAI-compatible /v1/audio/transcriptions API (OpenAI,
//     whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nadzzz/lovtrans/internal/config"
	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/stt"
)

// Transcriber sends recorded audio to a Whisper-compatible endpoint.
type Transcriber struct {
	endpoint  string
	flavor    string
	apiKey    string
	model     string
	vadFilter bool
	client    *http.Client
}

// New creates a transcriber from config.
func New(cfg config.STTConfig) *Transcriber {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Transcriber{
		endpoint:  cfg.Endpoint,
		flavor:    flavor,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		vadFilter: cfg.VADFilter,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "whisper" }

// Transcribe converts audio to text.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string, opts stt.TranscribeOpts) (*stt.Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio to transcribe")
	}

	var (
		req *http.Request
		err error
	)
	if t.flavor == "asr" {
		req, err = t.asrRequest(ctx, audio, contentType, opts)
	} else {
		req, err = t.openAIRequest(ctx, audio, contentType, opts)
	}
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result verboseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	code := normalizeLanguage(result.Language)
	if code == "" {
		code = opts.Language
	}

	slog.Debug("transcription complete", "flavor", t.flavor, "text_length", len(result.Text), "language", code)
	return &stt.Result{
		Text:       strings.TrimSpace(result.Text),
		Language:   code,
		Confidence: result.confidence(),
	}, nil
}

// Close is a no-op for the HTTP transcriber.
func (t *Transcriber) Close() error { return nil }

func (t *Transcriber) openAIRequest(ctx context.Context, audio []byte, contentType string, opts stt.TranscribeOpts) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+extFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	if t.model != "" {
		_ = writer.WriteField("model", t.model)
	}
	if opts.Language != "" {
		_ = writer.WriteField("language", string(opts.Language))
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("prompt", opts.Prompt)
	}
	_ = writer.WriteField("response_format", "verbose_json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	return req, nil
}

// asrRequest builds a whisper-asr-webservice request:
// POST /asr?task=transcribe&language=en&output=json&vad_filter=true
// with the audio in the multipart field "audio_file".
func (t *Transcriber) asrRequest(ctx context.Context, audio []byte, contentType string, opts stt.TranscribeOpts) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio_file", "audio"+extFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	writer.Close()

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if opts.Language != "" {
		q.Set("language", string(opts.Language))
	}
	if opts.Prompt != "" {
		q.Set("initial_prompt", opts.Prompt)
	}
	if t.vadFilter {
		q.Set("vad_filter", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"?"+q.Encode(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

type verboseResult struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		AvgLogprob *float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// confidence averages the segment log-probabilities into a probability.
func (r verboseResult) confidence() *float64 {
	var sum float64
	var n int
	for _, s := range r.Segments {
		if s.AvgLogprob == nil {
			continue
		}
		sum += *s.AvgLogprob
		n++
	}
	if n == 0 {
		return nil
	}
	c := math.Exp(sum / float64(n))
	c = math.Max(0, math.Min(1, c))
	return &c
}

func extFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return ".m4a"
	default:
		return ".wav"
	}
}

var languageNames = map[string]lang.Code{
	"chinese":    lang.Chinese,
	"mandarin":   lang.Chinese,
	"english":    lang.English,
	"japanese":   lang.Japanese,
	"korean":     lang.Korean,
	"thai":       lang.Thai,
	"vietnamese": lang.Vietnamese,
	"french":     lang.French,
	"german":     lang.German,
	"spanish":    lang.Spanish,
	"italian":    lang.Italian,
	"portuguese": lang.Portuguese,
	"russian":    lang.Russian,
	"arabic":     lang.Arabic,
	"hindi":      lang.Hindi,
	"indonesian": lang.Indonesian,
	"malay":      lang.Malay,
	"tagalog":    lang.Tagalog,
	"filipino":   lang.Tagalog,
}

// normalizeLanguage converts a language name ("english") or tag ("en",
// "pt-BR") to a supported code. Anything else yields "".
func normalizeLanguage(name string) lang.Code {
	if code, ok := languageNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	if code, ok := lang.Parse(name); ok {
		return code
	}
	return ""
}
