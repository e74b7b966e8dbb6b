// Package llm implements the Provider interface on an OpenAI-compatible
// chat-completions endpoint.
//
// Translation and language detection are both single-turn prompts. The
// endpoint is addressed as {base_url}/v1/chat/completions, so any gateway
// speaking the OpenAI wire format can be used.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nadzzz/lovtrans/internal/config"
	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
	"github.com/nadzzz/lovtrans/internal/metrics"
	"github.com/nadzzz/lovtrans/internal/provider"
)

const chatPath = "/v1/chat/completions"

const (
	detectMaxTokens   = 10
	detectTemperature = 0
)

// ErrMissingAPIKey is wrapped in the *provider.Error returned when no API
// key is configured.
var ErrMissingAPIKey = errors.New("provider API key is not configured")

// Provider talks to the chat-completions API.
type Provider struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	fallback    lang.Code
	client      *http.Client
}

// New creates a provider from config. Missing values take the package
// defaults; a missing API key is reported on the first call, not here.
func New(cfg config.ProviderConfig) *Provider {
	p := &Provider{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		fallback:    lang.Code(cfg.DetectFallback),
		client:      &http.Client{Timeout: cfg.Timeout},
	}
	if p.baseURL == "" {
		p.baseURL = config.DefaultProviderBaseURL
	}
	if p.model == "" {
		p.model = config.DefaultProviderModel
	}
	if p.maxTokens <= 0 {
		p.maxTokens = config.DefaultProviderMaxTokens
	}
	if !lang.Supported(p.fallback) {
		p.fallback = lang.English
	}
	return p
}

// Name returns the backend identifier.
func (p *Provider) Name() string { return "llm" }

// Fallback returns the code DetectLanguage answers with when detection fails.
func (p *Provider) Fallback() lang.Code { return p.fallback }

// Translate asks the model for a spoken-style translation into
// req.TargetLanguage. The source language is echoed when given; otherwise a
// separate detection call is made on the original text.
func (p *Provider) Translate(ctx context.Context, req message.TranslateRequest) (*message.TranslateResponse, error) {
	start := time.Now()
	content, err := p.complete(ctx, translatePrompt(req), p.maxTokens, p.temperature)
	metrics.RecordProviderRequest("translate", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	detected := req.SourceLanguage
	if detected == "" {
		detected = p.DetectLanguage(ctx, req.Text)
	}

	slog.Debug("translation complete",
		"target", req.TargetLanguage,
		"detected", detected,
		"text_length", len(content),
	)
	return &message.TranslateResponse{
		TranslatedText:   content,
		DetectedLanguage: detected,
	}, nil
}

// DetectLanguage asks the model for the ISO 639-1 code of text. Any failure,
// or an answer outside the supported set, yields the fallback code.
func (p *Provider) DetectLanguage(ctx context.Context, text string) lang.Code {
	start := time.Now()
	content, err := p.complete(ctx, detectPrompt(text), detectMaxTokens, detectTemperature)
	metrics.RecordProviderRequest("detect", time.Since(start), err)
	if err != nil {
		slog.Debug("language detection failed, using fallback", "fallback", p.fallback, "error", err)
		metrics.RecordDetectionFallback()
		return p.fallback
	}

	code, ok := lang.Parse(strings.TrimRight(content, ".,;:!\"'`"))
	if !ok || !lang.Supported(code) {
		slog.Debug("unrecognized detection answer, using fallback", "answer", content, "fallback", p.fallback)
		metrics.RecordDetectionFallback()
		return p.fallback
	}
	return code
}

// Close is a no-op for the HTTP provider.
func (p *Provider) Close() error { return nil }

// complete sends one user message and returns the trimmed content of the
// first choice. An absent choice or content yields "".
func (p *Provider) complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if p.apiKey == "" {
		return "", &provider.Error{Err: ErrMissingAPIKey}
	}

	reqBody := chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+chatPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &provider.Error{Err: fmt.Errorf("creating chat request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &provider.Error{Err: fmt.Errorf("chat request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &provider.Error{Status: resp.StatusCode, Body: string(respBody)}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &provider.Error{Status: resp.StatusCode, Err: fmt.Errorf("decoding chat response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// --- Internal types and helpers ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func translatePrompt(req message.TranslateRequest) string {
	hint := "Auto-detect the source language."
	if req.SourceLanguage != "" {
		hint = "The source language is " + lang.EnglishName(req.SourceLanguage) + "."
	}

	var sb strings.Builder
	sb.WriteString("You are a travel translator. Translate the following text to " + lang.EnglishName(req.TargetLanguage) + ".\n")
	sb.WriteString("Make the translation natural and conversational, as it will be spoken aloud.\n")
	sb.WriteString("Keep phrases short and easy to pronounce. Do not add any explanations.\n\n")
	sb.WriteString(hint + "\n\n")
	sb.WriteString("Text: " + req.Text + "\n\n")
	sb.WriteString("Translation:")
	return sb.String()
}

func detectPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Identify the language of this text. Reply with ONLY the ISO 639-1 code (e.g., zh, en, ja, ko, th).\n\n")
	sb.WriteString("Text: " + text + "\n\n")
	sb.WriteString("Language code:")
	return sb.String()
}
