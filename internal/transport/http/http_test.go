package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/lovtrans/internal/config"
	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
	"github.com/nadzzz/lovtrans/internal/orchestrator"
	"github.com/nadzzz/lovtrans/internal/provider"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/stt"
	"github.com/nadzzz/lovtrans/internal/transport"
	"github.com/nadzzz/lovtrans/internal/tts"
)

// stubProvider answers "<target>:<text>" and fails for targets in fail.
type stubProvider struct {
	fail  map[lang.Code]bool
	calls []message.TranslateRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Translate(_ context.Context, req message.TranslateRequest) (*message.TranslateResponse, error) {
	s.calls = append(s.calls, req)
	if s.fail[req.TargetLanguage] {
		return nil, &provider.Error{Status: 401, Body: "invalid api key sk-123"}
	}
	detected := req.SourceLanguage
	if detected == "" {
		detected = lang.English
	}
	return &message.TranslateResponse{
		TranslatedText:   string(req.TargetLanguage) + ":" + req.Text,
		DetectedLanguage: detected,
	}, nil
}

func (s *stubProvider) DetectLanguage(context.Context, string) lang.Code { return lang.English }

type stubSynth struct{ err error }

func (s *stubSynth) Name() string { return "stub" }
func (s *stubSynth) Close() error { return nil }
func (s *stubSynth) Synthesize(context.Context, string, tts.SynthesizeOpts) (*tts.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &tts.Result{Audio: []byte("RIFF...."), ContentType: "audio/wav"}, nil
}

type stubTranscriber struct {
	gotType string
	gotOpts stt.TranscribeOpts
}

func (s *stubTranscriber) Name() string { return "stub" }
func (s *stubTranscriber) Close() error { return nil }
func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, contentType string, opts stt.TranscribeOpts) (*stt.Result, error) {
	s.gotType = contentType
	s.gotOpts = opts
	conf := 0.9
	return &stt.Result{Text: " bonjour ", Language: lang.French, Confidence: &conf}, nil
}

func newTestServer(t *testing.T, p *stubProvider, b *transport.Backend, limits config.RateLimitConfig) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if b == nil {
		b = &transport.Backend{}
	}
	b.Orchestrator = orchestrator.New(p, logger)
	if b.Settings == nil {
		b.Settings = settings.NewMemoryKV()
	}
	b.Logger = logger

	srv := httptest.NewServer(New(config.HTTPConfig{}, limits).Handler(b))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestTranslate(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})

	resp := post(t, srv, "/api/translate", `{"text":"Hello","targetLanguage":"ja"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	got := decode[map[string]any](t, resp)
	assert.Equal(t, map[string]any{"translatedText": "ja:Hello", "detectedLanguage": "en"}, got)
}

func TestTranslateValidation(t *testing.T) {
	p := &stubProvider{}
	srv := newTestServer(t, p, nil, config.RateLimitConfig{})

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"empty text", `{"text":"","targetLanguage":"ja"}`, "text", "Text is required"},
		{"too long", `{"text":"` + strings.Repeat("a", 5001) + `","targetLanguage":"ja"}`, "text", "Text is too long"},
		{"unknown target", `{"text":"Hi","targetLanguage":"xx"}`, "targetLanguage", ""},
		{"wrong type", `{"text":5,"targetLanguage":"ja"}`, "text", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/api/translate", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			tree := decode[struct {
				Errors     []string `json:"errors"`
				Properties map[string]struct {
					Errors []string `json:"errors"`
				} `json:"properties"`
			}](t, resp)
			require.Contains(t, tree.Properties, tt.field)
			if tt.msg != "" {
				assert.Equal(t, []string{tt.msg}, tree.Properties[tt.field].Errors)
			}
		})
	}
	assert.Empty(t, p.calls, "invalid requests never reach the provider")
}

func TestTranslateProviderFailureIsGeneric(t *testing.T) {
	srv := newTestServer(t, &stubProvider{fail: map[lang.Code]bool{lang.Japanese: true}}, nil, config.RateLimitConfig{})

	resp := post(t, srv, "/api/translate", `{"text":"Hello","targetLanguage":"ja"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Translation failed"}`, string(body))
	assert.NotContains(t, string(body), "sk-123")
}

func TestTranslateMalformedBody(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})
	resp := post(t, srv, "/api/translate", `{"text":`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = post(t, srv, "/api/translate", `[1,2]`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})
	resp, err := srv.Client().Get(srv.URL + "/api/translate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// sessionClient returns a client that keeps cookies between requests.
func sessionClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Transport: srv.Client().Transport}
}

func TestSettingsAreScopedToTheSession(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})
	alice := sessionClient(t, srv)
	bob := sessionClient(t, srv)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/settings",
		strings.NewReader(`{"motherLanguage":"en","destinationLanguage":"fr","commonLanguage":"en"}`))
	resp, err := alice.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = alice.Get(srv.URL + "/api/settings")
	require.NoError(t, err)
	got := decode[settings.Settings](t, resp)
	resp.Body.Close()
	assert.Equal(t, settings.Settings{MotherLanguage: "en", DestinationLanguage: "fr", CommonLanguage: "en"}, got)

	resp, err = bob.Get(srv.URL + "/api/settings")
	require.NoError(t, err)
	got = decode[settings.Settings](t, resp)
	resp.Body.Close()
	assert.Equal(t, settings.Default(), got)
}

func TestPutSettingsValidation(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/settings",
		strings.NewReader(`{"motherLanguage":"xx","destinationLanguage":"fr","commonLanguage":"en"}`))
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDualTranslate(t *testing.T) {
	p := &stubProvider{}
	srv := newTestServer(t, p, nil, config.RateLimitConfig{})
	c := sessionClient(t, srv)

	resp, err := c.Post(srv.URL+"/api/translate/dual", "application/json", strings.NewReader(`{"text":"你好"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[message.DualTranslateResponse](t, resp)
	assert.Equal(t, "ja:你好", got.Primary.TranslatedText)
	require.NotNil(t, got.Secondary)
	assert.Equal(t, "en:你好", got.Secondary.TranslatedText)
	assert.Equal(t, lang.English, got.SecondaryLanguage)
}

func TestDualTranslateErrors(t *testing.T) {
	p := &stubProvider{fail: map[lang.Code]bool{lang.Japanese: true}}
	srv := newTestServer(t, p, nil, config.RateLimitConfig{})

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"blank text", `{"text":"   "}`, http.StatusBadRequest, `{"error":"Text is required"}`},
		{"unconfigured target", `{"text":"hi","targetLanguage":"fr"}`, http.StatusUnprocessableEntity, ""},
		{"provider failure", `{"text":"hi"}`, http.StatusInternalServerError, `{"error":"Translation failed"}`},
		{"malformed", `{"text":`, http.StatusBadRequest, ""},
		{"unknown target", `{"text":"hi","targetLanguage":"xx"}`, http.StatusUnprocessableEntity, ""},
		{"wrong type", `{"text":5}`, http.StatusUnprocessableEntity, `{"errors":[],"properties":{"text":{"errors":["Invalid input: expected string"]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/api/translate/dual", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.want != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.JSONEq(t, tt.want, string(body))
			}
		})
	}
}

func TestSwaggerDocCoversRoutes(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})

	resp, err := srv.Client().Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc := decode[struct {
		Paths map[string]map[string]any `json:"paths"`
	}](t, resp)

	routes := map[string][]string{
		"/api/translate":      {"post"},
		"/api/translate/dual": {"post"},
		"/api/settings":       {"get", "put"},
		"/api/languages":      {"get"},
		"/api/tts":            {"post"},
		"/api/transcribe":     {"post"},
	}
	assert.Len(t, doc.Paths, len(routes))
	for path, methods := range routes {
		for _, m := range methods {
			assert.Contains(t, doc.Paths[path], m, "%s %s", m, path)
		}
	}
}

func TestLanguages(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})

	resp, err := srv.Client().Get(srv.URL + "/api/languages?ui=zh")
	require.NoError(t, err)
	defer resp.Body.Close()

	got := decode[[]map[string]string](t, resp)
	require.Len(t, got, len(lang.Codes()))
	assert.Equal(t, map[string]string{"code": "ja", "name": "日本語", "nameEn": "Japanese", "nameZh": "日语", "label": "日语"}, got[2])
}

func TestTTS(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})
		resp := post(t, srv, "/api/tts", `{"text":"hi","language":"en"}`)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("audio", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{}, &transport.Backend{Synthesizer: &stubSynth{}}, config.RateLimitConfig{})
		resp := post(t, srv, "/api/tts", `{"text":"hi","language":"en"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "audio/wav", resp.Header.Get("Content-Type"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "RIFF....", string(body))
	})

	t.Run("no voice", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{}, &transport.Backend{Synthesizer: &stubSynth{err: tts.ErrNoVoice}}, config.RateLimitConfig{})
		resp := post(t, srv, "/api/tts", `{"text":"hi","language":"tl"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("too long", func(t *testing.T) {
		srv := newTestServer(t, &stubProvider{}, &transport.Backend{Synthesizer: &stubSynth{}}, config.RateLimitConfig{})
		resp := post(t, srv, "/api/tts", `{"text":"`+strings.Repeat("a", 2001)+`","language":"en"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestTranscribe(t *testing.T) {
	tr := &stubTranscriber{}
	srv := newTestServer(t, &stubProvider{}, &transport.Backend{Transcriber: tr}, config.RateLimitConfig{})

	resp, err := srv.Client().Post(srv.URL+"/api/transcribe?language=fr-FR", "audio/webm", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[message.TranscribeResponse](t, resp)
	assert.Equal(t, "bonjour", got.Text)
	assert.Equal(t, lang.French, got.Language)
	require.NotNil(t, got.Confidence)
	assert.Equal(t, "audio/webm", tr.gotType)
	assert.Equal(t, lang.French, tr.gotOpts.Language)

	resp2, err := srv.Client().Post(srv.URL+"/api/transcribe", "audio/webm", strings.NewReader(""))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/languages", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, &stubProvider{}, nil, config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for range 3 {
		resp, err := srv.Client().Get(srv.URL + "/api/languages")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	l := newRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Now()
	assert.True(t, l.allow("a", now))
	assert.True(t, l.allow("b", now.Add(2*clientIdle)))
	assert.NotContains(t, l.clients, "a")
}
