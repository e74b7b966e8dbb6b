// Package http implements the HTTP transport for lovtrans.
//
// This transport exposes the JSON translation API used by web clients,
// session-scoped language settings, the speech endpoints and the Swagger UI.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/lovtrans/docs" // registers the OpenAPI spec
	"github.com/nadzzz/lovtrans/internal/config"
	"github.com/nadzzz/lovtrans/internal/transport"
)

const (
	defaultMaxBodyBytes = 1 << 20
	maxAudioBytes       = 25 << 20
)

// Transport implements transport.Transport over HTTP.
type Transport struct {
	cfg    config.HTTPConfig
	limits config.RateLimitConfig
	server *http.Server
}

// New creates a new HTTP transport.
func New(cfg config.HTTPConfig, limits config.RateLimitConfig) *Transport {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Transport{cfg: cfg, limits: limits}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the routed and instrumented API handler.
func (t *Transport) Handler(b *transport.Backend) http.Handler {
	a := &api{
		backend:      b,
		logger:       b.Logger,
		maxBodyBytes: t.cfg.MaxBodyBytes,
		secureCookie: t.cfg.SecureCookie,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/translate", a.handleTranslate)
	mux.HandleFunc("POST /api/translate/dual", a.handleDualTranslate)
	mux.HandleFunc("GET /api/settings", a.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", a.handlePutSettings)
	mux.HandleFunc("GET /api/languages", a.handleLanguages)
	mux.HandleFunc("POST /api/tts", a.handleTTS)
	mux.HandleFunc("POST /api/transcribe", a.handleTranscribe)

	// Swagger UI over the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	var h http.Handler = mux
	if t.limits.Enabled {
		h = newRateLimiter(t.limits).middleware(h)
	}
	h = observe(a.logger, h)
	return withRequestID(h)
}

// Listen starts the HTTP server and serves the backend.
func (t *Transport) Listen(ctx context.Context, b *transport.Backend) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.cfg.Port),
		Handler:           t.Handler(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.cfg.Port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
