// Package transport defines the interface for pluggable API transports.
//
// Each transport (HTTP, gRPC) implements this interface and serves the same
// Backend. Transports only translate between their wire format and the
// backend's operations.
package transport

import (
	"context"
	"log/slog"

	"github.com/nadzzz/lovtrans/internal/orchestrator"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/stt"
	"github.com/nadzzz/lovtrans/internal/tts"
)

// Backend is the set of services a transport exposes.
type Backend struct {
	Orchestrator *orchestrator.Orchestrator

	// Settings persists per-session language settings.
	Settings settings.KV

	// Synthesizer and Transcriber are nil when the speech service is disabled.
	Synthesizer tts.Synthesizer
	Transcriber stt.Transcriber

	Logger *slog.Logger
}

// SessionStore returns the settings store of one server-side session.
func (b *Backend) SessionStore(sessionID string) *settings.Store {
	return settings.NewStore(b.Settings, settings.SessionKey(sessionID), b.logger())
}

func (b *Backend) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen starts serving the backend. It blocks until the context is
	// cancelled.
	Listen(ctx context.Context, backend *Backend) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
