package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nadzzz/lovtrans/internal/orchestrator"
	"github.com/nadzzz/lovtrans/internal/provider/llm"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/stt"
	"github.com/nadzzz/lovtrans/internal/stt/whisper"
	"github.com/nadzzz/lovtrans/internal/tts"
	"github.com/nadzzz/lovtrans/internal/tts/piper"
)

// newOrchestrator wires the configured provider into an orchestrator. The
// returned func releases the provider.
func (a *app) newOrchestrator() (*orchestrator.Orchestrator, func()) {
	p := llm.New(a.cfg.Provider)
	slog.Info("using chat-completions provider",
		"base_url", a.cfg.Provider.BaseURL,
		"model", a.cfg.Provider.Model,
		"detect_fallback", p.Fallback())
	return orchestrator.New(p, slog.Default()), func() { _ = p.Close() }
}

// newKV opens the configured settings backend. A local surface has no
// session server, so the memory backend is replaced by files under
// settings.dir to keep settings across runs.
func (a *app) newKV(ctx context.Context, local bool) (settings.KV, func(), error) {
	cfg := a.cfg.Settings
	switch cfg.Backend {
	case "memory":
		if local {
			return settings.NewFileKV(cfg.Dir), func() {}, nil
		}
		return settings.NewMemoryKV(), func() {}, nil
	case "file":
		return settings.NewFileKV(cfg.Dir), func() {}, nil
	case "redis":
		kv, err := settings.NewRedisKV(ctx, settings.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown settings backend %q", cfg.Backend)
	}
}

// newSynthesizer returns nil when text-to-speech is disabled.
func (a *app) newSynthesizer() tts.Synthesizer {
	if !a.cfg.TTS.Enabled {
		return nil
	}
	slog.Info("using piper text-to-speech", "endpoint", a.cfg.TTS.Piper.Endpoint)
	return piper.New(a.cfg.TTS.Piper)
}

// newTranscriber returns nil when speech-to-text is disabled.
func (a *app) newTranscriber() stt.Transcriber {
	if !a.cfg.STT.Enabled {
		return nil
	}
	slog.Info("using whisper speech-to-text", "type", a.cfg.STT.Type, "endpoint", a.cfg.STT.Endpoint)
	return whisper.New(a.cfg.STT)
}
