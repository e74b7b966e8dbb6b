package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nadzzz/lovtrans/internal/health"
	"github.com/nadzzz/lovtrans/internal/transport"
	grpctransport "github.com/nadzzz/lovtrans/internal/transport/grpc"
	httptransport "github.com/nadzzz/lovtrans/internal/transport/http"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	cfg := a.cfg
	slog.Info("lovtrans starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orch, closeProvider := a.newOrchestrator()
	defer closeProvider()

	kv, closeKV, err := a.newKV(ctx, false)
	if err != nil {
		return err
	}
	defer closeKV()

	backend := &transport.Backend{
		Orchestrator: orch,
		Settings:     kv,
		Logger:       slog.Default(),
	}
	if synth := a.newSynthesizer(); synth != nil {
		defer synth.Close()
		backend.Synthesizer = synth
	}
	if tr := a.newTranscriber(); tr != nil {
		defer tr.Close()
		backend.Transcriber = tr
	}

	// Initialize enabled transports.
	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, cfg.RateLimit))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC))
	}
	if len(transports) == 0 {
		return errors.New("no transports enabled, enable at least one in config")
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, backend); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("lovtrans ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort,
		"tts", backend.Synthesizer != nil,
		"stt", backend.Transcriber != nil)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("lovtrans stopped")
	return nil
}
