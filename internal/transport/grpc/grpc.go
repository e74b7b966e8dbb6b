// Package grpc implements the gRPC transport for lovtrans.
//
// The Translator service carries google.protobuf.Struct payloads whose field
// names match the JSON API, so clients need no generated stubs. The standard
// gRPC health service is registered alongside it.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/lovtrans/internal/config"
	"github.com/nadzzz/lovtrans/internal/transport"
)

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport.
func New(cfg config.GRPCConfig) *Transport {
	return &Transport{port: cfg.Port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Server builds the gRPC server with the Translator and health services
// registered. The health status is SERVING until Close.
func (t *Transport) Server(b *transport.Backend) *grpc.Server {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	t.server = grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary(logger)))
	RegisterTranslatorServer(t.server, &translatorServer{backend: b, logger: logger})

	t.health = health.NewServer()
	t.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(t.server, t.health)
	return t.server
}

// Listen starts the gRPC server and serves the backend.
func (t *Transport) Listen(ctx context.Context, b *transport.Backend) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	srv := t.Server(b)
	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.stop()
	}()

	return srv.Serve(lis)
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.stop()
	return nil
}

func (t *Transport) stop() {
	if t.health != nil {
		t.health.Shutdown()
	}
	if t.server != nil {
		t.server.GracefulStop()
	}
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
