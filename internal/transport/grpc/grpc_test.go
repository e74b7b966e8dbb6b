package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nadzzz/lovtrans/internal/config"
	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
	"github.com/nadzzz/lovtrans/internal/orchestrator"
	"github.com/nadzzz/lovtrans/internal/provider"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/transport"
)

type stubProvider struct {
	fail bool
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Translate(_ context.Context, req message.TranslateRequest) (*message.TranslateResponse, error) {
	if s.fail {
		return nil, &provider.Error{Status: 500, Body: "upstream exploded"}
	}
	return &message.TranslateResponse{
		TranslatedText:   "こんにちは",
		DetectedLanguage: lang.English,
	}, nil
}

func (s *stubProvider) DetectLanguage(context.Context, string) lang.Code { return lang.Korean }

func dial(t *testing.T, p *stubProvider) *grpc.ClientConn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := &transport.Backend{
		Orchestrator: orchestrator.New(p, logger),
		Settings:     settings.NewMemoryKV(),
		Logger:       logger,
	}

	lis := bufconn.Listen(1 << 20)
	tr := New(config.GRPCConfig{})
	srv := tr.Server(b)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = tr.Close() })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestTranslate(t *testing.T) {
	client := NewTranslatorClient(dial(t, &stubProvider{}))

	out, err := client.Translate(context.Background(), mustStruct(t, map[string]any{
		"text":           "Hello",
		"targetLanguage": "ja",
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"translatedText": "こんにちは", "detectedLanguage": "en"}, out.AsMap())
}

func TestTranslateInvalidArgument(t *testing.T) {
	client := NewTranslatorClient(dial(t, &stubProvider{}))

	_, err := client.Translate(context.Background(), mustStruct(t, map[string]any{
		"text":           "",
		"targetLanguage": "xx",
	}))
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())

	var fields []string
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				fields = append(fields, v.GetField())
			}
		}
	}
	assert.ElementsMatch(t, []string{"text", "targetLanguage"}, fields)
}

func TestTranslateWrongType(t *testing.T) {
	client := NewTranslatorClient(dial(t, &stubProvider{}))

	_, err := client.Translate(context.Background(), mustStruct(t, map[string]any{
		"text":           5,
		"targetLanguage": "ja",
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestTranslateProviderFailure(t *testing.T) {
	client := NewTranslatorClient(dial(t, &stubProvider{fail: true}))

	_, err := client.Translate(context.Background(), mustStruct(t, map[string]any{
		"text":           "Hello",
		"targetLanguage": "ja",
	}))
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "Translation failed", st.Message())
}

func TestDetectLanguage(t *testing.T) {
	client := NewTranslatorClient(dial(t, &stubProvider{}))

	out, err := client.DetectLanguage(context.Background(), mustStruct(t, map[string]any{"text": "안녕하세요"}))
	require.NoError(t, err)
	assert.Equal(t, "ko", out.AsMap()["language"])

	_, err = client.DetectLanguage(context.Background(), mustStruct(t, map[string]any{"text": "  "}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	hc := healthpb.NewHealthClient(dial(t, &stubProvider{}))

	resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
