package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nadzzz/lovtrans/internal/transport"
	"github.com/nadzzz/lovtrans/internal/validate"
)

// ServiceName is the fully qualified Translator service name.
const ServiceName = "lovtrans.v1.Translator"

const (
	translateMethod = "/" + ServiceName + "/Translate"
	detectMethod    = "/" + ServiceName + "/DetectLanguage"
)

// TranslatorServer is the server API for the Translator service.
//
// Translate takes {text, sourceLanguage?, targetLanguage} and returns
// {translatedText, detectedLanguage?}. DetectLanguage takes {text} and
// returns {language}.
type TranslatorServer interface {
	Translate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DetectLanguage(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterTranslatorServer registers srv with s.
func RegisterTranslatorServer(s grpc.ServiceRegistrar, srv TranslatorServer) {
	s.RegisterService(&translatorServiceDesc, srv)
}

var translatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranslatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Translate", Handler: unaryHandler(translateMethod, TranslatorServer.Translate)},
		{MethodName: "DetectLanguage", Handler: unaryHandler(detectMethod, TranslatorServer.DetectLanguage)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lovtrans/v1/translator.proto",
}

type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

func unaryHandler(fullMethod string, call func(TranslatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TranslatorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TranslatorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TranslatorClient calls the Translator service.
type TranslatorClient struct {
	cc grpc.ClientConnInterface
}

// NewTranslatorClient returns a client over cc.
func NewTranslatorClient(cc grpc.ClientConnInterface) *TranslatorClient {
	return &TranslatorClient{cc: cc}
}

// Translate calls Translator/Translate.
func (c *TranslatorClient) Translate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, translateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DetectLanguage calls Translator/DetectLanguage.
func (c *TranslatorClient) DetectLanguage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, detectMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type translatorServer struct {
	backend *transport.Backend
	logger  *slog.Logger
}

func (s *translatorServer) Translate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "request is not valid JSON")
	}
	req, err := validate.DecodeTranslateRequest(data)
	if err != nil {
		return nil, invalidArgument(err)
	}

	res, err := s.backend.Orchestrator.TranslateSingle(ctx, req)
	if err != nil {
		s.logger.Error("translation failed", "target", req.TargetLanguage, "error", err)
		return nil, status.Error(codes.Internal, "Translation failed")
	}

	out := map[string]any{"translatedText": res.TranslatedText}
	if res.DetectedLanguage != "" {
		out["detectedLanguage"] = string(res.DetectedLanguage)
	}
	return structpb.NewStruct(out)
}

func (s *translatorServer) DetectLanguage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	text := in.GetFields()["text"].GetStringValue()
	if strings.TrimSpace(text) == "" {
		return nil, invalidArgument(&validate.Error{Issues: []validate.Issue{{
			Path:    "text",
			Code:    validate.CodeTooSmall,
			Message: "Text is required",
		}}})
	}
	code := s.backend.Orchestrator.DetectLanguage(ctx, text)
	return structpb.NewStruct(map[string]any{"language": string(code)})
}

// invalidArgument converts a validation failure into an InvalidArgument
// status with one field violation per issue.
func invalidArgument(err error) error {
	var verr *validate.Error
	if !errors.As(err, &verr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	br := &errdetails.BadRequest{}
	for _, is := range verr.Issues {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       is.Path,
			Description: is.Message,
		})
	}
	st, detailErr := status.New(codes.InvalidArgument, verr.Error()).WithDetails(br)
	if detailErr != nil {
		return status.Error(codes.InvalidArgument, verr.Error())
	}
	return st.Err()
}
