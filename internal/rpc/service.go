// Package rpc exposes the alphabet transcoders and the $HEX[...] policy as
// a gRPC service.
//
// The service has no generated stubs; its descriptor is declared here and
// every message is a protobuf well-known wrapper type.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/RowanDark/hexkit/internal/cipher"
	"github.com/RowanDark/hexkit/internal/codec"
	"github.com/RowanDark/hexkit/internal/hexify"
	"github.com/RowanDark/hexkit/internal/logging"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "hexkit.v1.Transcoder"

// Metadata keys read by the service.
const (
	CodecHeader  = "x-hexkit-codec"
	StrictHeader = "x-hexkit-strict"
)

// TranscoderServer is the server API of the Transcoder service.
type TranscoderServer interface {
	Encode(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Decode(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	NeedsEscaping(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error)
	Hexify(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Unhexify(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// Server implements TranscoderServer on top of a cipher registry.
type Server struct {
	registry *cipher.Registry
	codec    codec.Alphabet
	policy   hexify.Policy
	logger   *zap.Logger
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithRegistry overrides the registry operations run against.
func WithRegistry(r *cipher.Registry) ServerOption {
	return func(s *Server) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithDefaultCodec sets the alphabet used when a call carries no codec header.
func WithDefaultCodec(a codec.Alphabet) ServerOption {
	return func(s *Server) {
		if a != nil {
			s.codec = a
		}
	}
}

// WithPolicy sets the escaping policy.
func WithPolicy(p hexify.Policy) ServerOption {
	return func(s *Server) {
		s.policy = p
	}
}

// WithLogger overrides the server logger.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer constructs a Transcoder server.
func NewServer(opts ...ServerOption) *Server {
	srv := &Server{
		registry: cipher.Default,
		codec:    codec.Base64,
		policy:   hexify.DefaultPolicy(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Register attaches the service to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv TranscoderServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Encode renders the request bytes in the selected alphabet.
func (s *Server) Encode(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	a, _, err := s.callOptions(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.registry.Execute(ctx, fmt.Sprint(a)+"_encode", req.GetValue(), nil)
	if err != nil {
		return nil, s.statusFor(ctx, err)
	}
	return wrapperspb.String(string(out)), nil
}

// Decode reverses Encode. With the strict header set, symbols outside the
// alphabet are rejected instead of decoding as zero.
func (s *Server) Decode(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	a, strict, err := s.callOptions(ctx)
	if err != nil {
		return nil, err
	}
	in := []byte(req.GetValue())
	out, err := s.registry.Execute(ctx, fmt.Sprint(a)+"_decode", in, map[string]interface{}{"strict": strict})
	if err != nil {
		s.logger.Debug("decode rejected", logging.CandidateWith(s.policy, "input", in), zap.Error(err))
		return nil, s.statusFor(ctx, err)
	}
	return wrapperspb.Bytes(out), nil
}

// NeedsEscaping reports whether the bytes must travel as an envelope.
func (s *Server) NeedsEscaping(_ context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.policy.Needs(req.GetValue())), nil
}

// Hexify renders the bytes as a field under the server policy.
func (s *Server) Hexify(_ context.Context, req *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(string(s.policy.Render(req.GetValue()))), nil
}

// Unhexify decodes a $HEX[...] envelope.
func (s *Server) Unhexify(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	in := []byte(req.GetValue())
	if !hexify.IsHexify(in) {
		return nil, status.Error(codes.InvalidArgument, "value is not a $HEX[...] envelope")
	}
	return wrapperspb.Bytes(s.policy.Parse(in)), nil
}

func (s *Server) callOptions(ctx context.Context) (codec.Alphabet, bool, error) {
	a, strict := s.codec, false
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return a, strict, nil
	}
	if vals := md.Get(CodecHeader); len(vals) > 0 {
		var found bool
		if a, found = codec.Lookup(vals[0]); !found {
			return nil, false, status.Errorf(codes.InvalidArgument, "unknown codec %q (known: %s)",
				vals[0], strings.Join(codec.Names(), ", "))
		}
	}
	if vals := md.Get(StrictHeader); len(vals) > 0 {
		switch strings.ToLower(strings.TrimSpace(vals[0])) {
		case "1", "true", "yes":
			strict = true
		}
	}
	return a, strict, nil
}

func (s *Server) statusFor(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return status.FromContextError(ctxErr).Err()
	}
	switch {
	case errors.Is(err, cipher.ErrInvalidSymbol):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, cipher.ErrUnknownOperation):
		return status.Error(codes.Unimplemented, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func unaryHandler[Req any, Resp any](call func(TranscoderServer, context.Context, *Req) (*Resp, error), method string) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TranscoderServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(TranscoderServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the Transcoder service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranscoderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Encode", Handler: unaryHandler(TranscoderServer.Encode, "Encode")},
		{MethodName: "Decode", Handler: unaryHandler(TranscoderServer.Decode, "Decode")},
		{MethodName: "NeedsEscaping", Handler: unaryHandler(TranscoderServer.NeedsEscaping, "NeedsEscaping")},
		{MethodName: "Hexify", Handler: unaryHandler(TranscoderServer.Hexify, "Hexify")},
		{MethodName: "Unhexify", Handler: unaryHandler(TranscoderServer.Unhexify, "Unhexify")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hexkit/v1/transcoder.proto",
}
