package rpc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// NewGRPCServer returns a grpc.Server with the Transcoder registered and
// every unary call logged.
func NewGRPCServer(srv TranscoderServer, logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor(logger)))
	Register(gs, srv)
	return gs
}

// UnaryLoggingInterceptor logs method, status code and latency of each call.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		service, method := splitMethod(info.FullMethod)
		fields := []zap.Field{
			zap.String("rpc.service", service),
			zap.String("rpc.method", method),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Info("grpc call", fields...)
		}
		return resp, err
	}
}

func splitMethod(full string) (string, string) {
	full = strings.TrimPrefix(full, "/")
	parts := strings.Split(full, "/")
	if len(parts) != 2 {
		return full, ""
	}
	return parts[0], parts[1]
}

// Serve runs gs on lis until ctx is cancelled. Shutdown is graceful for up
// to two seconds, after which open calls are dropped.
func Serve(ctx context.Context, gs *grpc.Server, lis net.Listener) error {
	served := make(chan struct{})
	defer close(served)
	go stopOnCancel(ctx, gs, served)

	if err := gs.Serve(lis); err != nil {
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
	return nil
}

// stopOnCancel stops gs once ctx is done. It returns without stopping when
// served is closed first.
func stopOnCancel(ctx context.Context, gs *grpc.Server, served <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-served:
		return
	}

	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		gs.Stop()
	}
}

// Multiplex serves gRPC and plain HTTP on one cleartext listener. HTTP/2
// requests with a gRPC content type go to gs, everything else to h.
func Multiplex(gs *grpc.Server, h http.Handler) http.Handler {
	return h2c.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsGRPCRequest(r) {
			gs.ServeHTTP(w, r)
			return
		}
		h.ServeHTTP(w, r)
	}), &http2.Server{})
}

// IsGRPCRequest reports whether r is a gRPC call.
func IsGRPCRequest(r *http.Request) bool {
	return r.ProtoMajor == 2 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc")
}
