package rpc

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/RowanDark/hexkit/internal/codec"
)

func dialBufconn(t *testing.T, srv *Server, logger *zap.Logger) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(srv, logger)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestEncodeDecode(t *testing.T) {
	ctx := context.Background()
	client := dialBufconn(t, NewServer(), nil)

	out, err := client.Encode(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", out)

	raw, err := client.Decode(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	for _, name := range codec.Names() {
		t.Run(name, func(t *testing.T) {
			in := []byte{0x00, 0x01, 0xfe, 0xff, 'x'}
			enc, err := client.Encode(ctx, in, WithCodec(name))
			require.NoError(t, err)
			dec, err := client.Decode(ctx, enc, WithCodec(name), WithStrict(true))
			require.NoError(t, err)
			assert.Equal(t, in, dec)
		})
	}
}

func TestDefaultCodecOption(t *testing.T) {
	client := dialBufconn(t, NewServer(WithDefaultCodec(codec.Base32)), nil)

	out, err := client.Encode(context.Background(), []byte("f"))
	require.NoError(t, err)
	assert.Equal(t, "MY======", out)
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	client := dialBufconn(t, NewServer(), nil)

	_, err := client.Encode(ctx, []byte("x"), WithCodec("base58"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Decode(ctx, "a!b", WithStrict(true))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Decode(ctx, "a!b")
	assert.NoError(t, err, "lenient decode maps unknown symbols to zero")

	_, err = client.Unhexify(ctx, "plain")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestEscaping(t *testing.T) {
	ctx := context.Background()
	client := dialBufconn(t, NewServer(), nil)

	tests := []struct {
		in    []byte
		needs bool
		field string
	}{
		{[]byte("password"), false, "password"},
		{[]byte("a:b"), true, "$HEX[613a62]"},
		{[]byte{0x00, 0xff}, true, "$HEX[00ff]"},
		{[]byte("$HEX[41]"), true, "$HEX[244845585b34315d]"},
	}
	for _, tt := range tests {
		needs, err := client.NeedsEscaping(ctx, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.needs, needs, "%q", tt.in)

		field, err := client.Hexify(ctx, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.field, field)

		if tt.needs {
			back, err := client.Unhexify(ctx, field)
			require.NoError(t, err)
			assert.Equal(t, tt.in, back)
		}
	}
}

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	client := dialBufconn(t, NewServer(), zap.New(core))

	_, err := client.Encode(context.Background(), []byte("x"))
	require.NoError(t, err)
	_, _ = client.Unhexify(context.Background(), "plain")

	require.Equal(t, 2, logs.Len())
	ok := logs.All()[0]
	assert.Equal(t, "grpc call", ok.Message)
	assert.Equal(t, ServiceName, ok.ContextMap()["rpc.service"])
	assert.Equal(t, "Encode", ok.ContextMap()["rpc.method"])
	assert.Equal(t, "OK", ok.ContextMap()["code"])

	failed := logs.All()[1]
	assert.Equal(t, zapcore.WarnLevel, failed.Level)
	assert.Equal(t, "InvalidArgument", failed.ContextMap()["code"])
}

func TestSplitMethod(t *testing.T) {
	s, m := splitMethod("/hexkit.v1.Transcoder/Encode")
	assert.Equal(t, "hexkit.v1.Transcoder", s)
	assert.Equal(t, "Encode", m)

	s, m = splitMethod("bogus")
	assert.Equal(t, "bogus", s)
	assert.Empty(t, m)
}

func TestMultiplex(t *testing.T) {
	gs := NewGRPCServer(NewServer(), nil)
	t.Cleanup(gs.Stop)
	plain := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "rest")
	})
	ts := httptest.NewServer(Multiplex(gs, plain))
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "rest", string(body))

	conn, err := grpc.NewClient("passthrough:///"+strings.TrimPrefix(ts.URL, "http://"),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := NewClient(conn).Hexify(ctx, []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, "$HEX[01]", out)
}

func TestServeStopsOnCancel(t *testing.T) {
	lis := bufconn.Listen(1 << 16)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, NewGRPCServer(NewServer(), nil), lis) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeListenerFailure(t *testing.T) {
	lis := bufconn.Listen(1 << 16)
	require.NoError(t, lis.Close())

	errCh := make(chan error, 1)
	go func() { errCh <- Serve(context.Background(), NewGRPCServer(NewServer(), nil), lis) }()
	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return on a closed listener")
	}
}

func TestStopOnCancelReturnsWhenServeEnds(t *testing.T) {
	served := make(chan struct{})
	returned := make(chan struct{})
	go func() {
		stopOnCancel(context.Background(), NewGRPCServer(NewServer(), nil), served)
		close(returned)
	}()

	close(served)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown watcher outlived Serve")
	}
}
