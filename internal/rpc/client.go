package rpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls the Transcoder service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// CallOption selects per-call behaviour carried in metadata.
type CallOption func(metadata.MD)

// WithCodec selects the alphabet by name.
func WithCodec(name string) CallOption {
	return func(md metadata.MD) { md.Set(CodecHeader, name) }
}

// WithStrict toggles strict decoding.
func WithStrict(strict bool) CallOption {
	return func(md metadata.MD) { md.Set(StrictHeader, strconv.FormatBool(strict)) }
}

func (c *Client) outgoing(ctx context.Context, opts []CallOption) context.Context {
	if len(opts) == 0 {
		return ctx
	}
	md := metadata.MD{}
	for _, opt := range opts {
		opt(md)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []CallOption) error {
	return c.cc.Invoke(c.outgoing(ctx, opts), "/"+ServiceName+"/"+method, in, out)
}

func (c *Client) Encode(ctx context.Context, in []byte, opts ...CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, "Encode", wrapperspb.Bytes(in), out, opts); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) Decode(ctx context.Context, in string, opts ...CallOption) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "Decode", wrapperspb.String(in), out, opts); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *Client) NeedsEscaping(ctx context.Context, in []byte) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.invoke(ctx, "NeedsEscaping", wrapperspb.Bytes(in), out, nil); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) Hexify(ctx context.Context, in []byte) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, "Hexify", wrapperspb.Bytes(in), out, nil); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *Client) Unhexify(ctx context.Context, in string) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "Unhexify", wrapperspb.String(in), out, nil); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}
