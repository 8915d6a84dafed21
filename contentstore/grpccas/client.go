package grpccas

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/docanchor/docanchor/contentstore"
)

// Client implements contentstore.Store over the CAS gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client CASClient

	// Timeout applies per RPC when non-zero, in addition to the caller's
	// context deadline.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewWithConn(cc), nil
}

// NewWithConn wraps an existing connection (e.g. a bufconn in tests).
func NewWithConn(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewCASClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

var _ contentstore.Store = (*Client)(nil)

func (c *Client) Put(ctx context.Context, data []byte) (contentstore.Address, error) {
	if c == nil || c.client == nil {
		return "", contentstore.ErrUnavailable
	}
	expected, err := contentstore.AddressFor(data)
	if err != nil {
		return "", err
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return "", mapRPC(err)
	}
	addr, err := contentstore.ParseAddress(reply.GetValue())
	if err != nil {
		return "", err
	}
	if addr.Verifiable() && addr != expected {
		return "", contentstore.ErrAddressMismatch
	}
	return addr, nil
}

func (c *Client) Get(ctx context.Context, addr contentstore.Address) ([]byte, error) {
	if !addr.Defined() {
		return nil, contentstore.ErrInvalidAddress
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(addr.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	if addr.Verifiable() {
		got, err := contentstore.AddressFor(b)
		if err != nil {
			return nil, err
		}
		if got != addr {
			return nil, contentstore.ErrAddressMismatch
		}
	}
	return b, nil
}

func (c *Client) Has(ctx context.Context, addr contentstore.Address) bool {
	if !addr.Defined() {
		return false
	}
	ctx, cancel := c.bound(ctx)
	defer cancel()

	reply, err := c.client.Has(ctx, wrapperspb.String(addr.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

// mapRPC folds gRPC status codes into the store error taxonomy.
func mapRPC(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return contentstore.ErrNotFound
	case codes.InvalidArgument, codes.ResourceExhausted, codes.FailedPrecondition:
		return contentstore.ErrRejected
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return contentstore.ErrUnavailable
	default:
		return err
	}
}
