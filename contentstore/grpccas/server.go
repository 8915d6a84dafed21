package grpccas

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/docanchor/docanchor/contentstore"
)

// Server adapts any contentstore.Store into a CASServer.
type Server struct {
	UnimplementedCASServer
	store contentstore.Store
}

func NewServer(store contentstore.Store) *Server {
	return &Server{store: store}
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	addr, err := s.store.Put(ctx, in.GetValue())
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return wrapperspb.String(addr.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	addr, err := contentstore.ParseAddress(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid address")
	}
	b, err := s.store.Get(ctx, addr)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	addr, err := contentstore.ParseAddress(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid address")
	}
	return wrapperspb.Bool(s.store.Has(ctx, addr)), nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, contentstore.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, contentstore.ErrInvalidAddress), errors.Is(err, contentstore.ErrRejected), errors.Is(err, contentstore.ErrImmutable):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, contentstore.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
