// Package grpcapi serves scouts over gRPC.
//
// The service is declared by hand and speaks well-known protobuf types, so
// no generated code is needed:
//
//	service ScoutService {
//	  rpc Scout(google.protobuf.Struct) returns (google.protobuf.BytesValue);
//	  rpc Draw(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
//
// Request fields: box (string), count (number), guaranteed (bool),
// filter (struct of dimension to list of strings), rows (number),
// align (bool), labels (bool).
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "scout.v1.ScoutService"

// ScoutServiceServer is the server API for ScoutService.
type ScoutServiceServer interface {
	Scout(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	Draw(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterScoutServiceServer(s grpc.ServiceRegistrar, srv ScoutServiceServer) {
	s.RegisterService(&ScoutServiceDesc, srv)
}

var ScoutServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Scout", Handler: scoutHandler},
		{MethodName: "Draw", Handler: drawHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scout/v1/scout.proto",
}

func scoutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoutServiceServer).Scout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Scout"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScoutServiceServer).Scout(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func drawHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScoutServiceServer).Draw(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Draw"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScoutServiceServer).Draw(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls ScoutService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) Scout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Scout", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Draw(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Draw", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
