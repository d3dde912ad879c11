package encounterserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "encounter.v1.EncounterService"

// EncounterServer is the server API. Every message is a structpb.Struct.
type EncounterServer interface {
	// Start takes {encounter, party | character_ids} and returns {session_id, result, wave}.
	Start(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Submit takes {session_id, action: {kind, actor, target, ability}} and returns {result}.
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Current takes {session_id} and returns the session snapshot.
	Current(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// PartyInfo takes {session_id} and returns {current_wave, total_waves}.
	PartyInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(EncounterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EncounterServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EncounterServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes EncounterServer for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EncounterServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Start", EncounterServer.Start),
		unary("Submit", EncounterServer.Submit),
		unary("Current", EncounterServer.Current),
		unary("PartyInfo", EncounterServer.PartyInfo),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "encounter/v1/encounter.proto",
}

// Register registers srv on s.
func Register(s grpc.ServiceRegistrar, srv EncounterServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls EncounterService over a client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Start begins an encounter.
func (c *Client) Start(ctx context.Context, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Start", in, opts...)
}

// Submit sends an action.
func (c *Client) Submit(ctx context.Context, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Submit", in, opts...)
}

// Current fetches the session snapshot.
func (c *Client) Current(ctx context.Context, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Current", in, opts...)
}

// PartyInfo fetches the wave position.
func (c *Client) PartyInfo(ctx context.Context, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PartyInfo", in, opts...)
}
