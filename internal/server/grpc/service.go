package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct values whose fields mirror the HTTP
// JSON bodies, so no generated code is needed on either side.
const ServiceName = "saltgate.v1.AuthService"

const (
	methodGetSalt  = "/" + ServiceName + "/GetSalt"
	methodRegister = "/" + ServiceName + "/Register"
	methodLogin    = "/" + ServiceName + "/Login"
	methodProfile  = "/" + ServiceName + "/Profile"
)

// AuthServer is the server API for saltgate.v1.AuthService.
type AuthServer interface {
	GetSalt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Profile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AuthServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name, fullMethod string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(AuthServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AuthServiceDesc describes saltgate.v1.AuthService for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetSalt", methodGetSalt, AuthServer.GetSalt),
		unaryMethod("Register", methodRegister, AuthServer.Register),
		unaryMethod("Login", methodLogin, AuthServer.Login),
		unaryMethod("Profile", methodProfile, AuthServer.Profile),
	},
	Streams: []grpc.StreamDesc{},
}

// AuthClient calls saltgate.v1.AuthService over an existing connection.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func (c *AuthClient) invoke(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) GetSalt(ctx context.Context, username string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetSalt, map[string]any{"username": username}, opts...)
}

func (c *AuthClient) Register(ctx context.Context, username, email, clientHash string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodRegister, map[string]any{"username": username, "email": email, "clientHash": clientHash}, opts...)
}

func (c *AuthClient) Login(ctx context.Context, username, clientHash, nonce string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodLogin, map[string]any{"username": username, "clientHash": clientHash, "nonce": nonce}, opts...)
}

func (c *AuthClient) Profile(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodProfile, map[string]any{}, opts...)
}
