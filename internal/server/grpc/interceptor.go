package grpc

import (
	"context"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type ctxKey struct{}

var protectedMethods = map[string]bool{
	methodProfile: true,
}

// claimsFromContext returns the claims attached by accessTokenInterceptor.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*auth.Claims)
	return c, ok
}

// accessTokenInterceptor guards protected methods with the bearer token
// in the "authorization" metadata entry.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	token, err := common.ParseBearer(header)
	if err != nil {
		return nil, toStatus(err)
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, toStatus(common.ErrInvalidToken)
	}

	return handler(context.WithValue(ctx, ctxKey{}, claims), req)
}
