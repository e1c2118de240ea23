package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func field(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func reply(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStatus maps service errors to gRPC codes. Messages never carry the
// wrapped cause.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrMissingToken):
		return status.Error(codes.Unauthenticated, "missing token")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.PermissionDenied, "invalid token")
	case errors.Is(err, common.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "too many requests")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) GetSalt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	salt, isNew, err := s.users.GetSalt(ctx, field(in, "username"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"success": true, "salt": salt, "isNewUser": isNew})
}

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Info(ctx, "Registration request")

	user, err := s.users.Register(ctx, field(in, "username"), field(in, "email"), field(in, "clientHash"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"success": true, "message": "user registered", "userId": user.ID})
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.users.Login(ctx, field(in, "username"), field(in, "clientHash"), field(in, "nonce"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{
		"success": true,
		"message": "login successful",
		"token":   res.Token,
		"user":    map[string]any{"id": res.User.ID, "username": res.User.UserName},
	})
}

func (s *GRPCServer) Profile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrMissingToken)
	}
	return reply(map[string]any{
		"success": true,
		"user": map[string]any{
			"id":        claims.UserID,
			"username":  claims.UserName,
			"issuedAt":  claims.IssuedAtTime().UTC().Format(time.RFC3339),
			"expiresAt": claims.ExpiresAtTime().UTC().Format(time.RFC3339),
		},
	})
}
