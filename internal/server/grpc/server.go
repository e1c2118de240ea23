// Package grpc exposes the auth flows as saltgate.v1.AuthService next to
// the standard gRPC health service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/saltgate/internal/logging"
	"github.com/dmitrijs2005/saltgate/internal/server/auth"
	"github.com/dmitrijs2005/saltgate/internal/server/models"
	"github.com/dmitrijs2005/saltgate/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type UserService interface {
	GetSalt(ctx context.Context, userName string) (string, bool, error)
	Register(ctx context.Context, userName, email, clientHash string) (*models.User, error)
	Login(ctx context.Context, userName, clientHash, nonce string) (*services.LoginResult, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address string
	users   UserService
	tokens  TokenVerifier
	logger  logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, us UserService, tv TokenVerifier) *GRPCServer {
	return &GRPCServer{
		address: address,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		tokens:  tv,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on an existing listener until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv.RegisterService(&AuthServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			hs.Shutdown()
			srv.GracefulStop()
		case <-done:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	err := srv.Serve(listen)
	close(done)
	<-stopped
	return err
}
