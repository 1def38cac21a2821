// Package grpc runs the gRPC listener: the standard health service backed by
// a database ping, and the account service behind a bearer-token interceptor.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PrincipalResolver turns a bearer token into the current user.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type GRPCServer struct {
	address       string
	resolver      PrincipalResolver
	ping          func(context.Context) error
	checkInterval time.Duration
	health        *health.Server
	logger        logging.Logger
}

// NewGRPCServer prepares a server on address. ping is polled every
// checkInterval to drive the health status; nil means always serving.
func NewGRPCServer(address string, l logging.Logger, resolver PrincipalResolver, ping func(context.Context) error,
	checkInterval time.Duration) *GRPCServer {
	if checkInterval <= 0 {
		checkInterval = 10 * time.Second
	}
	return &GRPCServer{
		address:       address,
		resolver:      resolver,
		ping:          ping,
		checkInterval: checkInterval,
		health:        health.NewServer(),
		logger:        l.With("module", "grpc_server"),
	}
}

// updateHealth sets the overall serving status from one ping.
func (s *GRPCServer) updateHealth(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.ping != nil {
		pctx, cancel := context.WithTimeout(ctx, s.checkInterval)
		err := s.ping(pctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "database ping failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
}

func (s *GRPCServer) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.updateHealth(ctx)
		}
	}
}

// newServer creates the gRPC server and registers its services.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)
	registerAccountServer(srv, accountService{})
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	s.updateHealth(ctx)
	go s.watchHealth(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
