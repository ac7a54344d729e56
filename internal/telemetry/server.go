package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server serves the health service on a TCP listener.
type Server struct {
	grpc     *grpc.Server
	listener net.Listener
	reporter *HealthReporter
	logger   zerolog.Logger
}

// Listen binds addr and registers reporter's health service. Use port 0 to
// pick a free port; Addr reports the result.
func Listen(addr string, reporter *HealthReporter, logger zerolog.Logger) (*Server, error) {
	if reporter == nil {
		return nil, errors.New("health reporter is required")
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, reporter.Server())

	return &Server{grpc: srv, listener: lis, reporter: reporter, logger: logger}, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve blocks until ctx is done, then stops gracefully. It returns nil on
// cancellation.
func (s *Server) Serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpc.Serve(s.listener)
	}()
	s.logger.Info().Str("addr", s.Addr()).Str("service", SchedulerService).Msg("health server listening")

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve health: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.reporter.Shutdown()
		s.grpc.GracefulStop()
		<-serveErr
		s.logger.Info().Str("addr", s.Addr()).Msg("health server stopped")
		return nil
	}
}
