package grpc_utils

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/blobledger/indexer/config"
)

var ErrServerFailedToListen = errors.New("GRPC server failed to listen")

const gracefulStopTimeoutDefault = 10 * time.Second

type ServerConfig struct {
	PrometheusEndpoint string
	MaxMsgSize         int
	TracingConfig      *config.TracingConfig
	Name               string

	// GracefulStopTimeout bounds how long open health watches may hold up a stop.
	GracefulStopTimeout time.Duration
}

// GrpcServer serves the gRPC health protocol of a single service. Reflection is registered
// so that grpcurl and health checkers can discover it.
type GrpcServer struct {
	srv *grpc.Server

	logger      *slog.Logger
	cleanup     func()
	stopTimeout time.Duration
}

func NewGrpcServer(logger *slog.Logger, cfg ServerConfig, health grpc_health_v1.HealthServer) (*GrpcServer, error) {
	metrics, grpcOpts, cleanupFn, err := GetGRPCServerOpts(logger, cfg)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer(grpcOpts...)
	grpc_health_v1.RegisterHealthServer(srv, health)
	reflection.Register(srv)

	// metrics are initialized per registered method
	metrics.InitializeMetrics(srv)

	stopTimeout := cfg.GracefulStopTimeout
	if stopTimeout <= 0 {
		stopTimeout = gracefulStopTimeoutDefault
	}

	return &GrpcServer{
		srv:         srv,
		logger:      logger,
		cleanup:     cleanupFn,
		stopTimeout: stopTimeout,
	}, nil
}

// ListenAndServe serves in the background and returns the bound address, which carries the
// chosen port when address asks for port 0.
func (s *GrpcServer) ListenAndServe(address string) (net.Addr, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.Join(ErrServerFailedToListen, fmt.Errorf("address %s: %w", address, err))
	}

	go func() {
		s.logger.Info("GRPC server listening", slog.String("address", listener.Addr().String()))
		serveErr := s.srv.Serve(listener)
		if serveErr != nil {
			s.logger.Error("GRPC server failed to serve", slog.String("err", serveErr.Error()))
		}
	}()

	return listener.Addr(), nil
}

// GracefulStop waits for running calls. Streams still open after the stop timeout are closed.
func (s *GrpcServer) GracefulStop() {
	s.logger.Info("Shutting down gRPC server")

	stopped := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(s.stopTimeout):
		s.logger.Warn("gRPC server did not stop in time, closing open streams", slog.String("timeout", s.stopTimeout.String()))
		s.srv.Stop()
		<-stopped
	}

	if s.cleanup != nil {
		s.cleanup()
	}

	s.logger.Info("Shutdown gRPC server complete")
}
