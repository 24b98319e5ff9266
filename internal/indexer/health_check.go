package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const (
	readiness            = "readiness"
	watchIntervalDefault = 5 * time.Second
)

func (s *Server) List(ctx context.Context, _ *grpc_health_v1.HealthListRequest) (*grpc_health_v1.HealthListResponse, error) {
	mqStatus := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if s.mqConnected() {
		mqStatus = grpc_health_v1.HealthCheckResponse_SERVING
	}

	storeStatus := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if s.store.Ping(ctx) == nil {
		storeStatus = grpc_health_v1.HealthCheckResponse_SERVING
	}

	return &grpc_health_v1.HealthListResponse{
		Statuses: map[string]*grpc_health_v1.HealthCheckResponse{
			"server": {Status: grpc_health_v1.HealthCheckResponse_SERVING},
			"mq":     {Status: mqStatus},
			"store":  {Status: storeStatus},
		},
	}, nil
}

func (s *Server) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	s.logger.Debug("checking health", slog.String("service", req.Service))

	return &grpc_health_v1.HealthCheckResponse{Status: s.status(ctx, req.Service)}, nil
}

// Watch sends the current status and then every change of it until the client goes away.
func (s *Server) Watch(req *grpc_health_v1.HealthCheckRequest, server grpc_health_v1.Health_WatchServer) error {
	s.logger.Info("watching health", slog.String("service", req.Service))

	ctx := server.Context()
	current := s.status(ctx, req.Service)

	err := server.Send(&grpc_health_v1.HealthCheckResponse{Status: current})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(s.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next := s.status(ctx, req.Service)
			if next == current {
				continue
			}

			current = next
			err = server.Send(&grpc_health_v1.HealthCheckResponse{Status: current})
			if err != nil {
				return err
			}
		}
	}
}

// status reports liveness unconditionally. Readiness requires the store and the message queue.
func (s *Server) status(ctx context.Context, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if service != readiness {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}

	err := s.store.Ping(ctx)
	if err != nil {
		s.logger.Error("no connection to DB", slog.String("err", err.Error()))
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	if !s.mqConnected() {
		s.logger.Error("message queue not connected")
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}

	return grpc_health_v1.HealthCheckResponse_SERVING
}

func (s *Server) mqConnected() bool {
	return s.mqConn != nil && s.mqConn.Status() == nats.CONNECTED
}
