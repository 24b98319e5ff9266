package indexer

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/blobledger/indexer/internal/grpc_utils"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ConnectionStatus interface {
	Status() nats.Status
}

// Server exposes the gRPC health protocol for the indexer.
type Server struct {
	*grpc_utils.GrpcServer

	logger        *slog.Logger
	store         Pinger
	mqConn        ConnectionStatus
	watchInterval time.Duration
}

// WithWatchInterval sets how often an open health watch re-evaluates the status.
func WithWatchInterval(d time.Duration) func(*Server) {
	return func(s *Server) {
		s.watchInterval = d
	}
}

func NewServer(logger *slog.Logger, store Pinger, mqConn ConnectionStatus, cfg grpc_utils.ServerConfig, opts ...func(*Server)) (*Server, error) {
	logger = logger.With(slog.String("module", "server"))

	s := &Server{
		logger:        logger,
		store:         store,
		mqConn:        mqConn,
		watchInterval: watchIntervalDefault,
	}
	for _, opt := range opts {
		opt(s)
	}

	grpcServer, err := grpc_utils.NewGrpcServer(logger, cfg, s)
	if err != nil {
		return nil, err
	}
	s.GrpcServer = grpcServer

	return s, nil
}
