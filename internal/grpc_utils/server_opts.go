package grpc_utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	prometheusclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrGRPCFailedToRegisterPanics  = errors.New("failed to register panics total metric")
	ErrGRPCFailedToRegisterMetrics = errors.New("failed to register server metrics")
)

func GetGRPCServerOpts(logger *slog.Logger, cfg ServerConfig) (*prometheus.ServerMetrics, []grpc.ServerOption, func(), error) {
	rpcLogger := logger.With(slog.String("service", "gRPC/server"))

	srvMetrics := prometheus.NewServerMetrics(
		prometheus.WithServerHandlingTimeHistogram(
			prometheus.WithHistogramBuckets([]float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30, 60, 90, 120}),
		),
	)

	panicsTotal := prometheusclient.NewCounter(prometheusclient.CounterOpts{
		Name: fmt.Sprintf("grpc_req_panics_recovered_%s_total", cfg.Name),
		Help: "Total number of gRPC requests recovered from internal panic.",
	})

	err := prometheusclient.Register(panicsTotal)
	if err != nil {
		return nil, nil, nil, errors.Join(ErrGRPCFailedToRegisterPanics, err)
	}

	cleanup := func() {
		prometheusclient.Unregister(panicsTotal)
	}

	opts := make([]grpc.ServerOption, 0)

	if cfg.TracingConfig.IsEnabled() {
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}

	grpcPanicRecoveryHandler := func(p any) (err error) {
		panicsTotal.Inc()
		rpcLogger.Error("recovered from panic", "panic", p, "stack", debug.Stack())
		return status.Errorf(codes.Internal, "%s", p)
	}

	var chainUnaryInterceptors []grpc.UnaryServerInterceptor

	if cfg.PrometheusEndpoint != "" {
		err = prometheusclient.Register(srvMetrics)
		if err != nil {
			cleanup()
			return nil, nil, nil, errors.Join(ErrGRPCFailedToRegisterMetrics, err)
		}
		cleanup = func() {
			prometheusclient.Unregister(panicsTotal)
			prometheusclient.Unregister(srvMetrics)
		}

		exemplarFromContext := func(ctx context.Context) prometheusclient.Labels {
			if span := trace.SpanContextFromContext(ctx); span.IsSampled() {
				return prometheusclient.Labels{"traceID": span.TraceID().String()}
			}
			return nil
		}
		chainUnaryInterceptors = append(chainUnaryInterceptors, srvMetrics.UnaryServerInterceptor(prometheus.WithExemplarFromContext(exemplarFromContext)))
	}

	// recovery has to run after the metrics interceptor so that panics are counted as failed requests
	chainUnaryInterceptors = append(chainUnaryInterceptors,
		recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(grpcPanicRecoveryHandler)))

	opts = append(opts, grpc.ChainUnaryInterceptor(chainUnaryInterceptors...))
	if cfg.MaxMsgSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(cfg.MaxMsgSize))
	}

	return srvMetrics, opts, cleanup, nil
}
