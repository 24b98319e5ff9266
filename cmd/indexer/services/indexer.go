package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blobledger/indexer/config"
	"github.com/blobledger/indexer/internal/cache"
	"github.com/blobledger/indexer/internal/grpc_utils"
	"github.com/blobledger/indexer/internal/indexer"
	"github.com/blobledger/indexer/internal/indexer/store/postgresql"
	natscore "github.com/blobledger/indexer/internal/message_queue/nats/client/nats_core"
	natsconnection "github.com/blobledger/indexer/internal/message_queue/nats/nats_connection"
	"github.com/blobledger/indexer/pkg/tracing"
)

var (
	ErrDbConfigMissing           = errors.New("indexer db config is missing")
	ErrMessageQueueConfigMissing = errors.New("message queue config is missing")
	ErrCacheConfigMissing        = errors.New("cache config is missing")
)

// StartIndexer wires the store, cache, message queue and ingestor together. The returned
// function stops all of them, flushing whatever is still buffered.
func StartIndexer(logger *slog.Logger, cfg *config.IndexerConfig, shutdownCh chan string) (func(), error) {
	logger = logger.With(slog.String("service", "indexer"))
	logger.Info("Starting")

	idxCfg := cfg.Indexer
	if idxCfg == nil || idxCfg.Db == nil || idxCfg.Db.Postgres == nil {
		return nil, ErrDbConfigMissing
	}
	if cfg.MessageQueue == nil {
		return nil, ErrMessageQueueConfigMissing
	}
	if cfg.Cache == nil {
		return nil, ErrCacheConfigMissing
	}

	shutdownFns := make([]func(), 0)
	ingestorOpts := make([]func(*indexer.Ingestor), 0)
	var postgresOpts []func(*postgresql.PostgreSQL)

	if cfg.Tracing.IsEnabled() {
		cleanup, err := tracing.Enable(logger, "indexer", cfg.Tracing.DialAddr, cfg.Tracing.Sample)
		if err != nil {
			logger.Error("failed to enable tracing", slog.String("err", err.Error()))
		} else {
			shutdownFns = append(shutdownFns, cleanup)
		}

		attributes := cfg.Tracing.KeyValueAttributes
		hostname, err := os.Hostname()
		if err == nil {
			attributes = append(attributes, attribute.String("hostname", hostname))
		}

		ingestorOpts = append(ingestorOpts, indexer.WithTracer(attributes...))
		postgresOpts = append(postgresOpts, postgresql.WithTracer(attributes...))
	}

	var (
		indexerStore  *postgresql.PostgreSQL
		mqClient      *natscore.Client
		fanout        *indexer.BlobTxFanout
		ingestor      *indexer.Ingestor
		eventConsumer *indexer.EventConsumer
		healthServer  *indexer.Server
	)

	// reverse order of startup: stop consuming, drain what is buffered, then release connections
	stopFn := func() {
		logger.Info("Shutting down indexer")
		if healthServer != nil {
			healthServer.GracefulStop()
		}
		if eventConsumer != nil {
			eventConsumer.Shutdown()
		}
		if ingestor != nil {
			ingestor.Shutdown()
		}
		if fanout != nil {
			fanout.Shutdown()
		}
		if mqClient != nil {
			mqClient.Shutdown()
		}
		if indexerStore != nil {
			err := indexerStore.Close()
			if err != nil {
				logger.Error("Failed to close indexer store", slog.String("err", err.Error()))
			}
		}
		for _, shutdownFn := range shutdownFns {
			shutdownFn()
		}
		logger.Info("Shutdown indexer complete")
	}

	indexerStore, err := newIndexerStore(logger, idxCfg.Db.Postgres, postgresOpts...)
	if err != nil {
		stopFn()
		return nil, fmt.Errorf("failed to create indexer store: %v", err)
	}

	if idxCfg.MigrateOnStart {
		err = indexerStore.MigrateUp()
		if err != nil {
			stopFn()
			return nil, err
		}
		logger.Info("Database migrated")
	}

	cacheStore, err := cache.NewCacheStore(context.Background(), cfg.Cache)
	if err != nil {
		stopFn()
		return nil, fmt.Errorf("failed to create cache store: %v", err)
	}

	conn, err := natsconnection.New(cfg.MessageQueue.URL, logger)
	if err != nil {
		stopFn()
		return nil, fmt.Errorf("failed to establish connection to message queue at URL %s: %v", cfg.MessageQueue.URL, err)
	}
	mqClient = natscore.New(conn, natscore.WithLogger(logger))

	fanout = indexer.NewBlobTxFanout(logger, mqClient,
		indexer.WithNotificationTopic(cfg.MessageQueue.NotificationTopic),
		indexer.WithNotificationQueueSize(idxCfg.NotificationQueueSize),
	)
	fanout.Start()

	if idxCfg.HealthServerAddr != "" {
		serverCfg := grpc_utils.ServerConfig{
			MaxMsgSize:    cfg.GrpcMessageSize,
			TracingConfig: cfg.Tracing,
			Name:          "indexer",
		}
		if cfg.Prometheus.IsEnabled() {
			serverCfg.PrometheusEndpoint = cfg.Prometheus.Endpoint
		}

		healthServer, err = indexer.NewServer(logger, indexerStore, conn, serverCfg)
		if err != nil {
			stopFn()
			return nil, fmt.Errorf("create health server failed: %v", err)
		}

		_, err = healthServer.ListenAndServe(idxCfg.HealthServerAddr)
		if err != nil {
			stopFn()
			return nil, fmt.Errorf("serve health server failed: %v", err)
		}
	}

	ingestorOpts = append(ingestorOpts,
		indexer.WithBufferSize(idxCfg.BufferSize),
		indexer.WithStalenessWindow(idxCfg.StalenessWindow),
		indexer.WithEventQueueSize(idxCfg.EventQueueSize),
		indexer.WithRetryPolicy(idxCfg.RetryInterval, idxCfg.MaxRetries),
		indexer.WithStatCollectionInterval(idxCfg.StatsInterval),
		indexer.WithNotifier(fanout),
		indexer.WithTxLocator(indexer.NewCacheTxLocator(logger, cacheStore, cfg.Cache.TTL)),
		indexer.WithShutdownChannel(shutdownCh),
	)

	ingestor, err = indexer.NewIngestor(logger, indexerStore, ingestorOpts...)
	if err != nil {
		stopFn()
		return nil, err
	}
	ingestor.Start()

	if cfg.Prometheus.IsEnabled() {
		err = ingestor.StartCollectStats()
		if err != nil {
			stopFn()
			return nil, fmt.Errorf("failed to start ingestor stats collection: %v", err)
		}

		err = fanout.StartCollectStats()
		if err != nil {
			stopFn()
			return nil, fmt.Errorf("failed to start fanout stats collection: %v", err)
		}
	}

	eventConsumer = indexer.NewEventConsumer(logger, mqClient, ingestor, cfg.MessageQueue.EventTopic)
	err = eventConsumer.Start()
	if err != nil {
		stopFn()
		return nil, err
	}

	return stopFn, nil
}

func newIndexerStore(logger *slog.Logger, postgres *config.PostgresConfig, opts ...func(*postgresql.PostgreSQL)) (*postgresql.PostgreSQL, error) {
	logger.Info(fmt.Sprintf(
		"db connection: user=%s dbname=%s host=%s port=%d sslmode=%s",
		postgres.User, postgres.Name, postgres.Host, postgres.Port, postgres.SslMode,
	))

	dbInfo := fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		postgres.User, postgres.Password, postgres.Name, postgres.Host, postgres.Port, postgres.SslMode,
	)

	s, err := postgresql.New(dbInfo, postgres.MaxIdleConns, postgres.MaxOpenConns, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres DB: %v", err)
	}

	return s, nil
}
