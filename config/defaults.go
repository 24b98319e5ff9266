package config

import (
	"time"
)

func getDefaultIndexerConfig() *IndexerConfig {
	return &IndexerConfig{
		LogLevel:        "INFO",
		LogFormat:       "text",
		ProfilerAddr:    "",
		GrpcMessageSize: 100000000,
		Prometheus:      getDefaultPrometheusConfig(),
		Tracing:         getDefaultTracingConfig(),
		MessageQueue:    getDefaultMessageQueueConfig(),
		Cache:           getDefaultCacheConfig(),
		Indexer:         getDefaultIngestorConfig(),
	}
}

func getDefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Enabled:  false,
		Endpoint: "/metrics",
		Addr:     ":2112",
	}
}

func getDefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		Enabled:  false,
		DialAddr: "",
		Sample:   100,
	}
}

func getDefaultMessageQueueConfig() *MessageQueueConfig {
	return &MessageQueueConfig{
		URL:               "nats://localhost:4222",
		EventTopic:        "ledger-events",
		NotificationTopic: "blob-transactions",
	}
}

func getDefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Engine: InMemory,
		TTL:    30 * time.Minute,
		Redis: &RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,

			Namespace: "indexer:",
			OpTimeout: 2 * time.Second,
		},
	}
}

func getDefaultIngestorConfig() *IngestorConfig {
	return &IngestorConfig{
		BufferSize:            100,
		StalenessWindow:       5 * time.Second,
		EventQueueSize:        100,
		NotificationQueueSize: 1000,
		StatsInterval:         time.Minute,
		RetryInterval:         2 * time.Second,
		MaxRetries:            10,
		MigrateOnStart:        false,
		HealthServerAddr:      "localhost:8011",
		Db: &DbConfig{
			Postgres: &PostgresConfig{
				Host:         "localhost",
				Port:         5432,
				Name:         "indexer",
				User:         "indexer",
				Password:     "indexer",
				MaxIdleConns: 10,
				MaxOpenConns: 80,
				SslMode:      "disable",
			},
		},
	}
}
