package config

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

const (
	InMemory = "in-memory"
	Redis    = "redis"
)

type IndexerConfig struct {
	LogLevel        string              `mapstructure:"logLevel"`
	LogFormat       string              `mapstructure:"logFormat"`
	ProfilerAddr    string              `mapstructure:"profilerAddr"`
	GrpcMessageSize int                 `mapstructure:"grpcMessageSize"`
	Prometheus      *PrometheusConfig   `mapstructure:"prometheus"`
	Tracing         *TracingConfig      `mapstructure:"tracing"`
	MessageQueue    *MessageQueueConfig `mapstructure:"messageQueue"`
	Cache           *CacheConfig        `mapstructure:"cache"`
	Indexer         *IngestorConfig     `mapstructure:"indexer"`
}

type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Addr     string `mapstructure:"addr"`
}

func (p *PrometheusConfig) IsEnabled() bool {
	return p != nil && p.Enabled && p.Addr != "" && p.Endpoint != ""
}

type TracingConfig struct {
	Enabled            bool                 `mapstructure:"enabled"`
	DialAddr           string               `mapstructure:"dialAddr"`
	Sample             int                  `mapstructure:"sample"`
	Attributes         map[string]string    `mapstructure:"attributes"`
	KeyValueAttributes []attribute.KeyValue `mapstructure:"-"`
}

func (t *TracingConfig) IsEnabled() bool {
	return t != nil && t.Enabled
}

type MessageQueueConfig struct {
	URL               string `mapstructure:"url"`
	EventTopic        string `mapstructure:"eventTopic"`
	NotificationTopic string `mapstructure:"notificationTopic"`
}

type CacheConfig struct {
	Engine string        `mapstructure:"engine"`
	TTL    time.Duration `mapstructure:"ttl"`
	Redis  *RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	Namespace string        `mapstructure:"namespace"`
	OpTimeout time.Duration `mapstructure:"opTimeout"`
}

type IngestorConfig struct {
	BufferSize            int           `mapstructure:"bufferSize"`
	StalenessWindow       time.Duration `mapstructure:"stalenessWindow"`
	EventQueueSize        int           `mapstructure:"eventQueueSize"`
	NotificationQueueSize int           `mapstructure:"notificationQueueSize"`
	StatsInterval         time.Duration `mapstructure:"statsInterval"`
	RetryInterval         time.Duration `mapstructure:"retryInterval"`
	MaxRetries            uint64        `mapstructure:"maxRetries"`
	MigrateOnStart        bool          `mapstructure:"migrateOnStart"`
	HealthServerAddr      string        `mapstructure:"healthServerAddr"`
	Db                    *DbConfig     `mapstructure:"db"`
}

type DbConfig struct {
	Postgres *PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Name         string `mapstructure:"name"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	SslMode      string `mapstructure:"sslMode"`
}
