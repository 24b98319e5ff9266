package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func Test_Load(t *testing.T) {
	t.Run("default load", func(t *testing.T) {
		// given
		expectedConfig := getDefaultIndexerConfig()

		// when
		actualConfig, err := Load()
		require.NoError(t, err, "error loading config")

		// then
		assert.Equal(t, expectedConfig.LogLevel, actualConfig.LogLevel)
		assert.Equal(t, expectedConfig.GrpcMessageSize, actualConfig.GrpcMessageSize)
		assert.Equal(t, expectedConfig.Prometheus, actualConfig.Prometheus)
		assert.Equal(t, expectedConfig.MessageQueue, actualConfig.MessageQueue)
		assert.Equal(t, expectedConfig.Cache, actualConfig.Cache)
		assert.Equal(t, expectedConfig.Indexer, actualConfig.Indexer)
		assert.False(t, actualConfig.Tracing.IsEnabled())
		assert.Empty(t, actualConfig.Tracing.KeyValueAttributes)
	})

	t.Run("partial file override", func(t *testing.T) {
		// given
		expectedConfig := getDefaultIndexerConfig()

		// when
		actualConfig, err := Load("./test_files/")
		require.NoError(t, err, "error loading config")

		// then
		// not overridden
		assert.Equal(t, expectedConfig.Indexer.EventQueueSize, actualConfig.Indexer.EventQueueSize)
		assert.Equal(t, expectedConfig.MessageQueue.EventTopic, actualConfig.MessageQueue.EventTopic)
		assert.Equal(t, expectedConfig.Indexer.Db.Postgres.Port, actualConfig.Indexer.Db.Postgres.Port)

		assert.Equal(t, "DEBUG", actualConfig.LogLevel)
		assert.Equal(t, "json", actualConfig.LogFormat)
		assert.Equal(t, "nats://nats:4222", actualConfig.MessageQueue.URL)
		assert.Equal(t, 250, actualConfig.Indexer.BufferSize)
		assert.Equal(t, 2*time.Second, actualConfig.Indexer.StalenessWindow)
		assert.Equal(t, "db", actualConfig.Indexer.Db.Postgres.Host)
		assert.True(t, actualConfig.Tracing.IsEnabled())
		assert.Equal(t, "http://tracing:1234", actualConfig.Tracing.DialAddr)
		assert.Equal(t, []attribute.KeyValue{attribute.String("deployment", "staging")}, actualConfig.Tracing.KeyValueAttributes)
	})

	t.Run("environment override", func(t *testing.T) {
		// given
		t.Setenv("INDEXER_INDEXER_BUFFERSIZE", "42")
		t.Setenv("INDEXER_CACHE_ENGINE", Redis)

		// when
		actualConfig, err := Load("./test_files/")
		require.NoError(t, err, "error loading config")

		// then
		assert.Equal(t, 42, actualConfig.Indexer.BufferSize)
		assert.Equal(t, Redis, actualConfig.Cache.Engine)
	})

	t.Run("missing directory", func(t *testing.T) {
		// when
		_, err := Load("./does_not_exist/")

		// then
		require.ErrorIs(t, err, ErrConfigPath)
	})
}

func Test_DumpConfig(t *testing.T) {
	// given
	filename := filepath.Join(t.TempDir(), "config.yaml")
	indexerConfig := getDefaultIndexerConfig()
	indexerConfig.Indexer.BufferSize = 7

	// when
	err := DumpConfig(indexerConfig, filename)
	require.NoError(t, err)

	// then
	dumped, err := Load(filepath.Dir(filename))
	require.NoError(t, err)
	assert.Equal(t, 7, dumped.Indexer.BufferSize)
	assert.Equal(t, indexerConfig.Indexer.Db.Postgres, dumped.Indexer.Db.Postgres)

	_, err = os.Stat(filename)
	require.NoError(t, err)
}
