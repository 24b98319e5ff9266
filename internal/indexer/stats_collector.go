package indexer

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statCollectionIntervalDefault = 60 * time.Second
)

var ErrFailedToRegisterStats = errors.New("failed to register stats collector")

type ingestorStats struct {
	bufferedBlocks     prometheus.Gauge
	bufferedRows       prometheus.Gauge
	flushDuration      prometheus.Histogram
	flushedBlocks      prometheus.Counter
	flushFailures      prometheus.Counter
	extractionFailures prometheus.Counter
	storeUp            prometheus.Gauge
}

func newIngestorStats() *ingestorStats {
	return &ingestorStats{
		bufferedBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_buffered_blocks",
			Help: "Number of blocks waiting to be flushed",
		}),
		bufferedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_buffered_rows",
			Help: "Number of rows and deferred updates waiting to be flushed",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indexer_flush_duration_seconds",
			Help:    "Duration of flushes to the database",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		flushedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_flushed_blocks_total",
			Help: "Number of blocks written to the database",
		}),
		flushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_flush_failures_total",
			Help: "Number of failed flushes",
		}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_extraction_failures_total",
			Help: "Number of transactions whose payload could not be extracted",
		}),
		storeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_store_up",
			Help: "Whether the last database ping succeeded",
		}),
	}
}

func (s *ingestorStats) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.bufferedBlocks,
		s.bufferedRows,
		s.flushDuration,
		s.flushedBlocks,
		s.flushFailures,
		s.extractionFailures,
		s.storeUp,
	}
}

func (i *Ingestor) StartCollectStats() error {
	err := registerStats(i.stats.collectors()...)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(i.statCollectionInterval)

	i.waitGroup.Add(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				i.logger.Error("Recovered from panic", "panic", r, slog.String("stacktrace", string(debug.Stack())))
			}
		}()
		defer func() {
			ticker.Stop()
			unregisterStats(i.stats.collectors()...)
			i.waitGroup.Done()
		}()

		for {
			select {
			case <-i.ctx.Done():
				return
			case <-ticker.C:
				err := i.store.Ping(i.ctx)
				if err != nil {
					i.logger.Error("failed to ping store", slog.String("err", err.Error()))
					i.stats.storeUp.Set(0)
					continue
				}

				i.stats.storeUp.Set(1)
			}
		}
	}()

	return nil
}

func (i *Ingestor) updateBufferStats() {
	i.stats.bufferedBlocks.Set(float64(i.buffer.BlockCount()))
	i.stats.bufferedRows.Set(float64(i.buffer.Len()))
}

func registerStats(cs ...prometheus.Collector) error {
	for _, c := range cs {
		err := prometheus.Register(c)
		if err != nil {
			return errors.Join(ErrFailedToRegisterStats, err)
		}
	}

	return nil
}

func unregisterStats(cs ...prometheus.Collector) {
	for _, c := range cs {
		_ = prometheus.Unregister(c)
	}
}
