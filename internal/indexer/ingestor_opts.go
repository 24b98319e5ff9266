package indexer

import (
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

func WithBufferSize(size int) func(*Ingestor) {
	return func(i *Ingestor) {
		i.bufferSize = size
	}
}

func WithStalenessWindow(d time.Duration) func(*Ingestor) {
	return func(i *Ingestor) {
		i.stalenessWindow = d
	}
}

func WithNotifier(notifier Notifier) func(*Ingestor) {
	return func(i *Ingestor) {
		i.notifier = notifier
	}
}

func WithTxLocator(locator TxLocator) func(*Ingestor) {
	return func(i *Ingestor) {
		i.locator = locator
	}
}

func WithNow(nowFunc func() time.Time) func(*Ingestor) {
	return func(i *Ingestor) {
		i.now = nowFunc
	}
}

func WithEventQueueSize(size int) func(*Ingestor) {
	return func(i *Ingestor) {
		i.eventQueueSize = size
	}
}

// WithShutdownChannel receives the reason once the ingestor gives up on an event.
func WithShutdownChannel(shutdownCh chan string) func(*Ingestor) {
	return func(i *Ingestor) {
		i.shutdownCh = shutdownCh
	}
}

func WithRetryPolicy(interval time.Duration, maxRetries uint64) func(*Ingestor) {
	return func(i *Ingestor) {
		i.retryInterval = interval
		i.maxRetries = maxRetries
	}
}

func WithStatCollectionInterval(d time.Duration) func(*Ingestor) {
	return func(i *Ingestor) {
		i.statCollectionInterval = d
	}
}

func WithTracer(attr ...attribute.KeyValue) func(*Ingestor) {
	return func(i *Ingestor) {
		i.tracingEnabled = true
		if len(attr) > 0 {
			i.tracingAttributes = append(i.tracingAttributes, attr...)
		}
		_, file, _, ok := runtime.Caller(1)
		if ok {
			i.tracingAttributes = append(i.tracingAttributes, attribute.String("file", file))
		}
	}
}
