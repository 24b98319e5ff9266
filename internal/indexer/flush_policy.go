package indexer

import "time"

const (
	bufferSizeDefault      = 100
	stalenessWindowDefault = 5000 * time.Millisecond
)

// FlushPolicy forces a flush once enough blocks are buffered or once the ingestor has caught
// up with the chain tip, so that indexing latency stays bounded at low block rates.
type FlushPolicy struct {
	capacity        int
	stalenessWindow time.Duration
}

func NewFlushPolicy(capacity int, stalenessWindow time.Duration) FlushPolicy {
	if capacity <= 0 {
		capacity = bufferSizeDefault
	}

	return FlushPolicy{
		capacity:        capacity,
		stalenessWindow: stalenessWindow,
	}
}

func (f FlushPolicy) ShouldFlush(blockCount int, newestBlock time.Time, now time.Time) bool {
	if blockCount == 0 {
		return false
	}

	if blockCount >= f.capacity {
		return true
	}

	return newestBlock.After(now.Add(-f.stalenessWindow))
}
