package indexer

import (
	"errors"
	"log/slog"
	"time"

	"github.com/blobledger/indexer/internal/cache"
	"github.com/blobledger/indexer/internal/ledger"
)

const (
	dpHashKeyPrefix = "dp:"
	laneKeyPrefix   = "lane:"

	txLocatorTTLDefault = 30 * time.Minute
)

// TxLocator remembers under which data proposal and lane a transaction was last seen, so
// that blocks missing those cross references can still be indexed.
type TxLocator interface {
	Remember(id ledger.TxID, laneID *ledger.LaneID)
	DataProposalHash(txHash ledger.TxHash) (ledger.DataProposalHash, bool)
	LaneID(txHash ledger.TxHash) (*ledger.LaneID, bool)
}

type CacheTxLocator struct {
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewCacheTxLocator(logger *slog.Logger, store cache.Store, ttl time.Duration) *CacheTxLocator {
	if ttl <= 0 {
		ttl = txLocatorTTLDefault
	}

	return &CacheTxLocator{
		store:  store,
		ttl:    ttl,
		logger: logger.With(slog.String("module", "tx-locator")),
	}
}

// Remember stores the data proposal hash of the transaction together with its lane id in a
// single write. A nil lane id keeps the lane remembered earlier.
func (l *CacheTxLocator) Remember(id ledger.TxID, laneID *ledger.LaneID) {
	values := map[string][]byte{
		dpHashKeyPrefix + string(id.TxHash): []byte(id.DataProposalHash),
	}
	if laneID != nil {
		values[laneKeyPrefix+string(id.TxHash)] = []byte(*laneID)
	}

	err := l.store.SetMany(values, l.ttl)
	if err != nil {
		l.logger.Warn("failed to remember transaction location", slog.String("hash", string(id.TxHash)), slog.String("err", err.Error()))
	}
}

func (l *CacheTxLocator) DataProposalHash(txHash ledger.TxHash) (ledger.DataProposalHash, bool) {
	value, ok := l.get(dpHashKeyPrefix + string(txHash))
	if !ok {
		return "", false
	}

	return ledger.DataProposalHash(value), true
}

func (l *CacheTxLocator) LaneID(txHash ledger.TxHash) (*ledger.LaneID, bool) {
	value, ok := l.get(laneKeyPrefix + string(txHash))
	if !ok {
		return nil, false
	}

	laneID := ledger.LaneID(value)
	return &laneID, true
}

func (l *CacheTxLocator) get(key string) ([]byte, bool) {
	value, err := l.store.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotFound) {
			l.logger.Warn("failed to look up key", slog.String("key", key), slog.String("err", err.Error()))
		}
		return nil, false
	}

	return value, true
}
