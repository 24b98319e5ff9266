package indexer

import (
	"context"
	"log/slog"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
)

// ReparentingResolver moves transactions to the data proposal that superseded the one they
// were disseminated under. Persisted rows are rewritten first, buffered rows only once the
// store committed.
type ReparentingResolver struct {
	store   store.IndexerStore
	buffer  *WriteBuffer
	locator TxLocator
	logger  *slog.Logger
}

func NewReparentingResolver(logger *slog.Logger, s store.IndexerStore, buffer *WriteBuffer, locator TxLocator) *ReparentingResolver {
	return &ReparentingResolver{
		store:   s,
		buffer:  buffer,
		locator: locator,
		logger:  logger.With(slog.String("module", "reparenting")),
	}
}

// Resolve returns the number of buffered entries which were rewritten.
func (r *ReparentingResolver) Resolve(ctx context.Context, event ledger.DataProposalCreated) (int, error) {
	sealed := dedupeSealed(r.logger, event.Txs)

	moved, err := r.store.ReparentDataProposal(ctx, store.DataProposalReparent{
		ParentHash: event.ParentDataProposalHash,
		NewHash:    event.DataProposalHash,
		Sealed:     sealed,
	})
	if err != nil {
		return 0, err
	}

	rewritten := r.buffer.Reparent(event.DataProposalHash, moved)

	for _, s := range sealed {
		r.locator.Remember(ledger.TxID{DataProposalHash: event.DataProposalHash, TxHash: s.ID.TxHash}, nil)
	}
	for _, m := range moved {
		r.locator.Remember(ledger.TxID{DataProposalHash: event.DataProposalHash, TxHash: m.TxHash}, nil)
	}

	r.logger.Debug("data proposal created",
		slog.String("parent_dp_hash", string(event.ParentDataProposalHash)),
		slog.String("dp_hash", string(event.DataProposalHash)),
		slog.Int("sealed", len(sealed)),
		slog.Int("moved", len(moved)),
		slog.Int("buffered_rewritten", rewritten),
	)

	return rewritten, nil
}

// dedupeSealed drops repeated reports of the same transaction. All of them end up under the
// same final key, so only the first report of a transaction hash is kept.
func dedupeSealed(logger *slog.Logger, txs []ledger.TxMetadata) []store.SealedTx {
	seen := make(map[ledger.TxID]struct{}, len(txs))
	seenHashes := make(map[ledger.TxHash]struct{}, len(txs))
	sealed := make([]store.SealedTx, 0, len(txs))

	for _, tx := range txs {
		if _, found := seen[tx.ID]; found {
			continue
		}
		seen[tx.ID] = struct{}{}

		if _, found := seenHashes[tx.ID.TxHash]; found {
			logger.Warn("transaction sealed under more than one provisional data proposal",
				slog.String("hash", string(tx.ID.TxHash)),
				slog.String("dp_hash", string(tx.ID.DataProposalHash)),
			)
			continue
		}
		seenHashes[tx.ID.TxHash] = struct{}{}

		sealed = append(sealed, store.SealedTx{
			ID:      tx.ID,
			Version: narrowInt32(logger, uint64(tx.Version), "version"),
			Kind:    tx.Kind,
		})
	}

	return sealed
}
