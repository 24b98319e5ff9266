package indexer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ccoveille/go-safecast"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
)

var ErrUnsupportedTransactionKind = errors.New("unsupported transaction kind")

// extractTxData returns the rows carrying the payload of a transaction. Blob transactions
// yield one row per blob, verified proof transactions yield their proof if it is attached.
// A blob whose index cannot be stored is skipped without dropping its siblings.
func extractTxData(logger *slog.Logger, id ledger.TxID, tx ledger.Transaction) ([]store.BlobRow, *store.ProofRow, error) {
	switch tx.Kind {
	case ledger.KindBlob:
		if tx.Blob == nil {
			return nil, nil, nil
		}

		rows := make([]store.BlobRow, 0, len(tx.Blob.Blobs))
		for index, blob := range tx.Blob.Blobs {
			blobIndex, err := safecast.ToInt32(index)
			if err != nil {
				logger.Error("blob index does not fit into int32, skipping blob",
					slog.String("hash", string(id.TxHash)),
					slog.Int("index", index),
					slog.String("err", err.Error()),
				)
				continue
			}

			rows = append(rows, store.BlobRow{
				ID:           id,
				BlobIndex:    blobIndex,
				Identity:     tx.Blob.Identity,
				ContractName: blob.ContractName,
				Data:         blob.Data,
			})
		}

		return rows, nil, nil
	case ledger.KindVerifiedProof:
		if tx.VerifiedProof == nil || tx.VerifiedProof.Proof == nil {
			logger.Debug("verified proof transaction does not contain a proof", slog.String("hash", string(id.TxHash)))
			return nil, nil, nil
		}

		return nil, &store.ProofRow{ID: id, Proof: tx.VerifiedProof.Proof}, nil
	}

	return nil, nil, errors.Join(ErrUnsupportedTransactionKind, fmt.Errorf("kind: %s", tx.Kind))
}

func narrowInt32(logger *slog.Logger, value uint64, field string) int32 {
	narrowed, err := safecast.ToInt32(value)
	if err != nil {
		logger.Error("value does not fit into int32, using 0", slog.String("field", field), slog.String("err", err.Error()))
		return 0
	}

	return narrowed
}

func narrowInt64(logger *slog.Logger, value uint64, field string) int64 {
	narrowed, err := safecast.ToInt64(value)
	if err != nil {
		logger.Error("value does not fit into int64, using 0", slog.String("field", field), slog.String("err", err.Error()))
		return 0
	}

	return narrowed
}

func narrowUint32(logger *slog.Logger, value int, field string) uint32 {
	narrowed, err := safecast.ToUint32(value)
	if err != nil {
		logger.Error("value does not fit into uint32, using 0", slog.String("field", field), slog.String("err", err.Error()))
		return 0
	}

	return narrowed
}
