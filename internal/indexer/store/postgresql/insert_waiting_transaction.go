package postgresql

import (
	"context"
	"errors"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/pkg/tracing"
)

func (p *PostgreSQL) InsertWaitingTransaction(ctx context.Context, row store.TransactionRow) (err error) {
	ctx, span := tracing.StartTracing(ctx, "InsertWaitingTransaction", p.tracingEnabled, p.tracingAttributes...)
	defer func() {
		tracing.EndTracing(span, err)
	}()

	const q = `INSERT INTO transactions (tx_hash, parent_dp_hash, version, transaction_type, transaction_status, identity)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tx_hash, parent_dp_hash) DO NOTHING`

	_, err = p.db.ExecContext(ctx, q,
		string(row.ID.TxHash),
		string(row.ID.DataProposalHash),
		row.Version,
		string(row.Kind),
		row.Status.String(),
		stringPtr(row.Identity),
	)
	if err != nil {
		return errors.Join(store.ErrFailedToInsertTransaction, err)
	}

	return nil
}
