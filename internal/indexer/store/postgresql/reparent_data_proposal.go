package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
	"github.com/blobledger/indexer/pkg/tracing"
)

var dependentTables = []string{"blobs", "txs_contracts", "proofs"}

// ReparentDataProposal runs in a single transaction:
//  1. sealed transactions still waiting at their provisional key move to the new data proposal as data_proposal_created
//  2. sealed transactions unknown so far are inserted at the new data proposal
//  3. transactions left waiting on the parent data proposal move to the new one
//  4. blobs, contract references and proofs of every moved transaction follow
func (p *PostgreSQL) ReparentDataProposal(ctx context.Context, reparent store.DataProposalReparent) (moved []store.ReparentedTx, err error) {
	ctx, span := tracing.StartTracing(ctx, "ReparentDataProposal", p.tracingEnabled, append(p.tracingAttributes,
		attribute.String("dp_hash", string(reparent.NewHash)),
		attribute.Int("sealed", len(reparent.Sealed)),
	)...)
	defer func() {
		tracing.EndTracing(span, err)
	}()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Join(store.ErrFailedToReparent, store.ErrFailedToBeginTx, err)
	}

	sealedMoved, err := sealTransactions(ctx, tx, reparent)
	if err != nil {
		return nil, rollback(tx, errors.Join(store.ErrFailedToReparent, err))
	}
	moved = append(moved, sealedMoved...)

	skippedMoved, err := moveSkippedTransactions(ctx, tx, reparent.ParentHash, reparent.NewHash)
	if err != nil {
		return nil, rollback(tx, errors.Join(store.ErrFailedToReparent, err))
	}
	moved = append(moved, skippedMoved...)

	err = moveDependentRows(ctx, tx, reparent.NewHash, moved)
	if err != nil {
		return nil, rollback(tx, errors.Join(store.ErrFailedToReparent, err))
	}

	err = tx.Commit()
	if err != nil {
		return nil, rollback(tx, errors.Join(store.ErrFailedToReparent, store.ErrFailedToCommitTx, err))
	}

	return moved, nil
}

func sealTransactions(ctx context.Context, tx *sql.Tx, reparent store.DataProposalReparent) ([]store.ReparentedTx, error) {
	if len(reparent.Sealed) == 0 {
		return nil, nil
	}

	txHashes := make([]string, len(reparent.Sealed))
	provisionalHashes := make([]string, len(reparent.Sealed))
	versions := make([]int32, len(reparent.Sealed))
	kinds := make([]string, len(reparent.Sealed))

	for i, s := range reparent.Sealed {
		txHashes[i] = string(s.ID.TxHash)
		provisionalHashes[i] = string(s.ID.DataProposalHash)
		versions[i] = s.Version
		kinds[i] = string(s.Kind)
	}

	qMove := fmt.Sprintf(`UPDATE transactions t
		SET parent_dp_hash = $1, transaction_status = '%s'
		FROM UNNEST($2::TEXT[], $3::TEXT[]) AS s(tx_hash, parent_dp_hash)
		WHERE t.tx_hash = s.tx_hash
		  AND t.parent_dp_hash = s.parent_dp_hash
		  AND t.transaction_status = '%s'
		  AND (s.parent_dp_hash = $1 OR NOT EXISTS (
		      SELECT 1 FROM transactions x WHERE x.tx_hash = t.tx_hash AND x.parent_dp_hash = $1
		  ))
		RETURNING t.tx_hash, s.parent_dp_hash`,
		ledger.StatusDataProposalCreated, ledger.StatusWaitingDissemination)

	rows, err := tx.QueryContext(ctx, qMove, string(reparent.NewHash), pq.Array(txHashes), pq.Array(provisionalHashes))
	if err != nil {
		return nil, err
	}

	moved, err := scanReparented(rows, reparent.NewHash)
	if err != nil {
		return nil, err
	}

	qInsert := fmt.Sprintf(`INSERT INTO transactions (tx_hash, parent_dp_hash, version, transaction_type, transaction_status)
		SELECT s.tx_hash, $1, s.version, s.transaction_type, '%s'
		FROM UNNEST($2::TEXT[], $3::TEXT[], $4::INTEGER[], $5::TEXT[]) AS s(tx_hash, parent_dp_hash, version, transaction_type)
		WHERE NOT EXISTS (
		    SELECT 1 FROM transactions x WHERE x.tx_hash = s.tx_hash AND x.parent_dp_hash = s.parent_dp_hash
		)
		ON CONFLICT (tx_hash, parent_dp_hash) DO UPDATE SET transaction_status = EXCLUDED.transaction_status
		WHERE transactions.transaction_status = '%s'`,
		ledger.StatusDataProposalCreated, ledger.StatusWaitingDissemination)

	_, err = tx.ExecContext(ctx, qInsert,
		string(reparent.NewHash),
		pq.Array(txHashes),
		pq.Array(provisionalHashes),
		pq.Array(versions),
		pq.Array(kinds),
	)
	if err != nil {
		return nil, err
	}

	return moved, nil
}

func moveSkippedTransactions(ctx context.Context, tx *sql.Tx, parentHash, newHash ledger.DataProposalHash) ([]store.ReparentedTx, error) {
	if parentHash == newHash {
		return nil, nil
	}

	q := fmt.Sprintf(`UPDATE transactions t
		SET parent_dp_hash = $1
		WHERE t.parent_dp_hash = $2
		  AND t.transaction_status = '%s'
		  AND NOT EXISTS (
		      SELECT 1 FROM transactions x WHERE x.tx_hash = t.tx_hash AND x.parent_dp_hash = $1
		  )
		RETURNING t.tx_hash, $2`, ledger.StatusWaitingDissemination)

	rows, err := tx.QueryContext(ctx, q, string(newHash), string(parentHash))
	if err != nil {
		return nil, err
	}

	return scanReparented(rows, newHash)
}

func moveDependentRows(ctx context.Context, tx *sql.Tx, newHash ledger.DataProposalHash, moved []store.ReparentedTx) error {
	if len(moved) == 0 {
		return nil
	}

	txHashes := make([]string, len(moved))
	previousHashes := make([]string, len(moved))
	for i, m := range moved {
		txHashes[i] = string(m.TxHash)
		previousHashes[i] = string(m.PreviousHash)
	}

	for _, table := range dependentTables {
		q := fmt.Sprintf(`UPDATE %s d
			SET parent_dp_hash = $1
			FROM UNNEST($2::TEXT[], $3::TEXT[]) AS s(tx_hash, parent_dp_hash)
			WHERE d.tx_hash = s.tx_hash AND d.parent_dp_hash = s.parent_dp_hash`, table)

		_, err := tx.ExecContext(ctx, q, string(newHash), pq.Array(txHashes), pq.Array(previousHashes))
		if err != nil {
			return errors.Join(fmt.Errorf("table: %s", table), err)
		}
	}

	return nil
}

// scanReparented drops rows which already were at the new data proposal.
func scanReparented(rows *sql.Rows, newHash ledger.DataProposalHash) ([]store.ReparentedTx, error) {
	defer rows.Close()

	var moved []store.ReparentedTx
	for rows.Next() {
		var txHash, previousHash string
		err := rows.Scan(&txHash, &previousHash)
		if err != nil {
			return nil, err
		}

		if ledger.DataProposalHash(previousHash) == newHash {
			continue
		}

		moved = append(moved, store.ReparentedTx{
			TxHash:       ledger.TxHash(txHash),
			PreviousHash: ledger.DataProposalHash(previousHash),
		})
	}

	return moved, rows.Err()
}
