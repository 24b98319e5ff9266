package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
	"github.com/blobledger/indexer/pkg/tracing"
)

// lattice guard: only pending transactions take the status of the incoming row
var qTransactionStatusMerge = fmt.Sprintf(`transaction_status = CASE
		WHEN transactions.transaction_status IN ('%s', '%s') THEN EXCLUDED.transaction_status
		ELSE transactions.transaction_status
	END`, ledger.StatusWaitingDissemination, ledger.StatusDataProposalCreated)

// Flush writes the whole snapshot in a single database transaction. Tables are written in
// dependency order followed by the deferred updates in the order they were queued.
func (p *PostgreSQL) Flush(ctx context.Context, snapshot *store.Snapshot) (err error) {
	if snapshot.IsEmpty() {
		return nil
	}

	ctx, span := tracing.StartTracing(ctx, "Flush", p.tracingEnabled, append(p.tracingAttributes,
		attribute.Int("blocks", len(snapshot.Blocks)),
		attribute.Int("transactions", len(snapshot.Transactions)),
	)...)
	defer func() {
		tracing.EndTracing(span, err)
	}()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(store.ErrFailedToFlush, store.ErrFailedToBeginTx, err)
	}

	batches := []*batchInsert{
		blocksBatch(snapshot.Blocks),
		transactionsBatch(snapshot.Transactions),
		blobsBatch(snapshot.Blobs),
		txsContractsBatch(snapshot.Blobs),
		proofsBatch(snapshot.Proofs),
		txEventsBatch(snapshot.TxEvents),
		contractsBatch(snapshot.Contracts),
		contractStatesBatch(snapshot.ContractStates),
	}

	for _, batch := range batches {
		err = batch.exec(ctx, tx, p.maxPostgresBulkInsertRows)
		if err != nil {
			return rollback(tx, errors.Join(store.ErrFailedToFlush, store.ErrFailedToInsertRows, err))
		}
	}

	if len(snapshot.DeletedContracts) > 0 {
		names := make([]string, len(snapshot.DeletedContracts))
		for i, name := range snapshot.DeletedContracts {
			names[i] = string(name)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM contracts WHERE contract_name = ANY($1::TEXT[])`, pq.Array(names))
		if err != nil {
			return rollback(tx, errors.Join(store.ErrFailedToFlush, store.ErrFailedToDeleteContracts, err))
		}
	}

	err = blobProofOutputsBatch(snapshot.BlobProofOutputs).exec(ctx, tx, p.maxPostgresBulkInsertRows)
	if err != nil {
		return rollback(tx, errors.Join(store.ErrFailedToFlush, store.ErrFailedToInsertRows, err))
	}

	for _, update := range snapshot.Updates {
		err = applyDeferredUpdate(ctx, tx, update)
		if err != nil {
			return rollback(tx, errors.Join(store.ErrFailedToFlush, err))
		}
	}

	err = tx.Commit()
	if err != nil {
		return rollback(tx, errors.Join(store.ErrFailedToFlush, store.ErrFailedToCommitTx, err))
	}

	return nil
}

func blocksBatch(rows []store.BlockRow) *batchInsert {
	b := newBatchInsert("blocks", doNothing(),
		col("hash", typeText),
		col("parent_hash", typeText),
		col("height", typeBigint),
		col("timestamp", typeTimestamp),
		col("total_txs", typeBigint),
	)

	for _, r := range rows {
		b.add(string(r.Hash), string(r.ParentHash), r.Height, r.Timestamp, r.TotalTxs)
	}

	return b
}

func transactionsBatch(rows []store.TransactionRow) *batchInsert {
	b := newBatchInsert("transactions",
		merge([]string{"tx_hash", "parent_dp_hash"},
			"block_hash = EXCLUDED.block_hash",
			"block_height = EXCLUDED.block_height",
			"index = EXCLUDED.index",
			"lane_id = EXCLUDED.lane_id",
			"identity = EXCLUDED.identity",
			qTransactionStatusMerge,
		),
		col("tx_hash", typeText),
		col("parent_dp_hash", typeText),
		col("version", typeInteger),
		col("transaction_type", typeText),
		col("transaction_status", typeText),
		col("block_hash", typeText),
		col("block_height", typeBigint),
		col("index", typeInteger),
		col("lane_id", typeText),
		col("identity", typeText),
	)

	for _, r := range rows {
		b.add(
			string(r.ID.TxHash),
			string(r.ID.DataProposalHash),
			r.Version,
			string(r.Kind),
			r.Status.String(),
			stringPtr(r.BlockHash),
			r.BlockHeight,
			r.Index,
			stringPtr(r.LaneID),
			stringPtr(r.Identity),
		)
	}

	return b
}

func blobsBatch(rows []store.BlobRow) *batchInsert {
	b := newBatchInsert("blobs", doNothing(),
		col("tx_hash", typeText),
		col("parent_dp_hash", typeText),
		col("blob_index", typeInteger),
		col("identity", typeText),
		col("contract_name", typeText),
		col("data", typeBytea),
		col("verified", typeBoolean),
	)

	for _, r := range rows {
		b.add(
			string(r.ID.TxHash),
			string(r.ID.DataProposalHash),
			r.BlobIndex,
			string(r.Identity),
			string(r.ContractName),
			nonNilBytes(r.Data),
			r.Verified,
		)
	}

	return b
}

// txsContractsBatch derives one cross reference per distinct (transaction, contract) pair.
func txsContractsBatch(blobs []store.BlobRow) *batchInsert {
	b := newBatchInsert("txs_contracts", doNothing(),
		col("tx_hash", typeText),
		col("parent_dp_hash", typeText),
		col("contract_name", typeText),
	)

	type key struct {
		id       ledger.TxID
		contract ledger.ContractName
	}

	seen := make(map[key]struct{}, len(blobs))
	for _, r := range blobs {
		k := key{id: r.ID, contract: r.ContractName}
		if _, found := seen[k]; found {
			continue
		}
		seen[k] = struct{}{}

		b.add(string(r.ID.TxHash), string(r.ID.DataProposalHash), string(r.ContractName))
	}

	return b
}

func proofsBatch(rows []store.ProofRow) *batchInsert {
	b := newBatchInsert("proofs", doNothing("parent_dp_hash", "tx_hash"),
		col("parent_dp_hash", typeText),
		col("tx_hash", typeText),
		col("proof", typeBytea),
	)

	for _, r := range rows {
		b.add(string(r.ID.DataProposalHash), string(r.ID.TxHash), nonNilBytes(r.Proof))
	}

	return b
}

func txEventsBatch(rows []store.TxEventRow) *batchInsert {
	b := newBatchInsert("transaction_state_events", doNothing("block_hash", "index"),
		col("block_hash", typeText),
		col("block_height", typeBigint),
		col("index", typeInteger),
		col("tx_hash", typeText),
		col("parent_dp_hash", typeText),
		colCast("events", typeText, "JSONB"),
	)

	for _, r := range rows {
		b.add(
			string(r.BlockHash),
			r.BlockHeight,
			r.Index,
			string(r.ID.TxHash),
			string(r.ID.DataProposalHash),
			jsonText(r.Events),
		)
	}

	return b
}

func contractsBatch(rows []store.ContractRow) *batchInsert {
	b := newBatchInsert("contracts",
		overwrite([]string{"contract_name"}, "tx_hash", "parent_dp_hash", "verifier", "program_id", "state_commitment"),
		col("contract_name", typeText),
		col("tx_hash", typeText),
		col("parent_dp_hash", typeText),
		col("verifier", typeText),
		col("program_id", typeBytea),
		col("state_commitment", typeBytea),
	)

	for _, r := range rows {
		b.add(
			string(r.ContractName),
			string(r.ID.TxHash),
			string(r.ID.DataProposalHash),
			r.Verifier,
			nonNilBytes(r.ProgramID),
			nonNilBytes(r.StateCommitment),
		)
	}

	return b
}

func contractStatesBatch(rows []store.ContractStateRow) *batchInsert {
	b := newBatchInsert("contract_state", doNothing("contract_name", "block_hash"),
		col("contract_name", typeText),
		col("block_hash", typeText),
		col("state_commitment", typeBytea),
	)

	for _, r := range rows {
		b.add(string(r.ContractName), string(r.BlockHash), nonNilBytes(r.StateCommitment))
	}

	return b
}

func blobProofOutputsBatch(rows []store.BlobProofOutputRow) *batchInsert {
	b := newBatchInsert("blob_proof_outputs", appendOnly(),
		col("proof_tx_hash", typeText),
		col("proof_parent_dp_hash", typeText),
		col("blob_tx_hash", typeText),
		col("blob_parent_dp_hash", typeText),
		col("blob_index", typeInteger),
		col("blob_proof_output_index", typeInteger),
		col("contract_name", typeText),
		colCast("hyle_output", typeText, "JSONB"),
		col("settled", typeBoolean),
	)

	for _, r := range rows {
		b.add(
			string(r.ProofTxID.TxHash),
			string(r.ProofTxID.DataProposalHash),
			string(r.BlobTxID.TxHash),
			string(r.BlobTxID.DataProposalHash),
			r.BlobIndex,
			r.ProofOutputIndex,
			string(r.ContractName),
			jsonText(r.Output),
			r.Settled,
		)
	}

	return b
}

func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}

	s := string(*v)
	return &s
}

func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func jsonText(raw []byte) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
