package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
)

func terminalStatuses() []string {
	terminal := ledger.TerminalStatuses()
	names := make([]string, len(terminal))
	for i, s := range terminal {
		names[i] = s.String()
	}
	return names
}

func applyDeferredUpdate(ctx context.Context, db execer, update store.DeferredUpdate) error {
	var err error

	switch u := update.(type) {
	case store.StatusTransition:
		const q = `UPDATE transactions SET transaction_status = $1
			WHERE tx_hash = $2 AND parent_dp_hash = $3 AND NOT (transaction_status = ANY($4::TEXT[]))`

		_, err = db.ExecContext(ctx, q, u.Status.String(), string(u.ID.TxHash), string(u.ID.DataProposalHash), pq.Array(terminalStatuses()))
	case store.VerifiedFlag:
		const q = `UPDATE blobs SET verified = true WHERE tx_hash = $1 AND parent_dp_hash = $2 AND blob_index = $3`

		_, err = db.ExecContext(ctx, q, string(u.ID.TxHash), string(u.ID.DataProposalHash), u.BlobIndex)
	case store.SettlementFlag:
		const q = `UPDATE blob_proof_outputs SET settled = true
			WHERE blob_tx_hash = $1 AND blob_parent_dp_hash = $2 AND blob_index = $3 AND blob_proof_output_index = $4`

		_, err = db.ExecContext(ctx, q, string(u.BlobTxID.TxHash), string(u.BlobTxID.DataProposalHash), u.BlobIndex, u.ProofOutputIndex)
	case store.ContractStateRewrite:
		const qHistory = `UPDATE contract_state SET state_commitment = $1 WHERE contract_name = $2 AND block_hash = $3`
		const qCurrent = `UPDATE contracts SET state_commitment = $1 WHERE contract_name = $2`

		_, err = db.ExecContext(ctx, qHistory, nonNilBytes(u.StateCommitment), string(u.ContractName), string(u.BlockHash))
		if err == nil {
			_, err = db.ExecContext(ctx, qCurrent, nonNilBytes(u.StateCommitment), string(u.ContractName))
		}
	default:
		return errors.Join(store.ErrUnknownDeferredUpdate, fmt.Errorf("type: %T", update))
	}

	if err != nil {
		return errors.Join(store.ErrFailedToApplyUpdate, fmt.Errorf("type: %T", update), err)
	}

	return nil
}
