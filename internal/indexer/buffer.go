package indexer

import (
	"slices"
	"time"

	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
)

// WriteBuffer stages rows between flushes. It is owned by exactly one Ingestor and is not
// safe for concurrent use.
type WriteBuffer struct {
	blocks []store.BlockRow

	txOrder []ledger.TxID
	txs     map[ledger.TxID]store.TransactionRow

	blobs            []store.BlobRow
	proofs           []store.ProofRow
	txEvents         []store.TxEventRow
	contractStates   []store.ContractStateRow
	blobProofOutputs []store.BlobProofOutputRow
	updates          []store.DeferredUpdate

	contractOrder []ledger.ContractName
	contracts     map[ledger.ContractName]store.ContractRow

	deletedOrder []ledger.ContractName
	deleted      map[ledger.ContractName]struct{}
}

func NewWriteBuffer() *WriteBuffer {
	b := &WriteBuffer{}
	b.Reset()
	return b
}

func (b *WriteBuffer) Reset() {
	b.blocks = nil
	b.txOrder = nil
	b.txs = make(map[ledger.TxID]store.TransactionRow)
	b.blobs = nil
	b.proofs = nil
	b.txEvents = nil
	b.contractStates = nil
	b.blobProofOutputs = nil
	b.updates = nil
	b.contractOrder = nil
	b.contracts = make(map[ledger.ContractName]store.ContractRow)
	b.deletedOrder = nil
	b.deleted = make(map[ledger.ContractName]struct{})
}

func (b *WriteBuffer) AddBlock(row store.BlockRow) {
	b.blocks = append(b.blocks, row)
}

// PutTransaction stores the row under its TxID, replacing a row buffered earlier under the same key.
func (b *WriteBuffer) PutTransaction(row store.TransactionRow) {
	if _, found := b.txs[row.ID]; !found {
		b.txOrder = append(b.txOrder, row.ID)
	}
	b.txs[row.ID] = row
}

func (b *WriteBuffer) AddBlob(row store.BlobRow) {
	b.blobs = append(b.blobs, row)
}

func (b *WriteBuffer) AddProof(row store.ProofRow) {
	b.proofs = append(b.proofs, row)
}

func (b *WriteBuffer) AddTxEvent(row store.TxEventRow) {
	b.txEvents = append(b.txEvents, row)
}

// UpsertContract registers the contract, clearing a pending deletion of the same name.
func (b *WriteBuffer) UpsertContract(row store.ContractRow) {
	if _, found := b.deleted[row.ContractName]; found {
		delete(b.deleted, row.ContractName)
		b.deletedOrder = slices.DeleteFunc(b.deletedOrder, func(name ledger.ContractName) bool {
			return name == row.ContractName
		})
	}

	if _, found := b.contracts[row.ContractName]; !found {
		b.contractOrder = append(b.contractOrder, row.ContractName)
	}
	b.contracts[row.ContractName] = row
}

// DeleteContract tombstones the contract. Deletions are written after contract upserts, so a
// registration buffered earlier is removed as well.
func (b *WriteBuffer) DeleteContract(name ledger.ContractName) {
	if _, found := b.deleted[name]; found {
		return
	}

	b.deleted[name] = struct{}{}
	b.deletedOrder = append(b.deletedOrder, name)
}

func (b *WriteBuffer) AddContractState(row store.ContractStateRow) {
	b.contractStates = append(b.contractStates, row)
}

func (b *WriteBuffer) AddBlobProofOutput(row store.BlobProofOutputRow) {
	b.blobProofOutputs = append(b.blobProofOutputs, row)
}

func (b *WriteBuffer) QueueUpdate(update store.DeferredUpdate) {
	b.updates = append(b.updates, update)
}

func (b *WriteBuffer) BlockCount() int {
	return len(b.blocks)
}

// NewestBlockTime returns the timestamp of the most recently buffered block.
func (b *WriteBuffer) NewestBlockTime() (time.Time, bool) {
	if len(b.blocks) == 0 {
		return time.Time{}, false
	}

	return b.blocks[len(b.blocks)-1].Timestamp, true
}

// Len returns the number of buffered rows and updates.
func (b *WriteBuffer) Len() int {
	return len(b.blocks) + len(b.txs) + len(b.blobs) + len(b.proofs) + len(b.txEvents) +
		len(b.contracts) + len(b.contractStates) + len(b.deleted) + len(b.blobProofOutputs) + len(b.updates)
}

func (b *WriteBuffer) IsEmpty() bool {
	return b.Len() == 0
}

// Snapshot copies the buffer contents. The buffer itself is left untouched, callers reset it
// once the snapshot is durably written.
func (b *WriteBuffer) Snapshot() *store.Snapshot {
	s := &store.Snapshot{
		Blocks:           slices.Clone(b.blocks),
		Transactions:     make([]store.TransactionRow, 0, len(b.txOrder)),
		Blobs:            slices.Clone(b.blobs),
		Proofs:           slices.Clone(b.proofs),
		TxEvents:         slices.Clone(b.txEvents),
		Contracts:        make([]store.ContractRow, 0, len(b.contractOrder)),
		ContractStates:   slices.Clone(b.contractStates),
		DeletedContracts: slices.Clone(b.deletedOrder),
		BlobProofOutputs: slices.Clone(b.blobProofOutputs),
		Updates:          slices.Clone(b.updates),
	}

	for _, id := range b.txOrder {
		s.Transactions = append(s.Transactions, b.txs[id])
	}

	for _, name := range b.contractOrder {
		s.Contracts = append(s.Contracts, b.contracts[name])
	}

	return s
}

// Reparent moves every buffered entry of the given transactions from their previous data
// proposal to newHash. It returns the number of rewritten entries.
func (b *WriteBuffer) Reparent(newHash ledger.DataProposalHash, moved []store.ReparentedTx) int {
	if len(moved) == 0 {
		return 0
	}

	affected := make(map[ledger.TxID]struct{}, len(moved))
	for _, m := range moved {
		affected[ledger.TxID{DataProposalHash: m.PreviousHash, TxHash: m.TxHash}] = struct{}{}
	}

	rewritten := 0
	rewrite := func(id *ledger.TxID) {
		if _, found := affected[*id]; found {
			id.DataProposalHash = newHash
			rewritten++
		}
	}

	for i, id := range b.txOrder {
		if _, found := affected[id]; !found {
			continue
		}

		row := b.txs[id]
		delete(b.txs, id)
		rewrite(&row.ID)

		existing, exists := b.txs[row.ID]
		if !exists {
			b.txOrder[i] = row.ID
			b.txs[row.ID] = row
			continue
		}

		// the entry already at the new key wins unless the moved one is further in the lattice
		b.txOrder[i] = ledger.TxID{}
		if existing.Status.CanTransitionTo(row.Status) {
			b.txs[row.ID] = row
		}
	}
	b.txOrder = slices.DeleteFunc(b.txOrder, func(id ledger.TxID) bool {
		return id == ledger.TxID{}
	})

	for i := range b.blobs {
		rewrite(&b.blobs[i].ID)
	}
	for i := range b.proofs {
		rewrite(&b.proofs[i].ID)
	}
	for i := range b.txEvents {
		rewrite(&b.txEvents[i].ID)
	}
	for i := range b.blobProofOutputs {
		rewrite(&b.blobProofOutputs[i].ProofTxID)
		rewrite(&b.blobProofOutputs[i].BlobTxID)
	}
	for name, c := range b.contracts {
		before := rewritten
		rewrite(&c.ID)
		if rewritten != before {
			b.contracts[name] = c
		}
	}

	for i, update := range b.updates {
		switch u := update.(type) {
		case store.StatusTransition:
			rewrite(&u.ID)
			b.updates[i] = u
		case store.VerifiedFlag:
			rewrite(&u.ID)
			b.updates[i] = u
		case store.SettlementFlag:
			rewrite(&u.BlobTxID)
			b.updates[i] = u
		}
	}

	return rewritten
}
