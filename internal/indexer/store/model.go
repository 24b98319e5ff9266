package store

import (
	"encoding/json"
	"time"

	"github.com/blobledger/indexer/internal/ledger"
)

type BlockRow struct {
	Hash       ledger.BlockHash
	ParentHash ledger.BlockHash
	Height     int64
	Timestamp  time.Time
	TotalTxs   int64
}

type TransactionRow struct {
	ID          ledger.TxID
	Version     int32
	Kind        ledger.TransactionKind
	Status      ledger.Status
	BlockHash   *ledger.BlockHash
	BlockHeight *int64
	Index       *int32
	LaneID      *ledger.LaneID
	Identity    *ledger.Identity
}

type BlobRow struct {
	ID           ledger.TxID
	BlobIndex    int32
	Identity     ledger.Identity
	ContractName ledger.ContractName
	Data         []byte
	Verified     bool
}

type ProofRow struct {
	ID    ledger.TxID
	Proof []byte
}

type TxEventRow struct {
	BlockHash   ledger.BlockHash
	BlockHeight int64
	Index       int32
	ID          ledger.TxID
	Events      json.RawMessage
}

type ContractRow struct {
	ID              ledger.TxID
	ContractName    ledger.ContractName
	Verifier        string
	ProgramID       []byte
	StateCommitment []byte
}

type ContractStateRow struct {
	ContractName    ledger.ContractName
	BlockHash       ledger.BlockHash
	StateCommitment []byte
}

type BlobProofOutputRow struct {
	ProofTxID        ledger.TxID
	BlobTxID         ledger.TxID
	BlobIndex        int32
	ProofOutputIndex int32
	ContractName     ledger.ContractName
	Output           json.RawMessage
	Settled          bool
}

// DeferredUpdate is a conditional update applied after all inserts of a flush, in queue order.
// Implementations: StatusTransition, VerifiedFlag, SettlementFlag, ContractStateRewrite.
type DeferredUpdate interface {
	deferredUpdate()
}

// StatusTransition moves a transaction to Status unless it already reached a terminal status.
type StatusTransition struct {
	ID     ledger.TxID
	Status ledger.Status
}

// VerifiedFlag marks a single blob as verified.
type VerifiedFlag struct {
	ID        ledger.TxID
	BlobIndex int32
}

// SettlementFlag settles exactly the blob proof output matching all four key parts.
type SettlementFlag struct {
	BlobTxID         ledger.TxID
	BlobIndex        int32
	ProofOutputIndex int32
}

// ContractStateRewrite replaces the state commitment of a contract both in its history entry
// for the block and in the current contract row.
type ContractStateRewrite struct {
	ContractName    ledger.ContractName
	BlockHash       ledger.BlockHash
	StateCommitment []byte
}

func (StatusTransition) deferredUpdate()     {}
func (VerifiedFlag) deferredUpdate()         {}
func (SettlementFlag) deferredUpdate()       {}
func (ContractStateRewrite) deferredUpdate() {}

// Snapshot is an immutable copy of a write buffer, ordered the way it has to be written.
type Snapshot struct {
	Blocks           []BlockRow
	Transactions     []TransactionRow
	Blobs            []BlobRow
	Proofs           []ProofRow
	TxEvents         []TxEventRow
	Contracts        []ContractRow
	ContractStates   []ContractStateRow
	DeletedContracts []ledger.ContractName
	BlobProofOutputs []BlobProofOutputRow
	Updates          []DeferredUpdate
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Blocks) == 0 &&
		len(s.Transactions) == 0 &&
		len(s.Blobs) == 0 &&
		len(s.Proofs) == 0 &&
		len(s.TxEvents) == 0 &&
		len(s.Contracts) == 0 &&
		len(s.ContractStates) == 0 &&
		len(s.DeletedContracts) == 0 &&
		len(s.BlobProofOutputs) == 0 &&
		len(s.Updates) == 0
}

type SealedTx struct {
	ID      ledger.TxID
	Version int32
	Kind    ledger.TransactionKind
}

// DataProposalReparent describes a data proposal superseding ParentHash with NewHash.
type DataProposalReparent struct {
	ParentHash ledger.DataProposalHash
	NewHash    ledger.DataProposalHash
	Sealed     []SealedTx
}

// ReparentedTx is a transaction that moved from PreviousHash to the new data proposal.
type ReparentedTx struct {
	TxHash       ledger.TxHash
	PreviousHash ledger.DataProposalHash
}
