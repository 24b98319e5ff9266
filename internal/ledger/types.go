package ledger

import (
	"encoding/json"
	"time"
)

type (
	TxHash           string
	DataProposalHash string
	BlockHash        string
	LaneID           string
	ContractName     string
	Identity         string
	BlockHeight      uint64
)

// TimestampMs is a unix timestamp in milliseconds.
type TimestampMs uint64

func (t TimestampMs) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC() // #nosec G115
}

// TxID identifies a transaction. The data proposal part may be rewritten once the proposal
// the transaction was disseminated under is superseded.
type TxID struct {
	DataProposalHash DataProposalHash `json:"dp_hash"`
	TxHash           TxHash           `json:"tx_hash"`
}

type TransactionKind string

const (
	KindBlob          TransactionKind = "blob"
	KindProof         TransactionKind = "proof"
	KindVerifiedProof TransactionKind = "verified_proof"
)

type Transaction struct {
	Hash          TxHash                    `json:"hash"`
	Version       uint32                    `json:"version"`
	Kind          TransactionKind           `json:"kind"`
	Blob          *BlobTransaction          `json:"blob,omitempty"`
	Proof         *ProofTransaction         `json:"proof,omitempty"`
	VerifiedProof *VerifiedProofTransaction `json:"verified_proof,omitempty"`
}

// Identity returns the submitter identity, only blob transactions carry one.
func (t Transaction) Identity() *Identity {
	if t.Kind != KindBlob || t.Blob == nil {
		return nil
	}

	identity := t.Blob.Identity
	return &identity
}

type Blob struct {
	ContractName ContractName `json:"contract_name"`
	Data         []byte       `json:"data"`
}

type BlobTransaction struct {
	Identity Identity `json:"identity"`
	Blobs    []Blob   `json:"blobs"`
}

type ProofTransaction struct {
	ContractName ContractName `json:"contract_name"`
	Proof        []byte       `json:"proof"`
}

type VerifiedProofTransaction struct {
	ContractName ContractName `json:"contract_name"`
	ProofHash    string       `json:"proof_hash"`
	Proof        []byte       `json:"proof,omitempty"`
}

type BlockTx struct {
	ID TxID        `json:"id"`
	Tx Transaction `json:"tx"`
}

type VerifiedBlob struct {
	BlobTxHash       TxHash  `json:"blob_tx_hash"`
	BlobIndex        uint64  `json:"blob_index"`
	ProofOutputIndex *uint64 `json:"proof_output_index,omitempty"`
}

// BlobProofOutput is a prover claim to settle one blob of a blob transaction.
type BlobProofOutput struct {
	ProofTxHash      TxHash          `json:"proof_tx_hash"`
	BlobTxHash       TxHash          `json:"blob_tx_hash"`
	BlobIndex        uint64          `json:"blob_index"`
	ProofOutputIndex uint64          `json:"proof_output_index"`
	ContractName     ContractName    `json:"contract_name"`
	Output           json.RawMessage `json:"output"`
}

type RegisteredContract struct {
	TxHash          TxHash       `json:"tx_hash"`
	ContractName    ContractName `json:"contract_name"`
	Verifier        string       `json:"verifier"`
	ProgramID       []byte       `json:"program_id"`
	StateCommitment []byte       `json:"state_commitment"`
}

type ContractStateUpdate struct {
	ContractName    ContractName `json:"contract_name"`
	StateCommitment []byte       `json:"state_commitment"`
}

type TransactionEvents struct {
	TxHash TxHash          `json:"tx_hash"`
	Events json.RawMessage `json:"events"`
}

// Block is a ledger confirmed block together with everything the node state resolved while
// processing it.
type Block struct {
	Hash       BlockHash   `json:"hash"`
	ParentHash BlockHash   `json:"parent_hash"`
	Height     BlockHeight `json:"height"`
	Timestamp  TimestampMs `json:"timestamp"`
	Txs        []BlockTx   `json:"txs"`

	DpParentHashes map[TxHash]DataProposalHash `json:"dp_parent_hashes"`
	LaneIDs        map[TxHash]LaneID           `json:"lane_ids"`

	SuccessfulTxs []TxHash `json:"successful_txs"`
	FailedTxs     []TxHash `json:"failed_txs"`
	TimedOutTxs   []TxHash `json:"timed_out_txs"`

	VerifiedBlobs       []VerifiedBlob        `json:"verified_blobs"`
	BlobProofOutputs    []BlobProofOutput     `json:"blob_proof_outputs"`
	RegisteredContracts []RegisteredContract  `json:"registered_contracts"`
	DeletedContracts    []ContractName        `json:"deleted_contracts"`
	UpdatedStates       []ContractStateUpdate `json:"updated_states"`
	TransactionsEvents  []TransactionEvents   `json:"transactions_events"`
}

type TxMetadata struct {
	ID      TxID            `json:"id"`
	Version uint32          `json:"version"`
	Kind    TransactionKind `json:"kind"`
}

type WaitingDissemination struct {
	ParentDataProposalHash DataProposalHash `json:"parent_dp_hash"`
	Tx                     Transaction      `json:"tx"`
}

type DataProposalCreated struct {
	ParentDataProposalHash DataProposalHash `json:"parent_dp_hash"`
	DataProposalHash       DataProposalHash `json:"dp_hash"`
	Txs                    []TxMetadata     `json:"txs"`
}

// MempoolStatusEvent carries exactly one of its fields.
type MempoolStatusEvent struct {
	WaitingDissemination *WaitingDissemination `json:"waiting_dissemination,omitempty"`
	DataProposalCreated  *DataProposalCreated  `json:"data_proposal_created,omitempty"`
}

// BlobTxNotification is pushed to live subscribers for every blob transaction seen in a block.
type BlobTxNotification struct {
	TxHash           TxHash           `json:"tx_hash"`
	DataProposalHash DataProposalHash `json:"dp_hash"`
	BlockHash        BlockHash        `json:"block_hash"`
	Index            uint32           `json:"index"`
	Version          uint32           `json:"version"`
	LaneID           *LaneID          `json:"lane_id,omitempty"`
	Timestamp        *TimestampMs     `json:"timestamp,omitempty"`
	Identity         Identity         `json:"identity"`
	Blobs            []Blob           `json:"blobs"`
}
