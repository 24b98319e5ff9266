package store

import (
	"context"
	"errors"
)

var (
	ErrFailedToOpenDB            = errors.New("failed to open postgres database")
	ErrFailedToBeginTx           = errors.New("failed to begin db transaction")
	ErrFailedToCommitTx          = errors.New("failed to commit db transaction")
	ErrFailedToRollback          = errors.New("failed to rollback db transaction")
	ErrFailedToFlush             = errors.New("failed to flush buffered data")
	ErrFailedToInsertRows        = errors.New("failed to insert rows")
	ErrFailedToDeleteContracts   = errors.New("failed to delete contracts")
	ErrFailedToApplyUpdate       = errors.New("failed to apply deferred update")
	ErrUnknownDeferredUpdate     = errors.New("unknown deferred update")
	ErrFailedToInsertTransaction = errors.New("failed to insert transaction")
	ErrFailedToReparent          = errors.New("failed to reparent data proposal")
)

type IndexerStore interface {
	// InsertWaitingTransaction persists a transaction that entered dissemination. Existing rows are left untouched.
	InsertWaitingTransaction(ctx context.Context, row TransactionRow) error
	// ReparentDataProposal seals the given transactions into a new data proposal and moves
	// every transaction left waiting on the superseded proposal. It returns every transaction
	// whose data proposal reference was rewritten.
	ReparentDataProposal(ctx context.Context, reparent DataProposalReparent) ([]ReparentedTx, error)
	// Flush writes the snapshot atomically.
	Flush(ctx context.Context, snapshot *Snapshot) error
	Ping(ctx context.Context) error
	Close() error
}
