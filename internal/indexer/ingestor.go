package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blobledger/indexer/internal/cache"
	"github.com/blobledger/indexer/internal/indexer/store"
	"github.com/blobledger/indexer/internal/ledger"
	"github.com/blobledger/indexer/pkg/tracing"
)

var (
	ErrFlushFailed          = errors.New("failed to flush write buffer")
	ErrEmptyEvent           = errors.New("event carries neither a block nor a mempool status")
	ErrEmptyMempoolStatus   = errors.New("mempool status event carries no status")
	ErrFailedToEnqueueEvent = errors.New("failed to enqueue event")
	ErrIngestorClosed       = errors.New("ingestor is shut down")
)

const (
	eventQueueSizeDefault = 100
	retryIntervalDefault  = 2 * time.Second
	maxRetriesDefault     = 10
	heightLogInterval     = 1000
)

// Event is the envelope of everything the indexer consumes. Exactly one field is set.
type Event struct {
	Block         *ledger.Block              `json:"block,omitempty"`
	MempoolStatus *ledger.MempoolStatusEvent `json:"mempool_status,omitempty"`
}

// Ingestor processes ledger and mempool events strictly one after another and is the only
// writer of its WriteBuffer.
type Ingestor struct {
	logger   *slog.Logger
	store    store.IndexerStore
	buffer   *WriteBuffer
	policy   FlushPolicy
	resolver *ReparentingResolver
	notifier Notifier
	locator  TxLocator
	now      func() time.Time
	stats    *ingestorStats

	bufferSize             int
	stalenessWindow        time.Duration
	eventQueueSize         int
	retryInterval          time.Duration
	maxRetries             uint64
	statCollectionInterval time.Duration

	eventCh    chan Event
	shutdownCh chan string

	// closed is set under acceptMu once Enqueue must no longer add to eventCh
	acceptMu    sync.RWMutex
	closed      bool
	interrupted []Event

	tracingEnabled    bool
	tracingAttributes []attribute.KeyValue

	waitGroup *sync.WaitGroup
	cancelAll context.CancelFunc
	ctx       context.Context
}

func NewIngestor(logger *slog.Logger, s store.IndexerStore, opts ...func(*Ingestor)) (*Ingestor, error) {
	i := &Ingestor{
		logger:                 logger.With(slog.String("module", "ingestor")),
		store:                  s,
		buffer:                 NewWriteBuffer(),
		notifier:               nopNotifier{},
		now:                    time.Now,
		stats:                  newIngestorStats(),
		bufferSize:             bufferSizeDefault,
		stalenessWindow:        stalenessWindowDefault,
		eventQueueSize:         eventQueueSizeDefault,
		retryInterval:          retryIntervalDefault,
		maxRetries:             maxRetriesDefault,
		statCollectionInterval: statCollectionIntervalDefault,
		waitGroup:              &sync.WaitGroup{},
	}

	for _, opt := range opts {
		opt(i)
	}

	if i.locator == nil {
		i.locator = NewCacheTxLocator(logger, cache.NewMemoryStore(txLocatorTTLDefault), txLocatorTTLDefault)
	}

	i.policy = NewFlushPolicy(i.bufferSize, i.stalenessWindow)
	i.resolver = NewReparentingResolver(logger, s, i.buffer, i.locator)
	i.eventCh = make(chan Event, i.eventQueueSize)

	i.ctx, i.cancelAll = context.WithCancel(context.Background())

	return i, nil
}

// Enqueue hands an event to the processing goroutine. It blocks while the queue is full. An
// event accepted here is processed before Shutdown returns.
func (i *Ingestor) Enqueue(ctx context.Context, event Event) error {
	if event.Block == nil && event.MempoolStatus == nil {
		return ErrEmptyEvent
	}

	i.acceptMu.RLock()
	defer i.acceptMu.RUnlock()

	if i.closed {
		return errors.Join(ErrFailedToEnqueueEvent, ErrIngestorClosed)
	}

	select {
	case i.eventCh <- event:
		return nil
	case <-ctx.Done():
		return errors.Join(ErrFailedToEnqueueEvent, ctx.Err())
	case <-i.ctx.Done():
		return errors.Join(ErrFailedToEnqueueEvent, i.ctx.Err())
	}
}

func (i *Ingestor) Start() {
	i.waitGroup.Add(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				i.logger.Error("Recovered from panic", "panic", r, slog.String("stacktrace", string(debug.Stack())))
			}
		}()
		defer i.waitGroup.Done()

		for {
			select {
			case <-i.ctx.Done():
				return
			case event := <-i.eventCh:
				applied, err := i.processWithRetry(i.ctx, event)
				if err == nil {
					continue
				}

				if i.ctx.Err() != nil {
					if !applied {
						i.interrupted = append(i.interrupted, event)
					}
					continue
				}

				i.logger.Error("giving up on event", slog.String("err", err.Error()))
				i.signalShutdown(fmt.Sprintf("indexer failed to process event: %v", err))
			}
		}
	}()
}

// processWithRetry reports whether the event made it into the buffer. A failed flush leaves the
// event applied, the buffer is written by a later flush.
func (i *Ingestor) processWithRetry(ctx context.Context, event Event) (bool, error) {
	err := i.process(ctx, event)
	if err == nil {
		return true, nil
	}

	applied := errors.Is(err, ErrFlushFailed)

	operation := func() error {
		if applied {
			return i.Flush(ctx)
		}

		opErr := i.process(ctx, event)
		applied = opErr == nil || errors.Is(opErr, ErrFlushFailed)

		return opErr
	}

	notify := func(err error, nextTry time.Duration) {
		i.logger.Warn("failed to process event, retrying", slog.String("next_try", nextTry.String()), slog.String("err", err.Error()))
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(i.retryInterval), i.maxRetries)
	policyContext := backoff.WithContext(policy, ctx)

	err = backoff.RetryNotify(operation, policyContext, notify)

	return applied, err
}

func (i *Ingestor) signalShutdown(reason string) {
	if i.shutdownCh == nil {
		return
	}

	select {
	case i.shutdownCh <- reason:
	default:
	}
}

func (i *Ingestor) process(ctx context.Context, event Event) error {
	if event.Block != nil {
		return i.HandleBlock(ctx, event.Block)
	}

	if event.MempoolStatus != nil {
		return i.HandleMempoolStatus(ctx, *event.MempoolStatus)
	}

	return ErrEmptyEvent
}

// HandleBlock buffers everything a ledger confirmed block resolved and flushes if the
// flush policy asks for it.
func (i *Ingestor) HandleBlock(ctx context.Context, block *ledger.Block) (err error) {
	ctx, span := tracing.StartTracing(ctx, "HandleBlock", i.tracingEnabled, append(i.tracingAttributes, attribute.String("hash", string(block.Hash)))...)
	defer func() {
		tracing.EndTracing(span, err)
	}()

	if block.Height%heightLogInterval == 0 {
		i.logger.Info("Indexing block", slog.Uint64("height", uint64(block.Height)), slog.String("hash", string(block.Hash)))
	} else {
		i.logger.Debug("Indexing block", slog.Uint64("height", uint64(block.Height)), slog.String("hash", string(block.Hash)))
	}

	height := narrowInt64(i.logger, uint64(block.Height), "block_height")

	i.buffer.AddBlock(store.BlockRow{
		Hash:       block.Hash,
		ParentHash: block.ParentHash,
		Height:     height,
		Timestamp:  block.Timestamp.Time(),
		TotalTxs:   int64(len(block.Txs)),
	})

	for index, blockTx := range block.Txs {
		i.indexBlockTransaction(block, height, index, blockTx)
	}

	i.bufferTransactionEvents(block, height)
	i.queueSettlementUpdates(block)
	i.updateContracts(block)

	i.updateBufferStats()

	return i.flushIfNeeded(ctx)
}

func (i *Ingestor) indexBlockTransaction(block *ledger.Block, height int64, index int, blockTx ledger.BlockTx) {
	id := blockTx.ID
	tx := blockTx.Tx
	if id.TxHash == "" {
		id.TxHash = tx.Hash
	}

	sequenceIndex := narrowInt32(i.logger, uint64(index), "index") // #nosec G115
	laneID := i.resolveLaneID(block, id.TxHash)

	status := ledger.StatusSequenced
	if tx.Kind == ledger.KindProof || tx.Kind == ledger.KindVerifiedProof {
		status = ledger.StatusSuccess
	}

	blockHash := block.Hash
	blockHeight := height

	i.buffer.PutTransaction(store.TransactionRow{
		ID:          id,
		Version:     narrowInt32(i.logger, uint64(tx.Version), "version"),
		Kind:        tx.Kind,
		Status:      status,
		BlockHash:   &blockHash,
		BlockHeight: &blockHeight,
		Index:       &sequenceIndex,
		LaneID:      laneID,
		Identity:    tx.Identity(),
	})

	i.bufferTxData(id, tx)
	i.locator.Remember(id, laneID)

	if tx.Kind != ledger.KindBlob || tx.Blob == nil {
		return
	}

	// lane id and timestamp are only known together
	var timestamp *ledger.TimestampMs
	if laneID != nil {
		ts := block.Timestamp
		timestamp = &ts
	}

	i.notifier.NotifyBlobTransaction(ledger.BlobTxNotification{
		TxHash:           id.TxHash,
		DataProposalHash: id.DataProposalHash,
		BlockHash:        block.Hash,
		Index:            narrowUint32(i.logger, index, "index"),
		Version:          tx.Version,
		LaneID:           laneID,
		Timestamp:        timestamp,
		Identity:         tx.Blob.Identity,
		Blobs:            tx.Blob.Blobs,
	})
}

func (i *Ingestor) bufferTxData(id ledger.TxID, tx ledger.Transaction) {
	blobs, proof, err := extractTxData(i.logger, id, tx)
	if err != nil {
		i.stats.extractionFailures.Inc()
		i.logger.Warn("failed to extract transaction data", slog.String("hash", string(id.TxHash)), slog.String("err", err.Error()))
		return
	}

	for _, blob := range blobs {
		i.buffer.AddBlob(blob)
	}

	if proof != nil {
		i.buffer.AddProof(*proof)
	}
}

func (i *Ingestor) bufferTransactionEvents(block *ledger.Block, height int64) {
	for index, txEvents := range block.TransactionsEvents {
		i.buffer.AddTxEvent(store.TxEventRow{
			BlockHash:   block.Hash,
			BlockHeight: height,
			Index:       narrowInt32(i.logger, uint64(index), "event_index"), // #nosec G115
			ID:          i.resolveTxID(block, txEvents.TxHash),
			Events:      txEvents.Events,
		})
	}
}

func (i *Ingestor) queueSettlementUpdates(block *ledger.Block) {
	transitions := []struct {
		hashes []ledger.TxHash
		status ledger.Status
	}{
		{hashes: block.SuccessfulTxs, status: ledger.StatusSuccess},
		{hashes: block.FailedTxs, status: ledger.StatusFailure},
		{hashes: block.TimedOutTxs, status: ledger.StatusTimedOut},
	}

	for _, transition := range transitions {
		for _, hash := range transition.hashes {
			i.buffer.QueueUpdate(store.StatusTransition{ID: i.resolveTxID(block, hash), Status: transition.status})
		}
	}

	// proof outputs have to be buffered before the verified blobs settling them
	for _, output := range block.BlobProofOutputs {
		i.buffer.AddBlobProofOutput(store.BlobProofOutputRow{
			ProofTxID:        i.resolveTxID(block, output.ProofTxHash),
			BlobTxID:         i.resolveTxID(block, output.BlobTxHash),
			BlobIndex:        narrowInt32(i.logger, output.BlobIndex, "blob_index"),
			ProofOutputIndex: narrowInt32(i.logger, output.ProofOutputIndex, "proof_output_index"),
			ContractName:     output.ContractName,
			Output:           output.Output,
		})
	}

	for _, verified := range block.VerifiedBlobs {
		blobTxID := i.resolveTxID(block, verified.BlobTxHash)
		blobIndex := narrowInt32(i.logger, verified.BlobIndex, "blob_index")

		i.buffer.QueueUpdate(store.VerifiedFlag{ID: blobTxID, BlobIndex: blobIndex})

		if verified.ProofOutputIndex != nil {
			i.buffer.QueueUpdate(store.SettlementFlag{
				BlobTxID:         blobTxID,
				BlobIndex:        blobIndex,
				ProofOutputIndex: narrowInt32(i.logger, *verified.ProofOutputIndex, "proof_output_index"),
			})
		}
	}
}

func (i *Ingestor) updateContracts(block *ledger.Block) {
	for _, contract := range block.RegisteredContracts {
		i.buffer.UpsertContract(store.ContractRow{
			ID:              i.resolveTxID(block, contract.TxHash),
			ContractName:    contract.ContractName,
			Verifier:        contract.Verifier,
			ProgramID:       contract.ProgramID,
			StateCommitment: contract.StateCommitment,
		})

		i.buffer.AddContractState(store.ContractStateRow{
			ContractName:    contract.ContractName,
			BlockHash:       block.Hash,
			StateCommitment: contract.StateCommitment,
		})
	}

	for _, name := range block.DeletedContracts {
		i.buffer.DeleteContract(name)
	}

	for _, update := range block.UpdatedStates {
		i.buffer.QueueUpdate(store.ContractStateRewrite{
			ContractName:    update.ContractName,
			BlockHash:       block.Hash,
			StateCommitment: update.StateCommitment,
		})
	}
}

// resolveTxID finds the data proposal a transaction referenced by the block belongs to. The
// empty hash is used if neither the block nor the locator knows it.
func (i *Ingestor) resolveTxID(block *ledger.Block, txHash ledger.TxHash) ledger.TxID {
	if dpHash, found := block.DpParentHashes[txHash]; found {
		return ledger.TxID{DataProposalHash: dpHash, TxHash: txHash}
	}

	if dpHash, found := i.locator.DataProposalHash(txHash); found {
		return ledger.TxID{DataProposalHash: dpHash, TxHash: txHash}
	}

	i.logger.Warn("no parent data proposal hash present for transaction", slog.String("hash", string(txHash)), slog.String("block", string(block.Hash)))

	return ledger.TxID{TxHash: txHash}
}

func (i *Ingestor) resolveLaneID(block *ledger.Block, txHash ledger.TxHash) *ledger.LaneID {
	if laneID, found := block.LaneIDs[txHash]; found {
		return &laneID
	}

	if laneID, found := i.locator.LaneID(txHash); found {
		return laneID
	}

	i.logger.Warn("no lane id present for transaction", slog.String("hash", string(txHash)), slog.String("block", string(block.Hash)))

	return nil
}

// HandleMempoolStatus persists transactions entering dissemination right away and moves
// sealed transactions to their data proposal.
func (i *Ingestor) HandleMempoolStatus(ctx context.Context, event ledger.MempoolStatusEvent) (err error) {
	ctx, span := tracing.StartTracing(ctx, "HandleMempoolStatus", i.tracingEnabled, i.tracingAttributes...)
	defer func() {
		tracing.EndTracing(span, err)
	}()

	switch {
	case event.WaitingDissemination != nil:
		err = i.handleWaitingDissemination(ctx, *event.WaitingDissemination)
	case event.DataProposalCreated != nil:
		_, err = i.resolver.Resolve(ctx, *event.DataProposalCreated)
	default:
		return ErrEmptyMempoolStatus
	}
	if err != nil {
		return err
	}

	i.updateBufferStats()

	return i.flushIfNeeded(ctx)
}

func (i *Ingestor) handleWaitingDissemination(ctx context.Context, event ledger.WaitingDissemination) error {
	id := ledger.TxID{DataProposalHash: event.ParentDataProposalHash, TxHash: event.Tx.Hash}

	err := i.store.InsertWaitingTransaction(ctx, store.TransactionRow{
		ID:       id,
		Version:  narrowInt32(i.logger, uint64(event.Tx.Version), "version"),
		Kind:     event.Tx.Kind,
		Status:   ledger.StatusWaitingDissemination,
		Identity: event.Tx.Identity(),
	})
	if err != nil {
		return err
	}

	i.bufferTxData(id, event.Tx)
	i.locator.Remember(id, nil)

	return nil
}

func (i *Ingestor) flushIfNeeded(ctx context.Context) error {
	newest, ok := i.buffer.NewestBlockTime()
	if !ok {
		return nil
	}

	if !i.policy.ShouldFlush(i.buffer.BlockCount(), newest, i.now()) {
		return nil
	}

	return i.Flush(ctx)
}

// Flush writes the buffer to the store. The buffer is only cleared once the store committed,
// a failed flush can be retried without losing data. Flushing without buffered blocks is a no-op.
func (i *Ingestor) Flush(ctx context.Context) (err error) {
	blockCount := i.buffer.BlockCount()
	if blockCount == 0 {
		return nil
	}

	batchID := uuid.NewString()
	ctx, span := tracing.StartTracing(ctx, "Flush", i.tracingEnabled, append(i.tracingAttributes, attribute.String("batch_id", batchID))...)
	defer func() {
		tracing.EndTracing(span, err)
	}()

	rows := i.buffer.Len()
	snapshot := i.buffer.Snapshot()

	start := time.Now()
	err = i.store.Flush(ctx, snapshot)
	if err != nil {
		i.stats.flushFailures.Inc()
		i.logger.Error("failed to flush", slog.String("batch_id", batchID), slog.Int("blocks", blockCount), slog.String("err", err.Error()))
		return errors.Join(ErrFlushFailed, err)
	}

	i.buffer.Reset()

	elapsed := time.Since(start)
	i.stats.flushDuration.Observe(elapsed.Seconds())
	i.stats.flushedBlocks.Add(float64(blockCount))
	i.updateBufferStats()

	i.logger.Info("Flushed buffer",
		slog.String("batch_id", batchID),
		slog.Int("blocks", blockCount),
		slog.Int("rows", rows),
		slog.String("duration", elapsed.String()),
	)

	return nil
}

// Shutdown stops accepting events, processes every event that was already accepted and writes
// whatever is left in the buffer.
func (i *Ingestor) Shutdown() {
	i.cancelAll()

	i.acceptMu.Lock()
	i.closed = true
	i.acceptMu.Unlock()

	i.waitGroup.Wait()

	i.drainEvents()

	err := i.Flush(context.Background())
	if err != nil {
		i.logger.Error("failed to flush on shutdown", slog.String("err", err.Error()))
	}
}

// drainEvents processes events the processing goroutine did not get to. It must only run once
// intake is closed and the processing goroutine has returned.
func (i *Ingestor) drainEvents() {
	pending := i.interrupted
	i.interrupted = nil

	for len(i.eventCh) > 0 {
		pending = append(pending, <-i.eventCh)
	}

	if len(pending) == 0 {
		return
	}

	i.logger.Info("Processing queued events before shutdown", slog.Int("events", len(pending)))

	for _, event := range pending {
		_, err := i.processWithRetry(context.Background(), event)
		if err != nil {
			i.logger.Error("failed to process queued event on shutdown", slog.String("err", err.Error()))
		}
	}
}
