package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/blobledger/indexer/internal/ledger"
)

const (
	notificationQueueSizeDefault = 1000
	maxParallelDrainPublishes    = 10
)

var ErrFailedToEncodeNotification = errors.New("failed to encode notification")

// Notifier receives every blob transaction included in a processed block. Implementations
// must not block the caller.
type Notifier interface {
	NotifyBlobTransaction(notification ledger.BlobTxNotification)
}

type nopNotifier struct{}

func (nopNotifier) NotifyBlobTransaction(ledger.BlobTxNotification) {}

// BlobTxFanout publishes blob transaction notifications on the message queue. Delivery is
// best effort: notifications are dropped when the queue is full and failed publishes are
// only logged.
type BlobTxFanout struct {
	mqClient MessageQueueClient
	topic    string
	logger   *slog.Logger
	queue    chan ledger.BlobTxNotification
	dropped  prometheus.Counter

	waitGroup *sync.WaitGroup
	cancelAll context.CancelFunc
	ctx       context.Context
}

func WithNotificationTopic(topic string) func(*BlobTxFanout) {
	return func(f *BlobTxFanout) {
		f.topic = topic
	}
}

func WithNotificationQueueSize(size int) func(*BlobTxFanout) {
	return func(f *BlobTxFanout) {
		if size > 0 {
			f.queue = make(chan ledger.BlobTxNotification, size)
		}
	}
}

func NewBlobTxFanout(logger *slog.Logger, mqClient MessageQueueClient, opts ...func(*BlobTxFanout)) *BlobTxFanout {
	f := &BlobTxFanout{
		mqClient: mqClient,
		topic:    BlobTransactionsTopic,
		logger:   logger.With(slog.String("module", "fanout")),
		queue:    make(chan ledger.BlobTxNotification, notificationQueueSizeDefault),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_notifications_dropped_total",
			Help: "Number of blob transaction notifications dropped because the queue was full",
		}),
		waitGroup: &sync.WaitGroup{},
	}

	for _, opt := range opts {
		opt(f)
	}

	f.ctx, f.cancelAll = context.WithCancel(context.Background())

	return f
}

func (f *BlobTxFanout) NotifyBlobTransaction(notification ledger.BlobTxNotification) {
	select {
	case f.queue <- notification:
	default:
		f.dropped.Inc()
		f.logger.Warn("notification queue full, dropping notification", slog.String("hash", string(notification.TxHash)))
	}
}

func (f *BlobTxFanout) Start() {
	f.waitGroup.Add(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.logger.Error("Recovered from panic", "panic", r, slog.String("stacktrace", string(debug.Stack())))
			}
		}()
		defer f.waitGroup.Done()

		for {
			select {
			case <-f.ctx.Done():
				f.drain()
				return
			case notification := <-f.queue:
				f.publish(notification)
			}
		}
	}()
}

// StartCollectStats exposes the drop counter.
func (f *BlobTxFanout) StartCollectStats() error {
	err := registerStats(f.dropped)
	if err != nil {
		return err
	}

	f.waitGroup.Add(1)
	go func() {
		defer f.waitGroup.Done()
		<-f.ctx.Done()
		unregisterStats(f.dropped)
	}()

	return nil
}

// drain publishes what is left in the queue on shutdown. Order is not preserved.
func (f *BlobTxFanout) drain() {
	g := errgroup.Group{}
	g.SetLimit(maxParallelDrainPublishes)

	for {
		select {
		case notification := <-f.queue:
			g.Go(func() error {
				f.publish(notification)
				return nil
			})
		default:
			_ = g.Wait()
			return
		}
	}
}

func (f *BlobTxFanout) publish(notification ledger.BlobTxNotification) {
	msg, err := encodeNotification(notification)
	if err != nil {
		f.logger.Error("failed to encode notification", slog.String("hash", string(notification.TxHash)), slog.String("err", err.Error()))
		return
	}

	err = f.mqClient.PublishMarshal(f.topic, msg)
	if err != nil {
		f.logger.Error("failed to publish notification", slog.String("hash", string(notification.TxHash)), slog.String("err", err.Error()))
	}
}

func encodeNotification(notification ledger.BlobTxNotification) (*structpb.Struct, error) {
	data, err := json.Marshal(notification)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncodeNotification, err)
	}

	fields := make(map[string]any)
	err = json.Unmarshal(data, &fields)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncodeNotification, err)
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncodeNotification, err)
	}

	return msg, nil
}

func (f *BlobTxFanout) Shutdown() {
	f.cancelAll()
	f.waitGroup.Wait()
}
