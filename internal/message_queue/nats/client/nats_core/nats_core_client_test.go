package natscore_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	natscore "github.com/blobledger/indexer/internal/message_queue/nats/client/nats_core"
	"github.com/blobledger/indexer/internal/message_queue/nats/client/nats_core/mocks"
)

const (
	BlobTxsTopic = "blob-transactions"
	EventsTopic  = "ledger-events"
)

var errConn = errors.New("connection error")

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestPublishMarshal(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{
		"tx_hash": "tx-1",
		"dp_hash": "dp-1",
		"index":   0,
	})
	require.NoError(t, err)

	tt := []struct {
		name       string
		publishErr error

		expectedError        error
		expectedPublishCalls int
	}{
		{
			name: "success",

			expectedPublishCalls: 1,
		},
		{
			name:       "publish err",
			publishErr: errConn,

			expectedError:        natscore.ErrFailedToPublish,
			expectedPublishCalls: 1,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			natsMock := &mocks.NatsConnectionMock{
				PublishFunc: func(_ string, _ []byte) error {
					return tc.publishErr
				},
			}
			sut := natscore.New(natsMock, natscore.WithLogger(newLogger()))

			// when
			actualErr := sut.PublishMarshal(BlobTxsTopic, msg)

			// then
			require.Equal(t, tc.expectedPublishCalls, len(natsMock.PublishCalls()))
			if tc.expectedError != nil {
				require.ErrorIs(t, actualErr, tc.expectedError)
				require.ErrorIs(t, actualErr, errConn)
				return
			}
			require.NoError(t, actualErr)

			call := natsMock.PublishCalls()[0]
			require.Equal(t, BlobTxsTopic, call.Subj)

			published := &structpb.Struct{}
			require.NoError(t, proto.Unmarshal(call.Data, published))
			require.Equal(t, "tx-1", published.GetFields()["tx_hash"].GetStringValue())
		})
	}
}

func TestSubscribe(t *testing.T) {
	tt := []struct {
		name         string
		queueSuffix  string
		subscribeErr error
		handlerErr   error

		expectedQueue string
		expectedError error
	}{
		{
			name: "success",

			expectedQueue: EventsTopic + "-group",
		},
		{
			name:        "custom queue suffix",
			queueSuffix: "-replicas",

			expectedQueue: EventsTopic + "-replicas",
		},
		{
			name:       "handler error is swallowed",
			handlerErr: errors.New("bad message"),

			expectedQueue: EventsTopic + "-group",
		},
		{
			name:         "subscribe err",
			subscribeErr: errConn,

			expectedQueue: EventsTopic + "-group",
			expectedError: natscore.ErrFailedToSubscribe,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			natsMock := &mocks.NatsConnectionMock{
				QueueSubscribeFunc: func(_ string, _ string, _ nats.MsgHandler) (*nats.Subscription, error) {
					return &nats.Subscription{}, tc.subscribeErr
				},
			}
			opts := []func(*natscore.Client){natscore.WithLogger(newLogger())}
			if tc.queueSuffix != "" {
				opts = append(opts, natscore.WithQueueSuffix(tc.queueSuffix))
			}
			sut := natscore.New(natsMock, opts...)

			var received [][]byte
			handler := func(data []byte) error {
				received = append(received, data)
				return tc.handlerErr
			}

			// when
			actualErr := sut.Subscribe(EventsTopic, handler)

			// then
			require.Len(t, natsMock.QueueSubscribeCalls(), 1)
			call := natsMock.QueueSubscribeCalls()[0]
			require.Equal(t, EventsTopic, call.Subj)
			require.Equal(t, tc.expectedQueue, call.Queue)

			if tc.expectedError != nil {
				require.ErrorIs(t, actualErr, tc.expectedError)
				return
			}
			require.NoError(t, actualErr)

			call.Cb(&nats.Msg{Subject: EventsTopic, Data: []byte(`{"type":"block"}`)})
			require.Equal(t, [][]byte{[]byte(`{"type":"block"}`)}, received)
		})
	}
}

func TestShutdown(t *testing.T) {
	tt := []struct {
		name     string
		drainErr error
	}{
		{
			name: "drained",
		},
		{
			name:     "drain error is logged",
			drainErr: errConn,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			natsMock := &mocks.NatsConnectionMock{
				DrainFunc: func() error {
					return tc.drainErr
				},
			}
			sut := natscore.New(natsMock, natscore.WithLogger(newLogger()))

			// when
			sut.Shutdown()

			// then
			require.Len(t, natsMock.DrainCalls(), 1)
		})
	}
}

func TestUnsubscribe(t *testing.T) {
	t.Run("topic without subscription", func(t *testing.T) {
		// given
		sut := natscore.New(&mocks.NatsConnectionMock{}, natscore.WithLogger(newLogger()))

		// when
		err := sut.Unsubscribe(EventsTopic)

		// then
		require.NoError(t, err)
	})

	t.Run("drain of invalid subscription fails", func(t *testing.T) {
		// given
		natsMock := &mocks.NatsConnectionMock{
			QueueSubscribeFunc: func(_ string, _ string, _ nats.MsgHandler) (*nats.Subscription, error) {
				return &nats.Subscription{}, nil
			},
		}
		sut := natscore.New(natsMock, natscore.WithLogger(newLogger()))
		require.NoError(t, sut.Subscribe(EventsTopic, func(_ []byte) error { return nil }))

		// when
		err := sut.Unsubscribe(EventsTopic)

		// then
		require.ErrorIs(t, err, natscore.ErrFailedToUnsubscribe)
		require.ErrorIs(t, err, nats.ErrBadSubscription)

		// subscription is forgotten
		require.NoError(t, sut.Unsubscribe(EventsTopic))
	})
}
