package indexer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/blobledger/indexer/internal/indexer"
	"github.com/blobledger/indexer/internal/indexer/mocks"
	"github.com/blobledger/indexer/internal/ledger"
)

// encodeEvent publishes a JSON shaped envelope the way producers do, as a protobuf struct.
func encodeEvent(t *testing.T, envelope string) []byte {
	t.Helper()

	fields := make(map[string]any)
	require.NoError(t, json.Unmarshal([]byte(envelope), &fields))

	msg, err := structpb.NewStruct(fields)
	require.NoError(t, err)

	data, err := proto.Marshal(msg)
	require.NoError(t, err)

	return data
}

func TestEventConsumer(t *testing.T) {
	tt := []struct {
		name         string
		subscribeErr error
		msg          string
		raw          []byte
		enqueueErr   error

		expectedStartErr   error
		expectedHandleErr  error
		expectedEnqueued   int
		expectedHeight     ledger.BlockHeight
		expectedHasMempool bool
	}{
		{
			name: "block event",
			msg:  `{"block":{"hash":"block-1","height":7,"timestamp":1740830400000}}`,

			expectedEnqueued: 1,
			expectedHeight:   7,
		},
		{
			name: "mempool status event",
			msg:  `{"mempool_status":{"data_proposal_created":{"parent_dp_hash":"dp-0","dp_hash":"dp-1","txs":[]}}}`,

			expectedEnqueued:   1,
			expectedHasMempool: true,
		},
		{
			name: "not a protobuf struct",
			raw:  []byte{0xff},

			expectedHandleErr: indexer.ErrFailedToDecodeEvent,
		},
		{
			name:       "enqueue error is returned",
			msg:        `{"block":{"hash":"block-1"}}`,
			enqueueErr: indexer.ErrFailedToEnqueueEvent,

			expectedHandleErr: indexer.ErrFailedToEnqueueEvent,
			expectedEnqueued:  1,
		},
		{
			name:         "subscription fails",
			subscribeErr: errors.New("not connected"),

			expectedStartErr: indexer.ErrFailedToSubscribeToTopic,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mqClient := &mocks.MessageQueueClientMock{
				SubscribeFunc: func(_ string, _ func([]byte) error) error {
					return tc.subscribeErr
				},
				UnsubscribeFunc: func(_ string) error { return nil },
			}
			sink := &mocks.EventSinkMock{
				EnqueueFunc: func(_ context.Context, _ indexer.Event) error {
					return tc.enqueueErr
				},
			}

			sut := indexer.NewEventConsumer(newLogger(), mqClient, sink, "")
			defer sut.Shutdown()

			// when
			err := sut.Start()

			// then
			require.Len(t, mqClient.SubscribeCalls(), 1)
			require.Equal(t, indexer.EventTopic, mqClient.SubscribeCalls()[0].Topic)

			if tc.expectedStartErr != nil {
				require.ErrorIs(t, err, tc.expectedStartErr)
				return
			}
			require.NoError(t, err)

			msg := tc.raw
			if msg == nil {
				msg = encodeEvent(t, tc.msg)
			}

			// when
			err = mqClient.SubscribeCalls()[0].MsgFunc(msg)

			// then
			if tc.expectedHandleErr != nil {
				require.ErrorIs(t, err, tc.expectedHandleErr)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, sink.EnqueueCalls(), tc.expectedEnqueued)
			if tc.expectedEnqueued == 0 || tc.expectedHandleErr != nil {
				return
			}

			event := sink.EnqueueCalls()[0].Event
			if tc.expectedHasMempool {
				require.NotNil(t, event.MempoolStatus)
				require.Equal(t, ledger.DataProposalHash("dp-1"), event.MempoolStatus.DataProposalCreated.DataProposalHash)
				return
			}

			require.NotNil(t, event.Block)
			require.Equal(t, tc.expectedHeight, event.Block.Height)
		})
	}
}

func TestEventConsumer_Shutdown(t *testing.T) {
	t.Run("messages delivered while unsubscribing still reach the sink", func(t *testing.T) {
		// given
		var handler func([]byte) error
		var drainErr error

		mqClient := &mocks.MessageQueueClientMock{
			SubscribeFunc: func(_ string, msgFunc func([]byte) error) error {
				handler = msgFunc
				return nil
			},
		}
		sink := &mocks.EventSinkMock{
			EnqueueFunc: func(ctx context.Context, _ indexer.Event) error {
				return ctx.Err()
			},
		}

		sut := indexer.NewEventConsumer(newLogger(), mqClient, sink, "")
		require.NoError(t, sut.Start())

		msg := encodeEvent(t, `{"block":{"hash":"block-1"}}`)
		mqClient.UnsubscribeFunc = func(_ string) error {
			drainErr = handler(msg)
			return nil
		}

		// when
		sut.Shutdown()

		// then
		require.Len(t, mqClient.UnsubscribeCalls(), 1)
		require.Equal(t, indexer.EventTopic, mqClient.UnsubscribeCalls()[0].Topic)
		require.Len(t, sink.EnqueueCalls(), 1)
		require.NoError(t, drainErr)
	})

	t.Run("unsubscribe error still releases blocked callbacks", func(t *testing.T) {
		// given
		mqClient := &mocks.MessageQueueClientMock{
			SubscribeFunc:   func(_ string, _ func([]byte) error) error { return nil },
			UnsubscribeFunc: func(_ string) error { return errors.New("drain timed out") },
		}
		sink := &mocks.EventSinkMock{
			EnqueueFunc: func(ctx context.Context, _ indexer.Event) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}

		sut := indexer.NewEventConsumer(newLogger(), mqClient, sink, "")
		require.NoError(t, sut.Start())

		msg := encodeEvent(t, `{"block":{"hash":"block-1"}}`)
		blocked := make(chan error, 1)
		go func() {
			blocked <- mqClient.SubscribeCalls()[0].MsgFunc(msg)
		}()

		// when
		sut.Shutdown()

		// then
		select {
		case err := <-blocked:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("callback was not released")
		}
	})
}
