package indexer_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/blobledger/indexer/internal/grpc_utils"
	"github.com/blobledger/indexer/internal/indexer"
	"github.com/blobledger/indexer/internal/indexer/mocks"
)

type watchServer struct {
	grpc.ServerStream
	ctx context.Context

	mu   sync.Mutex
	sent []grpc_health_v1.HealthCheckResponse_ServingStatus
}

func (w *watchServer) Context() context.Context {
	return w.ctx
}

func (w *watchServer) Send(resp *grpc_health_v1.HealthCheckResponse) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, resp.Status)
	return nil
}

func (w *watchServer) statuses() []grpc_health_v1.HealthCheckResponse_ServingStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.sent)
}

func newHealthServer(t *testing.T, pingErr error, mqStatus nats.Status) *indexer.Server {
	t.Helper()

	storeMock := &mocks.PingerMock{
		PingFunc: func(_ context.Context) error {
			return pingErr
		},
	}
	mqConn := &mocks.ConnectionStatusMock{
		StatusFunc: func() nats.Status {
			return mqStatus
		},
	}

	sut, err := indexer.NewServer(newLogger(), storeMock, mqConn, grpc_utils.ServerConfig{Name: "indexer"})
	require.NoError(t, err)
	t.Cleanup(sut.GracefulStop)

	return sut
}

func TestCheck(t *testing.T) {
	tt := []struct {
		name     string
		service  string
		pingErr  error
		mqStatus nats.Status

		expectedStatus grpc_health_v1.HealthCheckResponse_ServingStatus
	}{
		{
			name:     "liveness - serving",
			service:  "liveness",
			pingErr:  errors.New("not connected"),
			mqStatus: nats.DISCONNECTED,

			expectedStatus: grpc_health_v1.HealthCheckResponse_SERVING,
		},
		{
			name:     "readiness - serving",
			service:  "readiness",
			mqStatus: nats.CONNECTED,

			expectedStatus: grpc_health_v1.HealthCheckResponse_SERVING,
		},
		{
			name:     "readiness - db error - not connected",
			service:  "readiness",
			pingErr:  errors.New("not connected"),
			mqStatus: nats.CONNECTED,

			expectedStatus: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		},
		{
			name:     "readiness - mq reconnecting",
			service:  "readiness",
			mqStatus: nats.RECONNECTING,

			expectedStatus: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			sut := newHealthServer(t, tc.pingErr, tc.mqStatus)

			// when
			resp, err := sut.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: tc.service})

			// then
			require.NoError(t, err)
			require.Equal(t, tc.expectedStatus, resp.Status)
		})
	}
}

func TestWatch(t *testing.T) {
	t.Run("sends current status and every change until cancelled", func(t *testing.T) {
		// given
		var storeDown atomic.Bool
		storeMock := &mocks.PingerMock{
			PingFunc: func(_ context.Context) error {
				if storeDown.Load() {
					return errors.New("not connected")
				}
				return nil
			},
		}
		mqConn := &mocks.ConnectionStatusMock{StatusFunc: func() nats.Status { return nats.CONNECTED }}

		sut, err := indexer.NewServer(newLogger(), storeMock, mqConn, grpc_utils.ServerConfig{Name: "indexer"}, indexer.WithWatchInterval(10*time.Millisecond))
		require.NoError(t, err)
		t.Cleanup(sut.GracefulStop)

		ctx, cancel := context.WithCancel(context.Background())
		stream := &watchServer{ctx: ctx}

		watchErr := make(chan error, 1)

		// when
		go func() {
			watchErr <- sut.Watch(&grpc_health_v1.HealthCheckRequest{Service: "readiness"}, stream)
		}()

		require.Eventually(t, func() bool { return len(stream.statuses()) == 1 }, time.Second, 5*time.Millisecond)
		storeDown.Store(true)
		require.Eventually(t, func() bool { return len(stream.statuses()) == 2 }, time.Second, 5*time.Millisecond)
		cancel()

		// then
		select {
		case err = <-watchErr:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("watch did not return")
		}

		require.Equal(t, []grpc_health_v1.HealthCheckResponse_ServingStatus{
			grpc_health_v1.HealthCheckResponse_SERVING,
			grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		}, stream.statuses())
	})

	t.Run("liveness ignores the store", func(t *testing.T) {
		// given
		sut := newHealthServer(t, errors.New("not connected"), nats.DISCONNECTED)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		stream := &watchServer{ctx: ctx}

		// when
		err := sut.Watch(&grpc_health_v1.HealthCheckRequest{Service: "liveness"}, stream)

		// then
		require.NoError(t, err)
		require.Equal(t, []grpc_health_v1.HealthCheckResponse_ServingStatus{grpc_health_v1.HealthCheckResponse_SERVING}, stream.statuses())
	})
}

func TestList(t *testing.T) {
	tt := []struct {
		name     string
		pingErr  error
		mqStatus nats.Status

		expectedStatuses map[string]grpc_health_v1.HealthCheckResponse_ServingStatus
	}{
		{
			name:     "success",
			mqStatus: nats.CONNECTED,

			expectedStatuses: map[string]grpc_health_v1.HealthCheckResponse_ServingStatus{
				"server": grpc_health_v1.HealthCheckResponse_SERVING,
				"mq":     grpc_health_v1.HealthCheckResponse_SERVING,
				"store":  grpc_health_v1.HealthCheckResponse_SERVING,
			},
		},
		{
			name:     "db and mq down",
			pingErr:  errors.New("not connected"),
			mqStatus: nats.CLOSED,

			expectedStatuses: map[string]grpc_health_v1.HealthCheckResponse_ServingStatus{
				"server": grpc_health_v1.HealthCheckResponse_SERVING,
				"mq":     grpc_health_v1.HealthCheckResponse_NOT_SERVING,
				"store":  grpc_health_v1.HealthCheckResponse_NOT_SERVING,
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			// given
			sut := newHealthServer(t, tc.pingErr, tc.mqStatus)

			// when
			resp, err := sut.List(context.Background(), &grpc_health_v1.HealthListRequest{})

			// then
			require.NoError(t, err)
			actual := make(map[string]grpc_health_v1.HealthCheckResponse_ServingStatus, len(resp.Statuses))
			for name, status := range resp.Statuses {
				actual[name] = status.Status
			}
			require.Equal(t, tc.expectedStatuses, actual)
		})
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	// given
	sut := newHealthServer(t, nil, nats.CONNECTED)
	addr, err := sut.ListenAndServe("localhost:0")
	require.NoError(t, err)

	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// when
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "readiness"}, grpc.WaitForReady(true))

	// then
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	// address is taken
	_, err = sut.ListenAndServe(addr.String())
	require.ErrorIs(t, err, grpc_utils.ErrServerFailedToListen)
}

func TestServer_GracefulStop(t *testing.T) {
	t.Run("open watch stream does not block the stop", func(t *testing.T) {
		// given
		storeMock := &mocks.PingerMock{PingFunc: func(_ context.Context) error { return nil }}
		mqConn := &mocks.ConnectionStatusMock{StatusFunc: func() nats.Status { return nats.CONNECTED }}

		sut, err := indexer.NewServer(newLogger(), storeMock, mqConn, grpc_utils.ServerConfig{
			Name:                "indexer",
			GracefulStopTimeout: 100 * time.Millisecond,
		})
		require.NoError(t, err)

		addr, err := sut.ListenAndServe("localhost:0")
		require.NoError(t, err)

		conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
		require.NoError(t, err)
		defer conn.Close()

		stream, err := grpc_health_v1.NewHealthClient(conn).Watch(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "liveness"}, grpc.WaitForReady(true))
		require.NoError(t, err)
		_, err = stream.Recv()
		require.NoError(t, err)

		// when
		stopped := make(chan struct{})
		go func() {
			sut.GracefulStop()
			close(stopped)
		}()

		// then
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("graceful stop did not return")
		}
	})
}
