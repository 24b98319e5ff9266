package natsconnection

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"

	natscore "github.com/blobledger/indexer/internal/message_queue/nats/client/nats_core"
	testutils "github.com/blobledger/indexer/internal/test_utils"
)

var (
	natsURL  string
	resource *dockertest.Resource
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(0)
	}

	os.Exit(testmain(m))
}

func testmain(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("failed to create pool: %v", err)
		return 1
	}

	port := "4334"
	resource, natsURL, err = testutils.RunNats(pool, port, "")
	if err != nil {
		log.Print(err)
		return 1
	}
	defer func() {
		purgeErr := pool.Purge(resource)
		if purgeErr != nil {
			log.Println(purgeErr)
		}
	}()

	time.Sleep(5 * time.Second)
	return m.Run()
}

// runs before TestNew, which stops the container
func TestCoreClient_Unsubscribe(t *testing.T) {
	// given
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	conn, err := New(natsURL, logger, WithConnectionName("indexer-drain-test"))
	require.NoError(t, err)
	defer conn.Close()

	sut := natscore.New(conn, natscore.WithLogger(logger))

	const messages = 20
	handled := make(chan []byte, messages)
	err = sut.Subscribe("ledger-events", func(data []byte) error {
		time.Sleep(10 * time.Millisecond)
		handled <- data
		return nil
	})
	require.NoError(t, err)

	for range messages {
		require.NoError(t, sut.Publish("ledger-events", []byte(`{}`)))
	}
	require.NoError(t, conn.Flush())

	// when
	err = sut.Unsubscribe("ledger-events")

	// then
	require.NoError(t, err)
	require.Len(t, handled, messages)
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	t.Run("error - wrong URL", func(t *testing.T) {
		_, err := New("wrong url", logger)
		require.ErrorIs(t, err, ErrNatsConnectionFailed)
	})

	t.Run("closed connection is signalled", func(t *testing.T) {
		// given
		clientClosedCh := make(chan struct{}, 1)

		conn, err := New(natsURL, logger,
			WithConnectionName("indexer-test"),
			WithClientClosedChannel(clientClosedCh),
			WithMaxReconnects(1),
			WithReconnectWait(100*time.Millisecond),
		)
		require.NoError(t, err)

		time.Sleep(1 * time.Second)
		require.NoError(t, conn.Publish("ledger-events", []byte(`{}`)))

		// when
		err = resource.Close()
		require.NoError(t, err)

		// then
		select {
		case <-clientClosedCh:
			t.Log("client closed signal received")
		case <-time.After(15 * time.Second):
			t.Fatal("client closed signal not received")
		}
	})
}
