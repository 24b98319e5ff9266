package natsconnection

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNatsConnectionFailed = errors.New("failed to connect to NATS server")

func WithMaxReconnects(maxReconnects int) func(config *natsConfig) {
	return func(config *natsConfig) {
		config.maxReconnects = maxReconnects
	}
}

// WithClientClosedChannel receives a signal once the connection is closed for good.
func WithClientClosedChannel(clientClosedCh chan struct{}) func(config *natsConfig) {
	return func(config *natsConfig) {
		config.clientClosedCh = clientClosedCh
	}
}

func WithReconnectWait(reconnectWait time.Duration) func(config *natsConfig) {
	return func(config *natsConfig) {
		config.reconnectWait = reconnectWait
	}
}

func WithConnectionName(name string) func(config *natsConfig) {
	return func(config *natsConfig) {
		config.name = name
	}
}

type natsConfig struct {
	name                 string
	maxReconnects        int
	pingInterval         time.Duration
	reconnectBufSize     int
	reconnectWait        time.Duration
	maxPingsOutstanding  int
	retryOnFailedConnect bool
	clientClosedCh       chan struct{}
}

func New(natsURL string, logger *slog.Logger, opts ...func(config *natsConfig)) (*nats.Conn, error) {
	logger = logger.With(slog.String("module", "nats"))

	cfg := &natsConfig{
		maxReconnects:        10,
		pingInterval:         15 * time.Second,
		reconnectBufSize:     8 * 1024 * 1024,
		reconnectWait:        2 * time.Second,
		maxPingsOutstanding:  2,
		retryOnFailedConnect: true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, err
		}
		cfg.name = hostname
	}

	natsOpts := []nats.Option{
		nats.Name(cfg.name),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			if err != nil {
				logger.Error("connection error", slog.String("err", err.Error()))
			}
		}),
		nats.DiscoveredServersHandler(func(nc *nats.Conn) {
			logger.Info(fmt.Sprintf("Known servers: %v", nc.Servers()))
			logger.Info(fmt.Sprintf("Discovered servers: %v", nc.DiscoveredServers()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			var args []any
			if err != nil {
				args = append(args, slog.String("err", err.Error()))
			}
			buffered, bufferedErr := nc.Buffered()
			if bufferedErr == nil {
				args = append(args, slog.Int("buffered", buffered))
			}

			logger.Error("client disconnected", args...)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("client reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Warn("client closed")
			if cfg.clientClosedCh != nil {
				select {
				case cfg.clientClosedCh <- struct{}{}:
				default:
				}
			}
		}),
		nats.RetryOnFailedConnect(cfg.retryOnFailedConnect),
		nats.PingInterval(cfg.pingInterval),
		nats.MaxPingsOutstanding(cfg.maxPingsOutstanding),
		nats.ReconnectBufSize(cfg.reconnectBufSize),
		nats.MaxReconnects(cfg.maxReconnects),
		nats.ReconnectWait(cfg.reconnectWait),
	}

	nc, err := nats.Connect(natsURL, natsOpts...)
	if err != nil {
		return nil, errors.Join(ErrNatsConnectionFailed, err)
	}

	return nc, nil
}
