package natscore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
)

var (
	ErrFailedToPublish     = errors.New("failed to publish")
	ErrFailedToSubscribe   = errors.New("failed to subscribe")
	ErrFailedToMarshal     = errors.New("failed to marshal message")
	ErrFailedToUnsubscribe = errors.New("failed to unsubscribe")
	ErrDrainTimeout        = errors.New("timed out draining subscription")
)

const drainTimeoutDefault = 30 * time.Second

type NatsConnection interface {
	QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subj string, data []byte) error
	Drain() error
}

// Client publishes and consumes messages over core NATS. Every topic is consumed in a queue
// group so that replicas of the indexer share a subscription.
type Client struct {
	nc           NatsConnection
	logger       *slog.Logger
	queueSuffix  string
	drainTimeout time.Duration

	mu            sync.Mutex
	subscriptions map[string]*nats.Subscription
}

func WithLogger(logger *slog.Logger) func(*Client) {
	return func(c *Client) {
		c.logger = logger.With(slog.String("module", "nats-core"))
	}
}

func WithQueueSuffix(suffix string) func(*Client) {
	return func(c *Client) {
		c.queueSuffix = suffix
	}
}

func WithDrainTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		c.drainTimeout = d
	}
}

func New(nc NatsConnection, opts ...func(*Client)) *Client {
	c := &Client{
		nc:            nc,
		logger:        slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})),
		queueSuffix:   "-group",
		drainTimeout:  drainTimeoutDefault,
		subscriptions: make(map[string]*nats.Subscription),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Shutdown() {
	if c.nc == nil {
		return
	}

	err := c.nc.Drain()
	if err != nil {
		c.logger.Error("failed to drain nats connection", slog.String("err", err.Error()))
	}
}

func (c *Client) Publish(topic string, data []byte) error {
	err := c.nc.Publish(topic, data)
	if err != nil {
		return errors.Join(ErrFailedToPublish, fmt.Errorf("topic: %s", topic), err)
	}

	return nil
}

func (c *Client) PublishMarshal(topic string, m proto.Message) error {
	data, err := proto.Marshal(m)
	if err != nil {
		return errors.Join(ErrFailedToMarshal, err)
	}

	return c.Publish(topic, data)
}

// Subscribe calls msgFunc for every message on topic. Errors returned by msgFunc are logged,
// the message is not redelivered.
func (c *Client) Subscribe(topic string, msgFunc func([]byte) error) error {
	sub, err := c.nc.QueueSubscribe(topic, topic+c.queueSuffix, func(msg *nats.Msg) {
		msgErr := msgFunc(msg.Data)
		if msgErr != nil {
			c.logger.Error("failed to handle message", slog.String("topic", topic), slog.String("err", msgErr.Error()))
		}
	})
	if err != nil {
		return errors.Join(ErrFailedToSubscribe, fmt.Errorf("topic: %s", topic), err)
	}

	c.mu.Lock()
	c.subscriptions[topic] = sub
	c.mu.Unlock()

	return nil
}

// Unsubscribe removes interest in topic and returns once every message already delivered to
// the subscription has been handed to its callback.
func (c *Client) Unsubscribe(topic string) error {
	c.mu.Lock()
	sub, found := c.subscriptions[topic]
	delete(c.subscriptions, topic)
	c.mu.Unlock()

	if !found {
		return nil
	}

	closed := sub.StatusChanged(nats.SubscriptionClosed)

	err := sub.Drain()
	if err != nil {
		return errors.Join(ErrFailedToUnsubscribe, fmt.Errorf("topic: %s", topic), err)
	}

	select {
	case <-closed:
	case <-time.After(c.drainTimeout):
		return errors.Join(ErrFailedToUnsubscribe, fmt.Errorf("topic: %s", topic), ErrDrainTimeout)
	}

	return nil
}
