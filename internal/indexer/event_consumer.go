package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrFailedToSubscribeToTopic = errors.New("failed to subscribe to topic")
	ErrFailedToDecodeEvent      = errors.New("failed to decode event")
)

type EventSink interface {
	Enqueue(ctx context.Context, event Event) error
}

// EventConsumer decodes events from a single topic so that blocks and mempool statuses keep
// the order they were published in.
type EventConsumer struct {
	mqClient MessageQueueClient
	sink     EventSink
	topic    string
	logger   *slog.Logger

	cancelAll context.CancelFunc
	ctx       context.Context
}

func NewEventConsumer(logger *slog.Logger, mqClient MessageQueueClient, sink EventSink, topic string) *EventConsumer {
	if topic == "" {
		topic = EventTopic
	}

	c := &EventConsumer{
		mqClient: mqClient,
		sink:     sink,
		topic:    topic,
		logger:   logger.With(slog.String("module", "event-consumer")),
	}

	c.ctx, c.cancelAll = context.WithCancel(context.Background())

	return c
}

func (c *EventConsumer) Start() error {
	err := c.mqClient.Subscribe(c.topic, c.handleMessage)
	if err != nil {
		return errors.Join(ErrFailedToSubscribeToTopic, fmt.Errorf("topic: %s", c.topic), err)
	}

	c.logger.Info("Subscribed to events", slog.String("topic", c.topic))

	return nil
}

func (c *EventConsumer) handleMessage(msg []byte) error {
	event, err := decodeEvent(msg)
	if err != nil {
		return err
	}

	return c.sink.Enqueue(c.ctx, event)
}

// decodeEvent reads the envelope from the same protobuf struct encoding the fanout publishes.
func decodeEvent(msg []byte) (Event, error) {
	var event Event

	envelope := &structpb.Struct{}
	err := proto.Unmarshal(msg, envelope)
	if err != nil {
		return event, errors.Join(ErrFailedToDecodeEvent, err)
	}

	data, err := json.Marshal(envelope.AsMap())
	if err != nil {
		return event, errors.Join(ErrFailedToDecodeEvent, err)
	}

	err = json.Unmarshal(data, &event)
	if err != nil {
		return event, errors.Join(ErrFailedToDecodeEvent, err)
	}

	return event, nil
}

// Shutdown stops the subscription once every delivered message is handed to the sink, then
// releases a callback still blocked on a full event queue.
func (c *EventConsumer) Shutdown() {
	err := c.mqClient.Unsubscribe(c.topic)
	if err != nil {
		c.logger.Error("failed to unsubscribe from events", slog.String("topic", c.topic), slog.String("err", err.Error()))
	}

	c.cancelAll()
}
