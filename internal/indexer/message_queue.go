package indexer

import (
	"google.golang.org/protobuf/proto"
)

const (
	EventTopic            = "ledger-events"
	BlobTransactionsTopic = "blob-transactions"
)

type MessageQueueClient interface {
	PublishMarshal(topic string, m proto.Message) error
	Subscribe(topic string, msgFunc func([]byte) error) error
	Unsubscribe(topic string) error
	Shutdown()
}
