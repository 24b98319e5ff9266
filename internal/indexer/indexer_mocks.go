package indexer

// from message_queue.go
//go:generate moq -pkg mocks -out ./mocks/message_queue_client_mock.go . MessageQueueClient

// from fanout.go
//go:generate moq -pkg mocks -out ./mocks/notifier_mock.go . Notifier

// from event_consumer.go
//go:generate moq -pkg mocks -out ./mocks/event_sink_mock.go . EventSink

// from server.go
//go:generate moq -pkg mocks -out ./mocks/pinger_mock.go . Pinger

// from server.go
//go:generate moq -pkg mocks -out ./mocks/connection_status_mock.go . ConnectionStatus
