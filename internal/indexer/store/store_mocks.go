package store

//go:generate moq -pkg mocks -out ./mocks/indexer_store_mock.go . IndexerStore
