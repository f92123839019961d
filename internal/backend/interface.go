// Package backend assembles the ledger services on top of the configured
// blob store.
package backend

import (
	"context"

	"finledger/internal/amqp"
	"finledger/internal/currency"
	"finledger/internal/events"
	"finledger/internal/ledger"
	"finledger/internal/services"
	"finledger/internal/settings"
	"finledger/internal/storage"
	"finledger/internal/transfer"
)

// Backend holds every service the binaries use, all sharing one blob
// store and one event bus.
type Backend struct {
	Blobs      storage.BlobStore
	Bus        *events.Bus
	Ledger     *ledger.Store
	Settings   *settings.Store
	Converter  *currency.Converter
	Builder    *services.RecordBuilder
	Query      *services.QueryEngine
	Aggregator *services.Aggregator
	Importer   *transfer.Importer

	// Forwarder is nil when AMQP is not configured. Callers run it.
	Forwarder *amqp.Forwarder
}

// CleanupFunc releases the resources behind a Backend.
type CleanupFunc func() error

type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional event forwarding
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
