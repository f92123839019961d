package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finledger/internal/amqp"
	"finledger/internal/currency"
	"finledger/internal/events"
	"finledger/internal/ledger"
	"finledger/internal/services"
	"finledger/internal/settings"
	"finledger/internal/storage"
	"finledger/internal/transfer"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	blobs, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	b := New(blobs)
	closers := []func() error{blobs.Close}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without event forwarding", "error", err)
		} else {
			b.Forwarder = amqp.NewForwarder(client, 0)
			b.Bus.Subscribe(b.Forwarder.Handle)
			closers = append([]func() error{client.Close}, closers...)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", b.Forwarder != nil)

	return &BackendResult{
		Backend: b,
		Cleanup: func() error {
			var errs []error
			for _, c := range closers {
				if err := c(); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openStore(config Config) (storage.BlobStore, error) {
	switch config.Type {
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return s, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// New wires the services over blobs with a fresh bus. The result has no
// forwarder.
func New(blobs storage.BlobStore) *Backend {
	bus := events.NewBus()
	ls := ledger.NewStore(blobs, bus)
	ss := settings.NewStore(blobs)
	conv := currency.Default()

	return &Backend{
		Blobs:      blobs,
		Bus:        bus,
		Ledger:     ls,
		Settings:   ss,
		Converter:  conv,
		Builder:    services.NewRecordBuilder(ls, conv),
		Query:      services.NewQueryEngine(ls),
		Aggregator: services.NewAggregator(ls, ss),
		Importer:   transfer.NewImporter(ls, ss),
	}
}
