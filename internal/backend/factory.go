package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	ownerStore, cleanup, err := f.createOwnerStore(config)
	if err != nil {
		return nil, err
	}

	// The AMQP client is optional; without it the worker's pending scan is
	// the only export path.
	var publisher services.ExportPublisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without export messages", "error", err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	localStore, err := store.NewLocalFileStore(config.LocalStorePath)
	if err != nil {
		if cleanup != nil {
			_ = cleanup()
		}
		return nil, fmt.Errorf("failed to initialize local file store: %w", err)
	}

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"local_store_path", config.LocalStorePath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		AuthService: services.NewTransactionService(ownerStore, publisher),
		// Anonymous records stay local; they are never mirrored to the ledger.
		LocalService: services.NewTransactionService(localStore, nil),
		Cleanup: func() error {
			var firstErr error
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					firstErr = err
				}
			}
			if cleanup != nil {
				if err := cleanup(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}, nil
}

func (f *DefaultFactory) createOwnerStore(config Config) (store.RecordStore, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		sqliteStore, err := store.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return sqliteStore, sqliteStore.Close, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return store.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
