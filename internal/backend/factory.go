package backend

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/amqp"
	applog "ledger/internal/log"
	"ledger/internal/records"
	"ledger/internal/records/memory"
	"ledger/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store records.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteStore(config)
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store}
	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without record events", "error", err)
			client = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			// Assigned only when non-nil so a nil *Client never hides
			// inside a non-nil interface.
			result.Publisher = client
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (records.Store, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}
