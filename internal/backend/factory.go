package backend

import (
	"context"
	"errors"
	"fmt"

	"travelapp/internal/amqp"
	applog "travelapp/internal/log"
	"travelapp/internal/sheets"
	gsheet "travelapp/internal/sheets/google"
	"travelapp/internal/storage"
)

type publishCloser interface {
	amqp.Publisher
	Close() error
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger

	dialAMQP  func(url, exchange, queue string, logger *applog.Logger) (publishCloser, error)
	newSheets func(ctx context.Context, cfg gsheet.Config, logger *applog.Logger) (sheets.ReportWriter, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) *DefaultFactory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
		dialAMQP: func(url, exchange, queue string, logger *applog.Logger) (publishCloser, error) {
			return amqp.NewClient(url, exchange, queue, logger)
		},
		newSheets: func(ctx context.Context, cfg gsheet.Config, logger *applog.Logger) (sheets.ReportWriter, error) {
			return gsheet.New(ctx, cfg, logger)
		},
	}
}

var _ Factory = (*DefaultFactory)(nil)

// Create opens the configured store and, when configured, the AMQP publisher
// and the Sheets report writer. Optional integrations that fail to start are
// logged and left nil; a store that fails to open is an error.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	result := &Result{Store: store}
	closers := []func() error{store.Close}

	if config.AMQPURL != "" {
		client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", applog.FieldError, err)
		} else {
			result.Publisher = client
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	if config.Sheets.SpreadsheetID != "" {
		writer, err := f.newSheets(ctx, config.Sheets, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize Google Sheets client, export disabled", applog.FieldError, err)
		} else {
			result.Reports = writer
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("close backend: %w", errors.Join(errs...))
		}
		return nil
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		applog.FieldStore, config.Store.String(),
		"amqp_enabled", result.Publisher != nil,
		"sheets_enabled", result.Reports != nil)

	return result, nil
}

func (f *DefaultFactory) openStore(config Config) (storage.Store, error) {
	switch config.Store {
	case SQLiteStore:
		s, err := storage.NewSQLiteStore(config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, nil
	case BoltStore:
		s, err := storage.NewBoltStore(config.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Bolt store: %w", err)
		}
		return s, nil
	case MemoryStore:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Store)
	}
}
