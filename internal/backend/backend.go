package backend

import (
	"context"
	"fmt"

	"travelapp/internal/amqp"
	"travelapp/internal/config"
	"travelapp/internal/sheets"
	gsheet "travelapp/internal/sheets/google"
	"travelapp/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result bundles the local store with the optional outbound adapters.
// Publisher and Reports are nil when their integration is not configured.
type Result struct {
	Store     storage.Store
	Publisher amqp.Publisher
	Reports   sheets.ReportWriter
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// StoreType names a storage implementation.
type StoreType string

const (
	SQLiteStore StoreType = "sqlite"
	BoltStore   StoreType = "bolt"
	MemoryStore StoreType = "memory"
)

// String implements fmt.Stringer
func (st StoreType) String() string {
	return string(st)
}

// IsValid returns true if the store type is valid
func (st StoreType) IsValid() bool {
	switch st {
	case SQLiteStore, BoltStore, MemoryStore:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Store      StoreType
	SQLitePath string
	BoltPath   string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Sheets gsheet.Config
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	storeType := StoreType(appConfig.Store)
	if !storeType.IsValid() {
		return Config{}, fmt.Errorf("invalid store type in config: %s", appConfig.Store)
	}

	cfg := Config{
		Store:        storeType,
		SQLitePath:   appConfig.SQLitePath,
		BoltPath:     appConfig.BoltPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if appConfig.SheetsEnabled() {
		cfg.Sheets = gsheet.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			SheetName:       appConfig.GoogleSheetName,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
		}
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Store.IsValid() {
		return fmt.Errorf("invalid store type: %s", c.Store)
	}

	switch c.Store {
	case SQLiteStore:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite store")
		}
	case BoltStore:
		if c.BoltPath == "" {
			return fmt.Errorf("Bolt database path is required for bolt store")
		}
	case MemoryStore:
		// nothing to check
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}
