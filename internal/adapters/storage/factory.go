package storage

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// StoreType names a SnapshotStore implementation
type StoreType string

const (
	StoreTypeLocal  StoreType = "local"
	StoreTypeMemory StoreType = "memory"
)

// Factory creates SnapshotStore instances based on configuration
type Factory struct {
	retryConfig *RetryConfig
	logger      *logrus.Logger
}

// NewFactory creates a new store factory. A nil retry config disables retries.
func NewFactory(retryConfig *RetryConfig, logger *logrus.Logger) *Factory {
	return &Factory{retryConfig: retryConfig, logger: logger}
}

// Create creates a SnapshotStore from config
func (f *Factory) Create(config *Config) (SnapshotStore, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	var (
		store SnapshotStore
		err   error
	)

	switch StoreType(strings.ToLower(config.Type)) {
	case StoreTypeLocal, "":
		basePath := config.BasePath
		if basePath == "" {
			basePath = "./data/backups"
		}
		store, err = NewLocalStore(basePath)
	case StoreTypeMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", config.Type, err)
	}

	if f.retryConfig != nil {
		store = NewRetryingStore(store, f.retryConfig, f.logger)
	}

	return store, nil
}
