package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored snapshot
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// SnapshotStore keeps backup snapshots under slash-separated keys such as
// "backups/pos-20240101T120000Z.json"
type SnapshotStore interface {
	// Put writes a new object. It fails with ErrObjectExists if the key is taken.
	Put(ctx context.Context, key string, data []byte) error

	// Get reads a whole object
	Get(ctx context.Context, key string) ([]byte, error)

	// Open streams an object. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Stat returns an object's info
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// List returns the objects under prefix, newest key first
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Delete removes an object
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store
	Close() error
}

// Config selects and configures a store
type Config struct {
	Type     string `json:"type" mapstructure:"type"`
	BasePath string `json:"base_path" mapstructure:"base_path"`
}
