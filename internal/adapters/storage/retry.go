package storage

import (
	"context"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig configures retry behavior for store operations
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay" mapstructure:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor" mapstructure:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled" mapstructure:"jitter_enabled"`
}

// DefaultRetryConfig returns the retry policy used by the server
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// WithRetry runs op until it succeeds, returns a non-retryable error, or the
// attempts run out
func WithRetry(ctx context.Context, config *RetryConfig, op func(ctx context.Context) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= config.MaxAttempts || !IsRetryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.delay(attempt)):
		}
	}

	return lastErr
}

// delay is exponential backoff capped at MaxDelay, plus up to 10% jitter
func (c *RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	if c.JitterEnabled {
		d += rand.Float64() * 0.1 * d
	}
	return time.Duration(d)
}

// RetryingStore wraps a SnapshotStore with retry logic
type RetryingStore struct {
	store  SnapshotStore
	config *RetryConfig
	logger *logrus.Logger
}

// NewRetryingStore creates a new RetryingStore
func NewRetryingStore(store SnapshotStore, config *RetryConfig, logger *logrus.Logger) *RetryingStore {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RetryingStore{store: store, config: config, logger: logger}
}

func (r *RetryingStore) do(ctx context.Context, op, key string, fn func(ctx context.Context) error) error {
	attempt := 0
	err := WithRetry(ctx, r.config, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && IsRetryable(err) && attempt < r.config.MaxAttempts {
			r.logger.WithFields(logrus.Fields{
				"op":      op,
				"key":     key,
				"attempt": attempt,
			}).WithError(err).Warn("Storage operation failed, retrying")
		}
		return err
	})
	return err
}

// Put implements SnapshotStore.Put with retry logic
func (r *RetryingStore) Put(ctx context.Context, key string, data []byte) error {
	return r.do(ctx, "put", key, func(ctx context.Context) error {
		return r.store.Put(ctx, key, data)
	})
}

// Get implements SnapshotStore.Get with retry logic
func (r *RetryingStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.do(ctx, "get", key, func(ctx context.Context) error {
		var err error
		data, err = r.store.Get(ctx, key)
		return err
	})
	return data, err
}

// Open implements SnapshotStore.Open with retry logic
func (r *RetryingStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	err := r.do(ctx, "open", key, func(ctx context.Context) error {
		var err error
		rc, err = r.store.Open(ctx, key)
		return err
	})
	return rc, err
}

// Stat implements SnapshotStore.Stat with retry logic
func (r *RetryingStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	var info *ObjectInfo
	err := r.do(ctx, "stat", key, func(ctx context.Context) error {
		var err error
		info, err = r.store.Stat(ctx, key)
		return err
	})
	return info, err
}

// List implements SnapshotStore.List with retry logic
func (r *RetryingStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	err := r.do(ctx, "list", prefix, func(ctx context.Context) error {
		var err error
		objects, err = r.store.List(ctx, prefix)
		return err
	})
	return objects, err
}

// Delete implements SnapshotStore.Delete with retry logic
func (r *RetryingStore) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "delete", key, func(ctx context.Context) error {
		return r.store.Delete(ctx, key)
	})
}

// Close implements SnapshotStore.Close
func (r *RetryingStore) Close() error {
	return r.store.Close()
}
