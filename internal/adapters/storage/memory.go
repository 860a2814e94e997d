package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory SnapshotStore used by tests and the "memory"
// store type
type MemoryStore struct {
	mu       sync.RWMutex
	objects  map[string]memoryObject
	failures []error
}

type memoryObject struct {
	data     []byte
	modified time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

// FailNext makes the next calls return the given errors, one per call
func (m *MemoryStore) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

func (m *MemoryStore) nextFailure() error {
	if len(m.failures) == 0 {
		return nil
	}
	err := m.failures[0]
	m.failures = m.failures[1:]
	return err
}

// Put implements SnapshotStore.Put
func (m *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("put", key, err, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nextFailure(); err != nil {
		return err
	}
	if _, ok := m.objects[key]; ok {
		return NewStorageError("put", key, ErrObjectExists, false)
	}

	m.objects[key] = memoryObject{data: append([]byte(nil), data...), modified: time.Now()}
	return nil
}

// Get implements SnapshotStore.Get
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nextFailure(); err != nil {
		return nil, err
	}
	obj, ok := m.objects[key]
	if !ok {
		return nil, NewStorageError("get", key, ErrObjectNotFound, false)
	}
	return append([]byte(nil), obj.data...), nil
}

// Open implements SnapshotStore.Open
func (m *MemoryStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat implements SnapshotStore.Stat
func (m *MemoryStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, NewStorageError("stat", key, ErrObjectNotFound, false)
	}
	return &ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified}, nil
}

// List implements SnapshotStore.List
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nextFailure(); err != nil {
		return nil, err
	}

	objects := []ObjectInfo{}
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.modified})
		}
	}
	sortNewestFirst(objects)
	return objects, nil
}

// Delete implements SnapshotStore.Delete
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return NewStorageError("delete", key, ErrObjectNotFound, false)
	}
	delete(m.objects, key)
	return nil
}

// Close implements SnapshotStore.Close
func (m *MemoryStore) Close() error {
	return nil
}
