package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore implements SnapshotStore on the local filesystem
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the base directory if needed
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("init", "", err, false)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("init", "", err, false)
	}

	return &LocalStore{basePath: absPath}, nil
}

// Put writes to a temp file and renames it into place
func (l *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("put", key, err, false)
	}

	path := l.path(key)
	if _, err := os.Stat(path); err == nil {
		return NewStorageError("put", key, ErrObjectExists, false)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return NewStorageError("put", key, err, true)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return NewStorageError("put", key, err, true)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return NewStorageError("put", key, err, true)
	}

	return nil
}

// Get reads a whole object
func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, NewStorageError("get", key, err, false)
	}

	data, err := os.ReadFile(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("get", key, ErrObjectNotFound, false)
		}
		return nil, NewStorageError("get", key, err, true)
	}

	return data, nil
}

// Open streams an object from disk
func (l *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, NewStorageError("open", key, err, false)
	}

	f, err := os.Open(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("open", key, ErrObjectNotFound, false)
		}
		return nil, NewStorageError("open", key, err, true)
	}

	return f, nil
}

// Stat returns an object's size and modification time
func (l *LocalStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, NewStorageError("stat", key, err, false)
	}

	info, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("stat", key, ErrObjectNotFound, false)
		}
		return nil, NewStorageError("stat", key, err, true)
	}

	return &ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime()}, nil
}

// List walks the base directory and returns the objects under prefix
func (l *LocalStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects := []ObjectInfo{}

	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		objects = append(objects, ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, NewStorageError("list", prefix, err, true)
	}

	sortNewestFirst(objects)
	return objects, nil
}

// Delete removes an object
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return NewStorageError("delete", key, err, false)
	}

	if err := os.Remove(l.path(key)); err != nil {
		if os.IsNotExist(err) {
			return NewStorageError("delete", key, ErrObjectNotFound, false)
		}
		return NewStorageError("delete", key, err, true)
	}

	return nil
}

// Close implements SnapshotStore.Close
func (l *LocalStore) Close() error {
	return nil
}

func (l *LocalStore) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

// validateKey rejects empty keys and keys that escape the store
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.HasSuffix(key, ".tmp") {
		return ErrInvalidKey
	}
	return nil
}

func sortNewestFirst(objects []ObjectInfo) {
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
}
