package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func newTestLocalStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestLocalStore_Put(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "backups/pos-1.json", false},
		{"nested key", "backups/2024/pos-2.json", false},
		{"path traversal", "../../etc/passwd", true},
		{"absolute path", "/etc/passwd", true},
		{"temp suffix", "backups/pos.json.tmp", true},
		{"empty key", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Put(ctx, tt.key, []byte(`{"version":1}`))
			if (err != nil) != tt.wantErr {
				t.Errorf("Put() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocalStore_PutRejectsExistingKey(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "backups/a.json", []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	err := store.Put(ctx, "backups/a.json", []byte("second"))
	if !IsAlreadyExists(err) {
		t.Fatalf("Expected already exists error, got %v", err)
	}

	data, err := store.Get(ctx, "backups/a.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("Expected original content to survive, got %q", data)
	}
}

func TestLocalStore_GetOpenStat(t *testing.T) {
	store, dir := newTestLocalStore(t)
	ctx := context.Background()
	content := []byte(`{"sales":[]}`)

	if err := store.Put(ctx, "backups/b.json", content); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "backups", "b.json.tmp")); !os.IsNotExist(err) {
		t.Error("Temp file should be gone after Put")
	}

	rc, err := store.Open(ctx, "backups/b.json")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	streamed, _ := io.ReadAll(rc)
	rc.Close()
	if string(streamed) != string(content) {
		t.Errorf("Open content = %q, want %q", streamed, content)
	}

	info, err := store.Stat(ctx, "backups/b.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Stat size = %d, want %d", info.Size, len(content))
	}

	if _, err := store.Get(ctx, "backups/missing.json"); !IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := store.Open(ctx, "backups/missing.json"); !IsNotFound(err) {
		t.Errorf("Expected not found from Open, got %v", err)
	}
}

func TestLocalStore_ListAndDelete(t *testing.T) {
	store, _ := newTestLocalStore(t)
	ctx := context.Background()

	for _, key := range []string{"backups/pos-1.json", "backups/pos-3.json", "backups/pos-2.json", "other/x.json"} {
		if err := store.Put(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("Put(%s) failed: %v", key, err)
		}
	}

	objects, err := store.List(ctx, "backups/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"backups/pos-3.json", "backups/pos-2.json", "backups/pos-1.json"}
	if len(objects) != len(want) {
		t.Fatalf("Expected %d objects, got %d", len(want), len(objects))
	}
	for i, key := range want {
		if objects[i].Key != key {
			t.Errorf("objects[%d] = %s, want %s", i, objects[i].Key, key)
		}
	}

	if err := store.Delete(ctx, "backups/pos-2.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "backups/pos-2.json"); !IsNotFound(err) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}

	objects, _ = store.List(ctx, "backups/")
	if len(objects) != 2 {
		t.Errorf("Expected 2 objects after delete, got %d", len(objects))
	}
}
