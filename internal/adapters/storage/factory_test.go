package storage

import (
	"context"
	"testing"
)

func TestFactory(t *testing.T) {
	factory := NewFactory(fastRetry(), quietLogger())

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"memory", &Config{Type: "memory"}, false},
		{"local", &Config{Type: "local", BasePath: t.TempDir()}, false},
		{"default type is local", &Config{BasePath: t.TempDir()}, false},
		{"unsupported", &Config{Type: "s3"}, true},
		{"nil config", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := factory.Create(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer store.Close()

			if _, ok := store.(*RetryingStore); !ok {
				t.Errorf("Expected store wrapped with retries, got %T", store)
			}

			ctx := context.Background()
			if err := store.Put(ctx, "backups/x.json", []byte("x")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			data, err := store.Get(ctx, "backups/x.json")
			if err != nil || string(data) != "x" {
				t.Errorf("Get = %q, %v", data, err)
			}
		})
	}
}

func TestFactoryWithoutRetry(t *testing.T) {
	store, err := NewFactory(nil, nil).Create(&Config{Type: "memory"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("Expected bare memory store, got %T", store)
	}
}
