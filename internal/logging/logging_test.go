package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pos-engine/internal/config"

	"github.com/sirupsen/logrus"
)

func TestNew_LevelAndFormat(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		wantLevel logrus.Level
		wantErr   bool
	}{
		{"json info", config.LoggingConfig{Level: "info", Format: "json"}, logrus.InfoLevel, false},
		{"text debug", config.LoggingConfig{Level: "DEBUG", Format: "text"}, logrus.DebugLevel, false},
		{"bad level", config.LoggingConfig{Level: "loud", Format: "json"}, 0, true},
		{"bad format", config.LoggingConfig{Level: "info", Format: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, closer, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer closer.Close()
			if logger.GetLevel() != tt.wantLevel {
				t.Errorf("Expected level %v, got %v", tt.wantLevel, logger.GetLevel())
			}
		})
	}
}

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.log")

	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.WithField("sale_id", 42).Info("Sale processed")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"sale_id":42`) {
		t.Errorf("Expected structured entry in log file, got %s", data)
	}
}
