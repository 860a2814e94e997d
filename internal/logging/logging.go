package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"pos-engine/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger. When a log file is configured entries go
// to stdout and to a size-rotated file.
func New(cfg config.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json", "":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	if cfg.File == "" {
		logger.SetOutput(os.Stdout)
		return logger, nopCloser{}, nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   false,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, rotator))

	return logger, rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
