package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ConnectionConfig holds database connection configuration
type ConnectionConfig struct {
	DatabasePath    string
	JournalMode     string
	BusyTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BackupOnMigrate bool
	Logger          *logrus.Logger
}

// DefaultConnectionConfig returns a default configuration
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		DatabasePath:    "./data/pos.db",
		JournalMode:     "WAL",
		BusyTimeout:     5 * time.Second,
		MaxOpenConns:    1, // single writer
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		BackupOnMigrate: true,
		Logger:          logrus.New(),
	}
}

// ConnectionManager manages database connections
type ConnectionManager struct {
	config *ConnectionConfig
	db     *sql.DB
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(config *ConnectionConfig) *ConnectionManager {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &ConnectionManager{
		config: config,
	}
}

// Connect opens the database and applies pending migrations
func (cm *ConnectionManager) Connect() error {
	if cm.db != nil {
		return fmt.Errorf("database connection already established")
	}

	db, err := Open(cm.config)
	if err != nil {
		return err
	}

	migrations := NewMigrationManager(db, cm.config.Logger)
	migrations.backupBeforeMigrate = cm.config.BackupOnMigrate
	if err := migrations.RunMigrations(); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	cm.db = db
	cm.config.Logger.WithField("db_path", cm.config.DatabasePath).Info("Database connection established")
	return nil
}

// GetDB returns the database connection
func (cm *ConnectionManager) GetDB() *sql.DB {
	return cm.db
}

// Close closes the database connection
func (cm *ConnectionManager) Close() error {
	if cm.db == nil {
		return nil
	}

	err := cm.db.Close()
	cm.db = nil

	if err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	cm.config.Logger.Info("Database connection closed")
	return nil
}

// Ping tests the database connection
func (cm *ConnectionManager) Ping() error {
	if cm.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if err := cm.db.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// GetMigrationManager returns a migration manager for this connection
func (cm *ConnectionManager) GetMigrationManager() *MigrationManager {
	if cm.db == nil {
		return nil
	}

	return NewMigrationManager(cm.db, cm.config.Logger)
}

// HealthCheck performs a comprehensive health check
func (cm *ConnectionManager) HealthCheck() error {
	if err := cm.Ping(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := cm.db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	var fkEnabled int
	if err := cm.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return fmt.Errorf("failed to check foreign key status: %w", err)
	}

	if fkEnabled != 1 {
		return fmt.Errorf("foreign keys are not enabled")
	}

	return nil
}

// Open opens a SQLite database with foreign keys enabled and the pool
// limited per config. It does not run migrations.
func Open(config *ConnectionConfig) (*sql.DB, error) {
	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
	}

	dbPath := config.DatabasePath
	if dbPath != ":memory:" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute database path: %w", err)
		}
		dbPath = abs

		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	logger.WithField("db_path", dbPath).Info("Opening database")

	db, err := sql.Open("sqlite3", buildDSN(dbPath, config))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	return db, nil
}

// buildDSN builds a go-sqlite3 DSN with connection options
func buildDSN(path string, config *ConnectionConfig) string {
	options := []string{"_foreign_keys=on"}

	if config.JournalMode != "" && path != ":memory:" {
		options = append(options, fmt.Sprintf("_journal_mode=%s", config.JournalMode))
	}

	if config.BusyTimeout > 0 {
		options = append(options, fmt.Sprintf("_busy_timeout=%d", config.BusyTimeout.Milliseconds()))
	}

	return fmt.Sprintf("%s?%s", path, strings.Join(options, "&"))
}

// InitializeDatabase opens the database and runs migrations
func InitializeDatabase(config *ConnectionConfig) (*sql.DB, error) {
	cm := NewConnectionManager(config)
	if err := cm.Connect(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	config.Logger.Info("Database initialized successfully")
	return cm.GetDB(), nil
}
