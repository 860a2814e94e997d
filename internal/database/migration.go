package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ExpectedTables lists the tables the schema must contain
var ExpectedTables = []string{
	"shop_info",
	"users",
	"categories",
	"addons",
	"addon_groups",
	"products",
	"recipes",
	"customers",
	"suppliers",
	"shifts",
	"sales",
	"expenses",
	"payments",
	"purchase_invoices",
	"stock_movements",
}

// MigrationManager handles database migrations from the embedded SQL files
type MigrationManager struct {
	db                  *sql.DB
	logger              *logrus.Logger
	backupBeforeMigrate bool
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB, logger *logrus.Logger) *MigrationManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &MigrationManager{
		db:     db,
		logger: logger,
	}
}

// MigrationInfo contains information about a migration
type MigrationInfo struct {
	Version   uint      `json:"version"`
	Dirty     bool      `json:"dirty"`
	Applied   bool      `json:"applied"`
	Timestamp time.Time `json:"timestamp"`
}

// RunMigrations executes all pending migrations
func (m *MigrationManager) RunMigrations() error {
	m.logger.Info("Starting database migrations...")

	mig, err := m.initMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}

	currentVersion, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if m.backupBeforeMigrate && err == nil {
		if backupErr := m.createBackup(); backupErr != nil {
			m.logger.WithError(backupErr).Warn("Failed to create backup before migration")
		}
	}

	if dirty {
		m.logger.Warn("Database is in dirty state, attempting to force version")
		if err := mig.Force(int(currentVersion)); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
	}

	m.logger.WithField("current_version", currentVersion).Info("Current migration version")

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}

	m.logger.WithField("new_version", newVersion).Info("Migrations completed successfully")
	return nil
}

// RollbackMigration rolls back the last migration
func (m *MigrationManager) RollbackMigration() error {
	m.logger.Info("Rolling back last migration...")

	if err := m.createBackup(); err != nil {
		m.logger.WithError(err).Warn("Failed to create backup before rollback")
	}

	mig, err := m.initMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}

	currentVersion, _, err := mig.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("no migrations to rollback")
		}
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	m.logger.WithField("current_version", currentVersion).Info("Rolling back from version")

	if err := mig.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	newVersion, _, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}

	m.logger.WithField("new_version", newVersion).Info("Rollback completed successfully")
	return nil
}

// GetMigrationStatus returns the current migration status
func (m *MigrationManager) GetMigrationStatus() (*MigrationInfo, error) {
	mig, err := m.initMigrate()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrate: %w", err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to get migration version: %w", err)
	}

	return &MigrationInfo{
		Version:   version,
		Dirty:     dirty,
		Applied:   err == nil,
		Timestamp: time.Now(),
	}, nil
}

// ValidateSchema checks that every expected table exists
func (m *MigrationManager) ValidateSchema() error {
	m.logger.Info("Validating database schema...")

	for _, table := range ExpectedTables {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
		if err := m.db.QueryRow(query, table).Scan(&count); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("expected table %s not found", table)
		}
	}

	var fkEnabled int
	if err := m.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return fmt.Errorf("failed to check foreign key status: %w", err)
	}
	if fkEnabled != 1 {
		m.logger.Warn("Foreign keys are not enabled")
	}

	m.logger.Info("Schema validation completed successfully")
	return nil
}

// initMigrate builds a migrate instance over the embedded files. The instance
// is not closed because closing the sqlite3 driver would close m.db.
func (m *MigrationManager) initMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return mig, nil
}

// createBackup copies the database file next to itself before a schema change
func (m *MigrationManager) createBackup() error {
	rows, err := m.db.Query("PRAGMA database_list")
	if err != nil {
		return fmt.Errorf("failed to query database list: %w", err)
	}

	var seq int
	var name, dbPath string
	if !rows.Next() {
		rows.Close()
		return fmt.Errorf("no database found")
	}
	if err := rows.Scan(&seq, &name, &dbPath); err != nil {
		rows.Close()
		return fmt.Errorf("failed to scan database path: %w", err)
	}
	rows.Close()

	if dbPath == "" || dbPath == ":memory:" {
		m.logger.Info("Skipping backup for in-memory database")
		return nil
	}

	timestamp := time.Now().Format("20060102_150405")
	backupPath := fmt.Sprintf("%s.backup_%s", dbPath, timestamp)

	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	// VACUUM INTO writes a consistent copy even in WAL mode
	if _, err := m.db.Exec("VACUUM INTO ?", backupPath); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	m.logger.WithField("backup_path", backupPath).Info("Database backup created")
	return nil
}
