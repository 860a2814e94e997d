package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"pos-engine/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/pos.db", "Database file path")
		action  = flag.String("action", "up", "Migration action: up, down, status, validate")
		backup  = flag.Bool("backup", true, "Copy the database file before migrating up")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	absDBPath, err := filepath.Abs(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to get absolute database path")
	}

	logger.WithFields(logrus.Fields{
		"db_path": absDBPath,
		"action":  *action,
	}).Info("Starting migration tool")

	config := database.DefaultConnectionConfig()
	config.DatabasePath = absDBPath
	config.BackupOnMigrate = *backup
	config.Logger = logger

	switch *action {
	case "up":
		err = runMigrationsUp(config)
	case "down":
		err = withManager(config, func(m *database.MigrationManager) error {
			return m.RollbackMigration()
		})
	case "status":
		err = withManager(config, showMigrationStatus)
	case "validate":
		err = withManager(config, func(m *database.MigrationManager) error {
			if err := m.ValidateSchema(); err != nil {
				return err
			}
			fmt.Println("Schema validation passed successfully")
			return nil
		})
	default:
		logger.WithField("action", *action).Fatal("Unknown action. Use: up, down, status, validate")
	}

	if err != nil {
		logger.WithError(err).WithField("action", *action).Fatal("Migration tool failed")
	}
	logger.Info("Migration tool completed successfully")
}

// runMigrationsUp connects through the connection manager, which migrates on connect
func runMigrationsUp(config *database.ConnectionConfig) error {
	cm := database.NewConnectionManager(config)
	if err := cm.Connect(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return cm.Close()
}

// withManager opens the database without migrating and runs fn
func withManager(config *database.ConnectionConfig, fn func(m *database.MigrationManager) error) error {
	db, err := database.Open(config)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return fn(database.NewMigrationManager(db, config.Logger))
}

func showMigrationStatus(m *database.MigrationManager) error {
	status, err := m.GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Printf("Migration Status:\n")
	fmt.Printf("  Version: %d\n", status.Version)
	fmt.Printf("  Applied: %t\n", status.Applied)
	fmt.Printf("  Dirty: %t\n", status.Dirty)
	fmt.Printf("  Timestamp: %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))
	return nil
}
