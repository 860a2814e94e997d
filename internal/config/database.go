package config

import (
	"fmt"
	"time"

	"pos-engine/internal/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path            string
	JournalMode     string
	BusyTimeout     time.Duration
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	BackupOnMigrate bool
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("DB_PATH", "./data/pos.db")
	v.SetDefault("DB_JOURNAL_MODE", "WAL")
	v.SetDefault("DB_BUSY_TIMEOUT", "5s")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_BACKUP_ON_MIGRATE", true)
}

func loadDatabaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Path:            v.GetString("DB_PATH"),
		JournalMode:     v.GetString("DB_JOURNAL_MODE"),
		BusyTimeout:     v.GetDuration("DB_BUSY_TIMEOUT"),
		ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		BackupOnMigrate: v.GetBool("DB_BACKUP_ON_MIGRATE"),
	}
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout cannot be negative")
	}

	if c.ConnMaxLifetime != 0 && c.ConnMaxLifetime < time.Minute {
		return fmt.Errorf("connection max lifetime must be at least 1 minute")
	}

	return nil
}

// ToConnectionConfig converts DatabaseConfig to database.ConnectionConfig. The
// pool always holds a single connection so writes never interleave.
func (c *DatabaseConfig) ToConnectionConfig(logger *logrus.Logger) *database.ConnectionConfig {
	return &database.ConnectionConfig{
		DatabasePath:    c.Path,
		JournalMode:     c.JournalMode,
		BusyTimeout:     c.BusyTimeout,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: c.ConnMaxLifetime,
		BackupOnMigrate: c.BackupOnMigrate,
		Logger:          logger,
	}
}
