package config

import (
	"fmt"
	"strings"
	"time"

	"pos-engine/internal/adapters/storage"
	"pos-engine/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	Database    DatabaseConfig
	Storage     StorageConfig
	JWT         JWTConfig
	Admin       AdminConfig
	Logging     LoggingConfig
	Shop        ShopDefaults
	Backup      BackupConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

// StorageConfig holds snapshot storage configuration
type StorageConfig struct {
	Type      string // "local" or "memory"
	LocalPath string
	Retry     bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret      string
	ExpiryHours int
	Issuer      string
}

// AdminConfig holds the account seeded on an empty database
type AdminConfig struct {
	Name string
	PIN  string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level      string
	Format     string // "json" or "text"
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ShopDefaults seeds the shop information on first start
type ShopDefaults struct {
	Name                  string
	TaxEnabled            bool
	TaxRate               float64
	LoyaltyEnabled        bool
	PointsPerCurrencyUnit float64
	CurrencyPerPoint      float64
}

// BackupConfig holds scheduled backup configuration
type BackupConfig struct {
	Schedule  string // cron spec, empty disables
	Retention int
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		Database:    loadDatabaseConfig(v),
		Storage: StorageConfig{
			Type:      v.GetString("STORAGE_TYPE"),
			LocalPath: v.GetString("STORAGE_LOCAL_PATH"),
			Retry:     v.GetBool("STORAGE_RETRY"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
			Issuer:      v.GetString("JWT_ISSUER"),
		},
		Admin: AdminConfig{
			Name: v.GetString("ADMIN_NAME"),
			PIN:  v.GetString("ADMIN_PIN"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Shop: ShopDefaults{
			Name:                  v.GetString("SHOP_NAME"),
			TaxEnabled:            v.GetBool("SHOP_TAX_ENABLED"),
			TaxRate:               v.GetFloat64("SHOP_TAX_RATE"),
			LoyaltyEnabled:        v.GetBool("SHOP_LOYALTY_ENABLED"),
			PointsPerCurrencyUnit: v.GetFloat64("SHOP_POINTS_PER_CURRENCY_UNIT"),
			CurrencyPerPoint:      v.GetFloat64("SHOP_CURRENCY_PER_POINT"),
		},
		Backup: BackupConfig{
			Schedule:  v.GetString("BACKUP_SCHEDULE"),
			Retention: v.GetInt("BACKUP_RETENTION"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	config = AdaptConfigForServerless(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("STORAGE_TYPE", "local")
	v.SetDefault("STORAGE_LOCAL_PATH", "./data/backups")
	v.SetDefault("STORAGE_RETRY", true)
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 12)
	v.SetDefault("JWT_ISSUER", "pos-engine")
	v.SetDefault("ADMIN_NAME", "Admin")
	v.SetDefault("ADMIN_PIN", "1234")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_MAX_SIZE_MB", 64)
	v.SetDefault("LOG_MAX_BACKUPS", 7)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)
	v.SetDefault("SHOP_NAME", "My Shop")
	v.SetDefault("SHOP_TAX_ENABLED", false)
	v.SetDefault("SHOP_TAX_RATE", 0)
	v.SetDefault("SHOP_LOYALTY_ENABLED", false)
	v.SetDefault("SHOP_POINTS_PER_CURRENCY_UNIT", 1)
	v.SetDefault("SHOP_CURRENCY_PER_POINT", 0.01)
	v.SetDefault("BACKUP_RETENTION", 30)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	setDatabaseDefaults(v)
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("JWT secret cannot be empty")
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("JWT expiry must be positive")
	}
	if !models.IsValidPIN(c.Admin.PIN) {
		return fmt.Errorf("ADMIN_PIN must be 4 to 8 digits")
	}
	if c.Backup.Retention < 0 {
		return fmt.Errorf("backup retention cannot be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values cannot be negative")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TokenDuration returns the JWT lifetime
func (c *Config) TokenDuration() time.Duration {
	return time.Duration(c.JWT.ExpiryHours) * time.Hour
}

// ToStorageConfig converts StorageConfig to storage.Config
func (c *StorageConfig) ToStorageConfig() *storage.Config {
	return &storage.Config{Type: c.Type, BasePath: c.LocalPath}
}

// ToShopInfo builds the shop information seeded on first start
func (s ShopDefaults) ToShopInfo() *models.ShopInfo {
	info := models.NewShopInfo(s.Name)
	info.TaxEnabled = s.TaxEnabled
	info.TaxRate = s.TaxRate
	info.LoyaltyEnabled = s.LoyaltyEnabled
	info.PointsPerCurrencyUnit = s.PointsPerCurrencyUnit
	info.CurrencyPerPoint = s.CurrencyPerPoint
	return info
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
