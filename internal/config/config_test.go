package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8081" {
		t.Errorf("Expected default port 8081, got %s", cfg.Port)
	}
	if cfg.Database.Path != "./data/pos.db" || cfg.Database.BusyTimeout != 5*time.Second {
		t.Errorf("Unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.TokenDuration() != 12*time.Hour {
		t.Errorf("Expected 12h tokens, got %v", cfg.TokenDuration())
	}
	if cfg.Backup.Retention != 30 || cfg.Backup.Schedule != "" {
		t.Errorf("Unexpected backup defaults: %+v", cfg.Backup)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("Unexpected CORS defaults: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PATH", "/var/lib/pos/pos.db")
	t.Setenv("ADMIN_PIN", "86420")
	t.Setenv("SHOP_TAX_ENABLED", "true")
	t.Setenv("SHOP_TAX_RATE", "15")
	t.Setenv("BACKUP_SCHEDULE", "0 3 * * *")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://till.local, http://office.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" || cfg.Database.Path != "/var/lib/pos/pos.db" || cfg.Admin.PIN != "86420" {
		t.Errorf("Environment overrides not applied: %+v", cfg)
	}
	if cfg.Backup.Schedule != "0 3 * * *" {
		t.Errorf("Expected backup schedule, got %q", cfg.Backup.Schedule)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "http://office.local" {
		t.Errorf("Expected two trimmed origins, got %v", cfg.CORS.AllowedOrigins)
	}

	shop := cfg.Shop.ToShopInfo()
	if !shop.TaxEnabled || shop.TaxRate != 15 {
		t.Errorf("Expected shop seed with 15%% tax, got %+v", shop)
	}
	if err := shop.Validate(); err != nil {
		t.Errorf("Expected seeded shop info to be valid, got %v", err)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"short admin pin", "ADMIN_PIN", "12"},
		{"non numeric admin pin", "ADMIN_PIN", "abcd"},
		{"empty jwt secret", "JWT_SECRET", " "},
		{"negative retention", "BACKUP_RETENTION", "-1"},
		{"short connection lifetime", "DB_CONN_MAX_LIFETIME", "10s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected %s=%q to be rejected", tt.key, tt.value)
			}
		})
	}
}

func TestDatabaseConfig_ToConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{Path: "pos.db", JournalMode: "WAL", BusyTimeout: time.Second}
	conn := cfg.ToConnectionConfig(nil)

	if conn.MaxOpenConns != 1 || conn.MaxIdleConns != 1 {
		t.Errorf("Expected a single connection pool, got %d/%d", conn.MaxOpenConns, conn.MaxIdleConns)
	}
	if conn.DatabasePath != "pos.db" || conn.BusyTimeout != time.Second {
		t.Errorf("Unexpected connection config: %+v", conn)
	}
}

func TestAdaptConfigForServerless(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "pos-api")
	t.Setenv("BACKUP_SCHEDULE", "@daily")
	t.Setenv("LOG_FILE", "pos.log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if GetDeploymentMode() != "serverless" {
		t.Errorf("Expected serverless mode, got %s", GetDeploymentMode())
	}
	if cfg.Database.Path != "/tmp/pos.db" || cfg.Storage.LocalPath != "/tmp/backups" {
		t.Errorf("Expected paths under /tmp, got %s and %s", cfg.Database.Path, cfg.Storage.LocalPath)
	}
	if cfg.Backup.Schedule != "" || cfg.Logging.File != "" {
		t.Error("Expected schedule and log file to be disabled in Lambda")
	}
}
